package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/tubuyaki/internal/metrics"
	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/repository"
	"github.com/hitoshi/tubuyaki/internal/security"
)

// --- モック定義 ---

// mockPostRepo はrepository.PostRepositoryのモック実装。
type mockPostRepo struct {
	listFn     func(ctx context.Context, limit, offset int) ([]repository.PostWithAuthor, error)
	countFn    func(ctx context.Context) (int, error)
	findByIDFn func(ctx context.Context, id string) (*repository.PostWithAuthor, error)
	createFn   func(ctx context.Context, post *model.Post) error
	updateFn   func(ctx context.Context, post *model.Post) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockPostRepo) List(ctx context.Context, limit, offset int) ([]repository.PostWithAuthor, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockGroupRepo はrepository.GroupRepositoryのモック実装。
type mockGroupRepo struct {
	listFn     func(ctx context.Context) ([]*model.Group, error)
	findByIDFn func(ctx context.Context, id string) (*model.Group, error)
}

func (m *mockGroupRepo) List(ctx context.Context) ([]*model.Group, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func newTestService(postRepo *mockPostRepo, groupRepo *mockGroupRepo) *Service {
	return NewService(postRepo, groupRepo, security.NewTextSanitizer(), metrics.Noop{})
}

// --- List テスト ---

func TestService_List_ReturnsPostsWithCount(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockPostRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 42, nil
		},
		listFn: func(ctx context.Context, limit, offset int) ([]repository.PostWithAuthor, error) {
			if limit != 10 || offset != 20 {
				t.Errorf("limit/offset = %d/%d, want 10/20", limit, offset)
			}
			return []repository.PostWithAuthor{
				{
					Post:           model.Post{ID: "post-1", AuthorID: "user-1", Text: "hello", PubDate: now},
					AuthorUsername: "alice",
				},
			}, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	result, err := svc.List(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Count != 42 {
		t.Errorf("Count = %d, want 42", result.Count)
	}
	if len(result.Posts) != 1 {
		t.Fatalf("Posts length = %d, want 1", len(result.Posts))
	}
	if result.Posts[0].Author != "alice" {
		t.Errorf("Author = %q, want %q", result.Posts[0].Author, "alice")
	}
}

func TestService_List_RepoError(t *testing.T) {
	repo := &mockPostRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 0, errors.New("connection refused")
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	if _, err := svc.List(context.Background(), 10, 0); err == nil {
		t.Fatal("List() error = nil, want error")
	}
}

// --- Get テスト ---

func TestService_Get_NotFound(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return nil, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	_, err := svc.Get(context.Background(), "nonexistent")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodePostNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePostNotFound)
	}
}

// --- Create テスト ---

func TestService_Create_Success(t *testing.T) {
	var created *model.Post
	repo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			created = post
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return &repository.PostWithAuthor{
				Post:           *created,
				AuthorUsername: "alice",
			}, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	info, err := svc.Create(context.Background(), "user-1", CreateInput{Text: "my post"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if created.AuthorID != "user-1" {
		t.Errorf("AuthorID = %q, want %q", created.AuthorID, "user-1")
	}
	if created.ID == "" {
		t.Error("ID is empty, want generated UUID")
	}
	if created.PubDate.IsZero() {
		t.Error("PubDate is zero, want server-side timestamp")
	}
	if info.Author != "alice" {
		t.Errorf("Author = %q, want %q", info.Author, "alice")
	}
}

func TestService_Create_SanitizesText(t *testing.T) {
	var created *model.Post
	repo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			created = post
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return &repository.PostWithAuthor{Post: *created, AuthorUsername: "alice"}, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Text: "  <script>alert(1)</script>safe text  ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Text != "safe text" {
		t.Errorf("Text = %q, want %q", created.Text, "safe text")
	}
}

func TestService_Create_EmptyTextAfterSanitize(t *testing.T) {
	svc := newTestService(&mockPostRepo{}, &mockGroupRepo{})

	_, err := svc.Create(context.Background(), "user-1", CreateInput{Text: "<b></b>  "})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidation {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
	}
	if apiErr.Field != "text" {
		t.Errorf("Field = %q, want %q", apiErr.Field, "text")
	}
}

func TestService_Create_UnknownGroup(t *testing.T) {
	groupID := "nonexistent"
	groupRepo := &mockGroupRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Group, error) {
			return nil, nil
		},
	}

	svc := newTestService(&mockPostRepo{}, groupRepo)

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Text:    "hello",
		GroupID: &groupID,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Field != "group" {
		t.Errorf("Field = %q, want %q", apiErr.Field, "group")
	}
}

// --- Update テスト ---

func TestService_Update_NonAuthor_ReturnsForbidden(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return &repository.PostWithAuthor{
				Post:           model.Post{ID: "post-1", AuthorID: "user-1", Text: "original"},
				AuthorUsername: "alice",
			}, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	text := "hijacked"
	_, err := svc.Update(context.Background(), "user-2", "post-1", UpdateInput{Text: &text})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeForbidden)
	}
}

func TestService_Update_PartialUpdateKeepsOtherFields(t *testing.T) {
	groupID := "group-1"
	var updated *model.Post
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			if updated != nil {
				return &repository.PostWithAuthor{Post: *updated, AuthorUsername: "alice"}, nil
			}
			return &repository.PostWithAuthor{
				Post:           model.Post{ID: "post-1", AuthorID: "user-1", Text: "original", GroupID: &groupID},
				AuthorUsername: "alice",
			}, nil
		},
		updateFn: func(ctx context.Context, post *model.Post) error {
			updated = post
			return nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	text := "edited"
	_, err := svc.Update(context.Background(), "user-1", "post-1", UpdateInput{Text: &text})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Text != "edited" {
		t.Errorf("Text = %q, want %q", updated.Text, "edited")
	}
	if updated.GroupID == nil || *updated.GroupID != "group-1" {
		t.Errorf("GroupID = %v, want %q (unchanged)", updated.GroupID, "group-1")
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockPostRepo{}, &mockGroupRepo{})

	text := "edited"
	_, err := svc.Update(context.Background(), "user-1", "nonexistent", UpdateInput{Text: &text})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodePostNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePostNotFound)
	}
}

// --- Delete テスト ---

func TestService_Delete_Success(t *testing.T) {
	deleteCalled := false
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return &repository.PostWithAuthor{
				Post:           model.Post{ID: "post-1", AuthorID: "user-1"},
				AuthorUsername: "alice",
			}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	if err := svc.Delete(context.Background(), "user-1", "post-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleteCalled {
		t.Error("expected Delete to be called")
	}
}

func TestService_Delete_NonAuthor_ReturnsForbidden(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*repository.PostWithAuthor, error) {
			return &repository.PostWithAuthor{
				Post:           model.Post{ID: "post-1", AuthorID: "user-1"},
				AuthorUsername: "alice",
			}, nil
		},
	}

	svc := newTestService(repo, &mockGroupRepo{})

	err := svc.Delete(context.Background(), "user-2", "post-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeForbidden)
	}
}
