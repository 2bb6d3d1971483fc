package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/tubuyaki/internal/model"
)

// --- モック定義 ---

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

// inMemoryUserRepo は登録したユーザーを保持するmockUserRepoを返す。
func inMemoryUserRepo() *mockUserRepo {
	byID := map[string]*model.User{}
	byName := map[string]*model.User{}
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return byID[id], nil
		},
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return byName[username], nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			byID[user.ID] = user
			byName[user.Username] = user
			return nil
		},
	}
}

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, Config{
		Secret:     []byte("test-secret"),
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
}

// --- Signup テスト ---

func TestService_Signup_Success(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	user, err := svc.Signup(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if user.ID == "" {
		t.Error("ID is empty, want generated UUID")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.PasswordHash == "s3cretpass" || user.PasswordHash == "" {
		t.Error("PasswordHash must be a bcrypt hash, not the plain password")
	}
}

func TestService_Signup_InvalidUsername(t *testing.T) {
	svc := newTestService(inMemoryUserRepo())

	tests := []string{"ab", "user name", "user@host", "日本語", ""}
	for _, username := range tests {
		_, err := svc.Signup(context.Background(), username, "s3cretpass")

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("username %q: error = %v, want *model.APIError", username, err)
		}
		if apiErr.Field != "username" {
			t.Errorf("username %q: Field = %q, want %q", username, apiErr.Field, "username")
		}
	}
}

func TestService_Signup_ShortPassword(t *testing.T) {
	svc := newTestService(inMemoryUserRepo())

	_, err := svc.Signup(context.Background(), "alice", "short")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Field != "password" {
		t.Errorf("Field = %q, want %q", apiErr.Field, "password")
	}
}

func TestService_Signup_DuplicateUsername(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	_, err := svc.Signup(context.Background(), "alice", "otherpass99")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidation {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
	}
}

// --- トークン発行・検証テスト ---

func TestService_IssueTokenPair_And_VerifyAccessToken(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	user, err := svc.Signup(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	access, refresh, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("tokens are empty")
	}

	userID, err := svc.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if userID != user.ID {
		t.Errorf("userID = %q, want %q", userID, user.ID)
	}
}

func TestService_IssueTokenPair_WrongPassword(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, _, err := svc.IssueTokenPair(context.Background(), "alice", "wrongpass1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

func TestService_IssueTokenPair_UnknownUser(t *testing.T) {
	svc := newTestService(inMemoryUserRepo())

	_, _, err := svc.IssueTokenPair(context.Background(), "ghost", "s3cretpass")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

func TestService_VerifyAccessToken_RejectsRefreshToken(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, refresh, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if _, err := svc.VerifyAccessToken(refresh); err == nil {
		t.Error("VerifyAccessToken(refresh) error = nil, want error")
	}
}

func TestService_VerifyAccessToken_Garbage(t *testing.T) {
	svc := newTestService(inMemoryUserRepo())

	if _, err := svc.VerifyAccessToken("not-a-jwt"); err == nil {
		t.Error("VerifyAccessToken() error = nil, want error")
	}
}

func TestService_VerifyAccessToken_WrongSecret(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	access, _, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	other := NewService(repo, Config{
		Secret:     []byte("different-secret"),
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	if _, err := other.VerifyAccessToken(access); err == nil {
		t.Error("VerifyAccessToken() with wrong secret error = nil, want error")
	}
}

// --- Refresh テスト ---

func TestService_Refresh_Success(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	user, err := svc.Signup(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, refresh, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	access, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	userID, err := svc.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if userID != user.ID {
		t.Errorf("userID = %q, want %q", userID, user.ID)
	}
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	access, _, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	_, err = svc.Refresh(context.Background(), access)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

func TestService_Refresh_DeletedUser(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	_, refresh, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	// トークン発行後にユーザーが消えた状態を再現する
	repo.findByIDFn = func(ctx context.Context, id string) (*model.User, error) {
		return nil, nil
	}

	if _, err := svc.Refresh(context.Background(), refresh); err == nil {
		t.Error("Refresh() error = nil, want error")
	}
}

// --- VerifyToken テスト ---

func TestService_VerifyToken_BothTokenTypes(t *testing.T) {
	repo := inMemoryUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "s3cretpass"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	access, refresh, err := svc.IssueTokenPair(context.Background(), "alice", "s3cretpass")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if err := svc.VerifyToken(access); err != nil {
		t.Errorf("VerifyToken(access) error = %v", err)
	}
	if err := svc.VerifyToken(refresh); err != nil {
		t.Errorf("VerifyToken(refresh) error = %v", err)
	}
	if err := svc.VerifyToken("garbage"); err == nil {
		t.Error("VerifyToken(garbage) error = nil, want error")
	}
}
