// Package post は投稿管理のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tubuyaki/internal/metrics"
	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/repository"
	"github.com/hitoshi/tubuyaki/internal/security"
)

// PostInfo は投稿と著者usernameを結合したドメインオブジェクト。
type PostInfo struct {
	ID      string
	Author  string
	Text    string
	PubDate time.Time
	GroupID *string
	Image   *string
}

// ListResult はページネーション付き投稿一覧の結果。
type ListResult struct {
	Posts []PostInfo
	Count int
}

// CreateInput は投稿作成の入力。
// 著者はクライアント入力からは決して設定されず、認証済み呼び出し元から渡される。
type CreateInput struct {
	Text    string
	GroupID *string
	Image   *string
}

// UpdateInput は投稿更新の入力。nilフィールドは変更しない部分更新を行う。
// PUTとPATCHは同一の部分更新セマンティクスを共有する。
type UpdateInput struct {
	Text    *string
	GroupID *string
	Image   *string
}

// Service は投稿管理のサービス層。
// 著者のみ書き込み可能という認可ルールはこの層で適用する。
type Service struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	sanitizer security.TextSanitizerService
	recorder  metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	sanitizer security.TextSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// List はページネーション付きの投稿一覧と総数を返す。
func (s *Service) List(ctx context.Context, limit, offset int) (*ListResult, error) {
	count, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿総数の取得に失敗しました: %w", err)
	}

	rows, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	posts := make([]PostInfo, len(rows))
	for i, row := range rows {
		posts[i] = toPostInfo(row)
	}

	return &ListResult{Posts: posts, Count: count}, nil
}

// Get は指定IDの投稿を返す。存在しない場合はNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, postID string) (*PostInfo, error) {
	row, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if row == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	info := toPostInfo(*row)
	return &info, nil
}

// Create は認証済み呼び出し元を著者として投稿を作成する。
// 本文はサニタイズ後に空でないことを要求する。
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput) (*PostInfo, error) {
	text := s.sanitizer.Sanitize(input.Text)
	if text == "" {
		return nil, model.NewValidationError("text", "text must not be empty")
	}

	if input.GroupID != nil {
		group, err := s.groupRepo.FindByID(ctx, *input.GroupID)
		if err != nil {
			return nil, fmt.Errorf("グループの取得に失敗しました: %w", err)
		}
		if group == nil {
			return nil, model.NewValidationError("group", "group not found")
		}
	}

	post := &model.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Text:     text,
		PubDate:  time.Now().UTC(),
		GroupID:  input.GroupID,
		Image:    input.Image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	s.recorder.RecordPostCreated()

	// 著者usernameを含む表現を返すため作成行を読み直す
	return s.Get(ctx, post.ID)
}

// Update は投稿を部分更新する。呼び出し元が著者でない場合はForbiddenエラーを返す。
func (s *Service) Update(ctx context.Context, callerID, postID string, input UpdateInput) (*PostInfo, error) {
	row, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if row == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if row.AuthorID != callerID {
		return nil, model.NewForbiddenError("cannot modify another user's post")
	}

	post := row.Post
	if input.Text != nil {
		text := s.sanitizer.Sanitize(*input.Text)
		if text == "" {
			return nil, model.NewValidationError("text", "text must not be empty")
		}
		post.Text = text
	}
	if input.GroupID != nil {
		group, err := s.groupRepo.FindByID(ctx, *input.GroupID)
		if err != nil {
			return nil, fmt.Errorf("グループの取得に失敗しました: %w", err)
		}
		if group == nil {
			return nil, model.NewValidationError("group", "group not found")
		}
		post.GroupID = input.GroupID
	}
	if input.Image != nil {
		post.Image = input.Image
	}

	if err := s.postRepo.Update(ctx, &post); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	return s.Get(ctx, postID)
}

// Delete は投稿を削除する。呼び出し元が著者でない場合はForbiddenエラーを返す。
// 関連コメントはデータストア側でCASCADE削除される。
func (s *Service) Delete(ctx context.Context, callerID, postID string) error {
	row, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if row == nil {
		return model.NewPostNotFoundError(postID)
	}
	if row.AuthorID != callerID {
		return model.NewForbiddenError("cannot delete another user's post")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// toPostInfo はリポジトリ行をドメインオブジェクトに変換する。
func toPostInfo(row repository.PostWithAuthor) PostInfo {
	return PostInfo{
		ID:      row.ID,
		Author:  row.AuthorUsername,
		Text:    row.Text,
		PubDate: row.PubDate,
		GroupID: row.GroupID,
		Image:   row.Image,
	}
}
