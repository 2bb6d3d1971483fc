// Package comment はコメント管理のドメインロジックを提供する。
package comment

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

// CommentInfo はコメントと著者usernameを結合したドメインオブジェクト。
type CommentInfo struct {
	ID      string
	Author  string
	PostID  string
	Text    string
	Created time.Time
}

// Service はコメント管理のサービス層。
// コメントは常に特定の投稿にスコープされる。親投稿はURLパスから解決され、
// クライアント入力から設定されることはない。
type Service struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	sanitizer   security.TextSanitizerService
	recorder    metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sanitizer security.TextSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		recorder:    recorder,
	}
}

// List は指定投稿のコメント一覧を返す。
// 親投稿が存在しない場合はNotFoundエラーを返す（空集合ではなく）。
func (s *Service) List(ctx context.Context, postID string) ([]CommentInfo, error) {
	if err := s.resolvePost(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.commentRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	comments := make([]CommentInfo, len(rows))
	for i, row := range rows {
		comments[i] = toCommentInfo(row)
	}
	return comments, nil
}

// Get は指定投稿にスコープされたコメントを返す。
// 投稿またはコメントが存在しない場合、別の投稿のコメントIDの場合はNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, postID, commentID string) (*CommentInfo, error) {
	row, err := s.find(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	info := toCommentInfo(*row)
	return &info, nil
}

// Create は認証済み呼び出し元を著者としてコメントを作成する。
// 親投稿はpostID（URLパス由来）から解決し、存在しない場合はNotFoundエラーを返す。
func (s *Service) Create(ctx context.Context, authorID, postID, text string) (*CommentInfo, error) {
	if err := s.resolvePost(ctx, postID); err != nil {
		return nil, err
	}

	sanitized := s.sanitizer.Sanitize(text)
	if sanitized == "" {
		return nil, model.NewValidationError("text", "text must not be empty")
	}

	comment := &model.Comment{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		PostID:   postID,
		Text:     sanitized,
		Created:  time.Now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	s.recorder.RecordCommentCreated()

	return s.Get(ctx, postID, comment.ID)
}

// Update はコメントのtextを更新する。呼び出し元が著者でない場合はForbiddenエラーを返す。
func (s *Service) Update(ctx context.Context, callerID, postID, commentID, text string) (*CommentInfo, error) {
	row, err := s.find(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if row.AuthorID != callerID {
		return nil, model.NewForbiddenError("cannot modify another user's comment")
	}

	sanitized := s.sanitizer.Sanitize(text)
	if sanitized == "" {
		return nil, model.NewValidationError("text", "text must not be empty")
	}

	comment := row.Comment
	comment.Text = sanitized
	if err := s.commentRepo.Update(ctx, &comment); err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}

	return s.Get(ctx, postID, commentID)
}

// Delete はコメントを削除する。呼び出し元が著者でない場合はForbiddenエラーを返す。
func (s *Service) Delete(ctx context.Context, callerID, postID, commentID string) error {
	row, err := s.find(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if row.AuthorID != callerID {
		return model.NewForbiddenError("cannot delete another user's comment")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// resolvePost は親投稿の実在を確認する。存在しない場合はNotFoundエラーを返す。
func (s *Service) resolvePost(ctx context.Context, postID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}

// find は指定投稿にスコープされたコメントを取得する。
// コメントが存在してもpostIDが一致しない場合はNotFoundとして扱う。
func (s *Service) find(ctx context.Context, postID, commentID string) (*repository.CommentWithAuthor, error) {
	if err := s.resolvePost(ctx, postID); err != nil {
		return nil, err
	}

	row, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if row == nil || row.PostID != postID {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	return row, nil
}

// toCommentInfo はリポジトリ行をドメインオブジェクトに変換する。
func toCommentInfo(row repository.CommentWithAuthor) CommentInfo {
	return CommentInfo{
		ID:      row.ID,
		Author:  row.AuthorUsername,
		PostID:  row.PostID,
		Text:    row.Text,
		Created: row.Created,
	}
}
