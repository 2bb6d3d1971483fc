package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tubuyaki/internal/comment"
	"github.com/hitoshi/tubuyaki/internal/middleware"
	"github.com/hitoshi/tubuyaki/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
// すべての操作は親投稿にスコープされる。
type CommentServiceInterface interface {
	// List は指定投稿のコメント一覧を返す。
	List(ctx context.Context, postID string) ([]comment.CommentInfo, error)
	// Get は指定投稿にスコープされたコメントを返す。
	Get(ctx context.Context, postID, commentID string) (*comment.CommentInfo, error)
	// Create は認証済み呼び出し元を著者としてコメントを作成する。
	Create(ctx context.Context, authorID, postID, text string) (*comment.CommentInfo, error)
	// Update はコメントのtextを更新する。著者以外の呼び出しは拒否される。
	Update(ctx context.Context, callerID, postID, commentID, text string) (*comment.CommentInfo, error)
	// Delete はコメントを削除する。著者以外の呼び出しは拒否される。
	Delete(ctx context.Context, callerID, postID, commentID string) error
}

// CommentHandler はコメント管理のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{
		service: service,
	}
}

// commentRequest はコメント作成・更新リクエストのボディ。
// 親投稿はURLパスから決まるため、ボディにpostフィールドは受け付けない。
type commentRequest struct {
	Text string `json:"text"`
}

// commentResponse はコメントのAPIレスポンス。authorはusernameで表す。
type commentResponse struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Post    string    `json:"post"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// ListComments は指定投稿のコメント一覧を取得する。認証不要。
// GET /v1/posts/:post_id/comments/
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "post_id")

	comments, err := h.service.List(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]commentResponse, len(comments))
	for i, c := range comments {
		results[i] = toCommentResponse(&c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetComment はコメント詳細を取得する。認証不要。
// GET /v1/posts/:post_id/comments/:id/
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "post_id")
	commentID := chi.URLParam(r, "comment_id")

	c, err := h.service.Get(r.Context(), postID, commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCommentResponse(c))
}

// CreateComment はコメントを作成する。
// POST /v1/posts/:post_id/comments/
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "post_id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	c, err := h.service.Create(r.Context(), userID, postID, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCommentResponse(c))
}

// UpdateComment はコメントのtextを更新する。PUTとPATCHで共通。
// PUT/PATCH /v1/posts/:post_id/comments/:id/
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "post_id")
	commentID := chi.URLParam(r, "comment_id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	c, err := h.service.Update(r.Context(), userID, postID, commentID, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCommentResponse(c))
}

// DeleteComment はコメントを削除する。
// DELETE /v1/posts/:post_id/comments/:id/
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "post_id")
	commentID := chi.URLParam(r, "comment_id")

	if err := h.service.Delete(r.Context(), userID, postID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCommentResponse はドメインオブジェクトからAPIレスポンスに変換する。
func toCommentResponse(c *comment.CommentInfo) commentResponse {
	return commentResponse{
		ID:      c.ID,
		Author:  c.Author,
		Post:    c.PostID,
		Text:    c.Text,
		Created: c.Created,
	}
}
