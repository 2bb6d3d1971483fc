package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tubuyaki/internal/middleware"
	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// List はページネーション付きの投稿一覧と総数を返す。
	List(ctx context.Context, limit, offset int) (*post.ListResult, error)
	// Get は指定IDの投稿を返す。
	Get(ctx context.Context, postID string) (*post.PostInfo, error)
	// Create は認証済み呼び出し元を著者として投稿を作成する。
	Create(ctx context.Context, authorID string, input post.CreateInput) (*post.PostInfo, error)
	// Update は投稿を部分更新する。著者以外の呼び出しは拒否される。
	Update(ctx context.Context, callerID, postID string, input post.UpdateInput) (*post.PostInfo, error)
	// Delete は投稿を削除する。著者以外の呼び出しは拒否される。
	Delete(ctx context.Context, callerID, postID string) error
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service      PostServiceInterface
	defaultLimit int
	maxLimit     int
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, defaultLimit, maxLimit int) *PostHandler {
	return &PostHandler{
		service:      service,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// postCreateRequest は投稿作成リクエストのボディ。
// 著者フィールドは受け付けない。著者は常に認証済み呼び出し元になる。
type postCreateRequest struct {
	Text  string  `json:"text"`
	Group *string `json:"group"`
	Image *string `json:"image"`
}

// postUpdateRequest は投稿更新リクエストのボディ。
// 省略されたフィールドは変更しない。PUTとPATCHで共通。
type postUpdateRequest struct {
	Text  *string `json:"text"`
	Group *string `json:"group"`
	Image *string `json:"image"`
}

// postResponse は投稿のAPIレスポンス。authorはusernameで表す。
type postResponse struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
	Group   *string   `json:"group"`
	Image   *string   `json:"image"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Field    string `json:"field,omitempty"`
}

// ListPosts は投稿一覧をページネーション付きで取得する。認証不要。
// GET /v1/posts/
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r, h.defaultLimit, h.maxLimit)

	result, err := h.service.List(r.Context(), params.Limit, params.Offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]postResponse, len(result.Posts))
	for i, p := range result.Posts {
		results[i] = toPostResponse(&p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newPaginatedResponse(r, params, result.Count, results))
}

// GetPost は投稿詳細を取得する。認証不要。
// GET /v1/posts/:id/
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "post_id")

	p, err := h.service.Get(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// CreatePost は投稿を作成する。
// POST /v1/posts/
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	p, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Text:    req.Text,
		GroupID: req.Group,
		Image:   req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// UpdatePost は投稿を部分更新する。PUTとPATCHの両方で同じセマンティクスを持つ。
// PUT/PATCH /v1/posts/:id/
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "post_id")

	var req postUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	p, err := h.service.Update(r.Context(), userID, postID, post.UpdateInput{
		Text:    req.Text,
		GroupID: req.Group,
		Image:   req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// DeletePost は投稿を削除する。関連コメントも削除される。
// DELETE /v1/posts/:id/
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "post_id")

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toPostResponse はドメインオブジェクトからAPIレスポンスに変換する。
func toPostResponse(p *post.PostInfo) postResponse {
	return postResponse{
		ID:      p.ID,
		Author:  p.Author,
		Text:    p.Text,
		PubDate: p.PubDate,
		Group:   p.GroupID,
		Image:   p.Image,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Field:    apiErr.Field,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "an internal error occurred",
		Category: "system",
		Action:   "try again later",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound, model.ErrCodeCommentNotFound,
		model.ErrCodeGroupNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
