package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/tubuyaki/internal/follow"
	"github.com/hitoshi/tubuyaki/internal/middleware"
	"github.com/hitoshi/tubuyaki/internal/model"
)

// FollowServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type FollowServiceInterface interface {
	// List は呼び出し元のフォロー一覧を返す。searchで対象usernameを部分一致検索する。
	List(ctx context.Context, callerID, search string) ([]follow.FollowInfo, error)
	// Create は呼び出し元をsubscriberとしてフォロー関係を作成する。
	Create(ctx context.Context, callerID, followingUsername string) (*follow.FollowInfo, error)
}

// FollowHandler はフォロー管理のHTTPハンドラー。
// フォロー関係は作成者本人にのみ可視で、一覧も作成も認証が必須。
type FollowHandler struct {
	service FollowServiceInterface
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service FollowServiceInterface) *FollowHandler {
	return &FollowHandler{
		service: service,
	}
}

// followCreateRequest はフォロー作成リクエストのボディ。
// userフィールドは受け付けない。subscriberは常に認証済み呼び出し元になる。
type followCreateRequest struct {
	Following string `json:"following"`
}

// followResponse はフォロー関係のAPIレスポンス。双方をusernameで表す。
type followResponse struct {
	User      string `json:"user"`
	Following string `json:"following"`
}

// ListFollows は呼び出し元のフォロー一覧を取得する。
// GET /v1/follow/?search=
func (h *FollowHandler) ListFollows(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	search := r.URL.Query().Get("search")

	follows, err := h.service.List(r.Context(), userID, search)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]followResponse, len(follows))
	for i, f := range follows {
		results[i] = followResponse{User: f.User, Following: f.Following}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// CreateFollow はフォロー関係を作成する。
// POST /v1/follow/
func (h *FollowHandler) CreateFollow(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req followCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Following == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("following", "following must not be empty"))
		return
	}

	f, err := h.service.Create(r.Context(), userID, req.Following)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(followResponse{User: f.User, Following: f.Following})
}
