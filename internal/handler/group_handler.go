package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tubuyaki/internal/group"
)

// GroupServiceInterface はグループハンドラーが必要とするサービスインターフェース。
// グループはAPIからは読み取り専用。
type GroupServiceInterface interface {
	// List は全グループを返す。
	List(ctx context.Context) ([]group.GroupInfo, error)
	// Get は指定IDのグループを返す。
	Get(ctx context.Context, id string) (*group.GroupInfo, error)
}

// GroupHandler はグループ参照のHTTPハンドラー。
type GroupHandler struct {
	service GroupServiceInterface
}

// NewGroupHandler はGroupHandlerを生成する。
func NewGroupHandler(service GroupServiceInterface) *GroupHandler {
	return &GroupHandler{
		service: service,
	}
}

// groupResponse はグループのAPIレスポンス。
type groupResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// ListGroups はグループ一覧を取得する。認証不要。
// GET /v1/groups/
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]groupResponse, len(groups))
	for i, g := range groups {
		results[i] = toGroupResponse(&g)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetGroup はグループ詳細を取得する。認証不要。
// GET /v1/groups/:id/
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	g, err := h.service.Get(r.Context(), groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGroupResponse(g))
}

// toGroupResponse はドメインオブジェクトからAPIレスポンスに変換する。
func toGroupResponse(g *group.GroupInfo) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
	}
}
