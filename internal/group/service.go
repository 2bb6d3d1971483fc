// Package group はグループ（投稿コミュニティ）参照のドメインロジックを提供する。
// グループは管理操作でのみ作成され、APIからは読み取り専用で公開する。
package group

import (
	"context"
	"fmt"

	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/repository"
)

// GroupInfo はグループのドメインオブジェクト。
type GroupInfo struct {
	ID          string
	Title       string
	Slug        string
	Description string
}

// Service はグループ参照のサービス層。
type Service struct {
	groupRepo repository.GroupRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(groupRepo repository.GroupRepository) *Service {
	return &Service{groupRepo: groupRepo}
}

// List は全グループを返す。グループ一覧はページネーションしない。
func (s *Service) List(ctx context.Context) ([]GroupInfo, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("グループ一覧の取得に失敗しました: %w", err)
	}

	infos := make([]GroupInfo, len(groups))
	for i, g := range groups {
		infos[i] = toGroupInfo(g)
	}
	return infos, nil
}

// Get は指定IDのグループを返す。存在しない場合はGROUP_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*GroupInfo, error) {
	g, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("グループの取得に失敗しました: %w", err)
	}
	if g == nil {
		return nil, model.NewGroupNotFoundError(id)
	}
	info := toGroupInfo(g)
	return &info, nil
}

func toGroupInfo(g *model.Group) GroupInfo {
	return GroupInfo{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
	}
}
