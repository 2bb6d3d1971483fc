// Package follow はフォロー関係管理のドメインロジックを提供する。
package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/tubuyaki/internal/metrics"
	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/repository"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pgUniqueViolation = "23505"

// FollowInfo はフォロー関係のドメインオブジェクト。双方をusernameで表す。
type FollowInfo struct {
	User      string
	Following string
}

// Service はフォロー管理のサービス層。
// フォロー関係は作成者（subscriber）本人にのみ可視で、書き込みもsubscriberのみが行う。
type Service struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	recorder   metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		followRepo: followRepo,
		userRepo:   userRepo,
		recorder:   recorder,
	}
}

// List は呼び出し元のフォロー一覧を返す。
// searchが空でない場合、フォロー対象usernameの部分一致で絞り込む。
func (s *Service) List(ctx context.Context, callerID, search string) ([]FollowInfo, error) {
	rows, err := s.followRepo.ListBySubscriber(ctx, callerID, search)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}

	follows := make([]FollowInfo, len(rows))
	for i, row := range rows {
		follows[i] = FollowInfo{
			User:      row.Username,
			Following: row.FollowingUsername,
		}
	}
	return follows, nil
}

// Create は呼び出し元をsubscriberとしてフォロー関係を作成する。
// バリデーションは次の順で行う:
//  1. 対象usernameが実在するユーザーに解決できること
//  2. 対象が呼び出し元自身でないこと
//  3. (呼び出し元, 対象)の組が未登録であること
//
// 存在チェックはベストエフォートの事前チェックであり、並行リクエストの競合は
// データストアの一意制約が最終的に防ぐ。制約違反は重複フォローとして扱う。
func (s *Service) Create(ctx context.Context, callerID, followingUsername string) (*FollowInfo, error) {
	target, err := s.userRepo.FindByUsername(ctx, followingUsername)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if target == nil {
		return nil, model.NewFollowTargetNotFoundError()
	}

	if target.ID == callerID {
		return nil, model.NewSelfFollowError()
	}

	exists, err := s.followRepo.Exists(ctx, callerID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("フォロー関係の確認に失敗しました: %w", err)
	}
	if exists {
		return nil, model.NewAlreadyFollowingError()
	}

	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if caller == nil {
		return nil, model.NewUnauthorizedError()
	}

	follow := &model.Follow{
		ID:          uuid.NewString(),
		UserID:      callerID,
		FollowingID: target.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			// 事前チェックとINSERTの間に並行リクエストが同じ組を登録したケース
			return nil, model.NewAlreadyFollowingError()
		}
		return nil, fmt.Errorf("フォロー関係の作成に失敗しました: %w", err)
	}

	s.recorder.RecordFollowCreated()

	return &FollowInfo{
		User:      caller.Username,
		Following: target.Username,
	}, nil
}
