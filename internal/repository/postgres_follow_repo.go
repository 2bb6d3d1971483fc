package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tubuyaki/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// ListBySubscriber は指定ユーザーがフォローしている関係を対象username付きで返す。
// searchが空でない場合、対象usernameの部分一致（大文字小文字無視）で絞り込む。
func (r *PostgresFollowRepo) ListBySubscriber(ctx context.Context, userID, search string) ([]FollowWithTarget, error) {
	query := `SELECT f.id, f.user_id, f.following_id, f.created_at, u.username, t.username
		 FROM follows f
		 JOIN users u ON u.id = f.user_id
		 JOIN users t ON t.id = f.following_id
		 WHERE f.user_id = $1`
	args := []any{userID}

	if search != "" {
		query += ` AND t.username ILIKE '%' || $2 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY f.created_at, f.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var follows []FollowWithTarget
	for rows.Next() {
		var f FollowWithTarget
		if err := rows.Scan(&f.ID, &f.UserID, &f.FollowingID, &f.CreatedAt, &f.Username, &f.FollowingUsername); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follows: %w", err)
	}

	return follows, nil
}

// Exists は(userID, followingID)のフォロー関係が存在するかを返す。
func (r *PostgresFollowRepo) Exists(ctx context.Context, userID, followingID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND following_id = $2)`,
		userID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// Create はフォロー関係を作成する。
// (user_id, following_id)の一意制約違反はそのままエラーとして返し、
// 呼び出し元（サービス層）で重複フォローとして解釈する。
func (r *PostgresFollowRepo) Create(ctx context.Context, follow *model.Follow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (id, user_id, following_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		follow.ID, follow.UserID, follow.FollowingID, follow.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
