// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/tubuyaki/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はusernameでユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// PostWithAuthor は投稿と著者usernameを結合した構造体。
type PostWithAuthor struct {
	model.Post
	AuthorUsername string
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// List は投稿を著者username付きでpub_date降順、limit/offsetページネーションで返す。
	List(ctx context.Context, limit, offset int) ([]PostWithAuthor, error)

	// Count は投稿の総数を返す。ページネーションのcount算出に使用する。
	Count(ctx context.Context) (int, error)

	// FindByID は指定IDの投稿を著者username付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*PostWithAuthor, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿のtext、group_id、imageを上書き更新する。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの投稿を削除する。関連コメントはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// CommentWithAuthor はコメントと著者usernameを結合した構造体。
type CommentWithAuthor struct {
	model.Comment
	AuthorUsername string
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPostID は指定投稿に紐づくコメントを著者username付きでcreated昇順で返す。
	ListByPostID(ctx context.Context, postID string) ([]CommentWithAuthor, error)

	// FindByID は指定IDのコメントを著者username付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*CommentWithAuthor, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Update はコメントのtextを上書き更新する。
	Update(ctx context.Context, comment *model.Comment) error

	// Delete は指定IDのコメントを削除する。
	Delete(ctx context.Context, id string) error
}

// GroupRepository はグループデータの読み取りインターフェース。
// グループはこのAPIからは読み取り専用の静的参照データのため、書き込みメソッドを持たない。
type GroupRepository interface {
	// List は全グループをtitle昇順で返す。
	List(ctx context.Context) ([]*model.Group, error)

	// FindByID は指定IDのグループを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Group, error)
}

// FollowWithTarget はフォロー関係とフォロワー・対象のusernameを結合した構造体。
type FollowWithTarget struct {
	model.Follow
	Username          string // フォローする側のusername
	FollowingUsername string // フォローされる側のusername
}

// FollowRepository はフォロー関係の永続化インターフェース。
type FollowRepository interface {
	// ListBySubscriber は指定ユーザーがフォローしている関係を対象username付きで返す。
	// searchが空でない場合、対象usernameの部分一致（大文字小文字無視）で絞り込む。
	ListBySubscriber(ctx context.Context, userID, search string) ([]FollowWithTarget, error)

	// Exists は(userID, followingID)のフォロー関係が存在するかを返す。
	Exists(ctx context.Context, userID, followingID string) (bool, error)

	// Create はフォロー関係を作成する。
	// (user_id, following_id)の一意制約違反はそのままエラーとして返す。
	Create(ctx context.Context, follow *model.Follow) error
}
