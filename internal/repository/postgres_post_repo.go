package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tubuyaki/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// List は投稿を著者username付きでpub_date降順、limit/offsetページネーションで返す。
func (r *PostgresPostRepo) List(ctx context.Context, limit, offset int) ([]PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.author_id, p.text, p.pub_date, p.group_id, p.image, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.pub_date DESC, p.id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []PostWithAuthor
	for rows.Next() {
		var post PostWithAuthor
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Text, &post.PubDate, &post.GroupID, &post.Image, &post.AuthorUsername); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Count は投稿の総数を返す。
func (r *PostgresPostRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// FindByID は指定IDの投稿を著者username付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*PostWithAuthor, error) {
	post := &PostWithAuthor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.author_id, p.text, p.pub_date, p.group_id, p.image, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		id,
	).Scan(&post.ID, &post.AuthorID, &post.Text, &post.PubDate, &post.GroupID, &post.Image, &post.AuthorUsername)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return post, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, text, pub_date, group_id, image)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.AuthorID, post.Text, post.PubDate, post.GroupID, post.Image,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は投稿のtext、group_id、imageを上書き更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET text = $2, group_id = $3, image = $4 WHERE id = $1`,
		post.ID, post.Text, post.GroupID, post.Image,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete は指定IDの投稿を削除する。関連コメントはCASCADE削除される。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
