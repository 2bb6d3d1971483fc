package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tubuyaki/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListByPostID は指定投稿に紐づくコメントを著者username付きでcreated昇順で返す。
func (r *PostgresCommentRepo) ListByPostID(ctx context.Context, postID string) ([]CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.author_id, c.post_id, c.text, c.created, u.username
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = $1
		 ORDER BY c.created, c.id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []CommentWithAuthor
	for rows.Next() {
		var comment CommentWithAuthor
		if err := rows.Scan(&comment.ID, &comment.AuthorID, &comment.PostID, &comment.Text, &comment.Created, &comment.AuthorUsername); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// FindByID は指定IDのコメントを著者username付きで取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*CommentWithAuthor, error) {
	comment := &CommentWithAuthor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT c.id, c.author_id, c.post_id, c.text, c.created, u.username
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.id = $1`,
		id,
	).Scan(&comment.ID, &comment.AuthorID, &comment.PostID, &comment.Text, &comment.Created, &comment.AuthorUsername)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment by ID: %w", err)
	}

	return comment, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, author_id, post_id, text, created)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.AuthorID, comment.PostID, comment.Text, comment.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// Update はコメントのtextを上書き更新する。
func (r *PostgresCommentRepo) Update(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE comments SET text = $2 WHERE id = $1`,
		comment.ID, comment.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// Delete は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
