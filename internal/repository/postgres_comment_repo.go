package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cinelog/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
// コメントは追記専用のため、UPDATE・DELETEは発行しない。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, movie_id, author_email, author_name, text, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.MovieID, comment.AuthorEmail, comment.AuthorName,
		comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListByMovie は指定映画のコメントを作成時刻順で返す。
func (r *PostgresCommentRepo) ListByMovie(ctx context.Context, movieID string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, movie_id, author_email, author_name, text, created_at
		 FROM comments
		 WHERE movie_id = $1
		 ORDER BY created_at, id`,
		movieID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by movie: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// ListByAuthor は指定ユーザーが書いたコメントを作成時刻順で返す。
func (r *PostgresCommentRepo) ListByAuthor(ctx context.Context, authorEmail string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, movie_id, author_email, author_name, text, created_at
		 FROM comments
		 WHERE author_email = $1
		 ORDER BY created_at, id`,
		authorEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by author: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// scanComments は結果セット全体をCommentのスライスへ変換する。
func scanComments(rows *sql.Rows) ([]*model.Comment, error) {
	var comments []*model.Comment
	for rows.Next() {
		c := &model.Comment{}
		err := rows.Scan(&c.ID, &c.MovieID, &c.AuthorEmail, &c.AuthorName,
			&c.Text, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
