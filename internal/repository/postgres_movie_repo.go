package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/cinelog/internal/model"
)

// PostgresMovieRepo はPostgreSQLを使用した映画カタログリポジトリ。
type PostgresMovieRepo struct {
	db *sql.DB
}

// NewPostgresMovieRepo はPostgresMovieRepoを生成する。
func NewPostgresMovieRepo(db *sql.DB) *PostgresMovieRepo {
	return &PostgresMovieRepo{db: db}
}

// List は最大limit件の映画をストアのデフォルト順で返す。
// ORDER BYは指定しない。並び順は未規定であり、安定であることは保証しない。
func (r *PostgresMovieRepo) List(ctx context.Context, limit int) ([]*model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, year, plot, genres, created_at
		 FROM movies
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*model.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movies: %w", err)
	}

	return movies, nil
}

// FindByID は指定IDの映画を取得する。見つからない場合はnilを返す。
func (r *PostgresMovieRepo) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	movie := &model.Movie{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, year, plot, genres, created_at
		 FROM movies WHERE id = $1`,
		id,
	).Scan(&movie.ID, &movie.Title, &movie.Year, &movie.Plot,
		pq.Array(&movie.Genres), &movie.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie by ID: %w", err)
	}

	return movie, nil
}

// Create は映画を作成する。カタログ取込（seedサブコマンド）専用。
func (r *PostgresMovieRepo) Create(ctx context.Context, movie *model.Movie) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (id, title, year, plot, genres, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		movie.ID, movie.Title, movie.Year, movie.Plot,
		pq.Array(movie.Genres), movie.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// scanMovie は結果セットの現在行からMovieを組み立てる。
func scanMovie(rows *sql.Rows) (*model.Movie, error) {
	movie := &model.Movie{}
	err := rows.Scan(&movie.ID, &movie.Title, &movie.Year, &movie.Plot,
		pq.Array(&movie.Genres), &movie.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}
	return movie, nil
}

// compile-time interface check
var _ MovieRepository = (*PostgresMovieRepo)(nil)
