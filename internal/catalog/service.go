// Package catalog は映画カタログの読み取り専用アクセスを提供する。
//
// カタログの行の追加・更新はコアの責務ではなく、外部の取込プロセス
// （seedサブコマンドが代替する）が所有する。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/repository"
)

// Service は映画カタログへの読み取りアクセスを提供する。
type Service struct {
	movieRepo repository.MovieRepository
}

// NewService はServiceを生成する。
func NewService(movieRepo repository.MovieRepository) *Service {
	return &Service{movieRepo: movieRepo}
}

// List は最大limit件の映画を返す。並び順はストア依存で未規定。
func (s *Service) List(ctx context.Context, limit int) ([]*model.Movie, error) {
	if limit <= 0 {
		return nil, nil
	}
	movies, err := s.movieRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// Get は指定IDの映画を返す。見つからない場合はnilを返す。
// IDがUUIDとして構文的に不正な場合もnilを返し、未登録IDと区別しない。
// いずれもハンドラー層でNotFoundとして扱われる。
func (s *Service) Get(ctx context.Context, id string) (*model.Movie, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	movie, err := s.movieRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// movieSeed はseed入力JSONの1エントリを表す。
type movieSeed struct {
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Plot   string   `json:"plot"`
	Genres []string `json:"genres"`
}

// ImportJSON はJSON配列形式のカタログデータを読み込んで登録し、件数を返す。
// 外部カタログ取込プロセスの代替としてseedサブコマンドから呼ばれる。
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var seeds []movieSeed
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return 0, fmt.Errorf("failed to decode seed JSON: %w", err)
	}

	imported := 0
	for _, seed := range seeds {
		if seed.Title == "" {
			return imported, fmt.Errorf("seed entry %d: title is required", imported)
		}

		movie := &model.Movie{
			ID:        uuid.New().String(),
			Title:     seed.Title,
			Year:      seed.Year,
			Plot:      seed.Plot,
			Genres:    seed.Genres,
			CreatedAt: time.Now(),
		}
		if err := s.movieRepo.Create(ctx, movie); err != nil {
			return imported, fmt.Errorf("failed to import movie %q: %w", seed.Title, err)
		}
		imported++
	}

	slog.Info("catalog seeded", slog.Int("movies", imported))
	return imported, nil
}
