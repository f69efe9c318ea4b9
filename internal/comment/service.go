// Package comment は映画コメントの追記専用台帳を提供する。
//
// コメントは作成後に変更されない。認可（認証済みセッションであること）は
// 呼び出し側がauthパッケージのゲートで保証する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/repository"
	"github.com/hitoshi/cinelog/internal/security"
)

// MetricsRecorder はコメントイベントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCommentAppended()
}

// Service はコメント台帳のビジネスロジックを提供する。
type Service struct {
	commentRepo repository.CommentRepository
	movieRepo   repository.MovieRepository
	userRepo    repository.UserRepository
	sanitizer   security.CommentSanitizerService
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	commentRepo repository.CommentRepository,
	movieRepo repository.MovieRepository,
	userRepo repository.UserRepository,
	sanitizer security.CommentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		movieRepo:   movieRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// ListForMovie は指定映画のコメントを作成時刻順で返す。
func (s *Service) ListForMovie(ctx context.Context, movieID string) ([]*model.Comment, error) {
	comments, err := s.commentRepo.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for movie: %w", err)
	}
	return comments, nil
}

// ListForUser は指定ユーザーが書いたコメントを作成時刻順で返す。
func (s *Service) ListForUser(ctx context.Context, authorEmail string) ([]*model.Comment, error) {
	comments, err := s.commentRepo.ListByAuthor(ctx, authorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for user: %w", err)
	}
	return comments, nil
}

// Append は新しいコメントを作成して返す。
// 本文はサニタイズされ、空になった場合はInvalidCommentを返す。
// 対象の映画が存在しない場合はUnknownMovieを返す（孤児コメントは拒否する）。
// 著者名は書き込み時点のユーザー名から非正規化し、作成時刻はサーバー時計で刻印する。
func (s *Service) Append(ctx context.Context, movieID, authorEmail, text string) (*model.Comment, error) {
	sanitized := s.sanitizer.Sanitize(text)
	if sanitized == "" {
		return nil, model.NewInvalidCommentError()
	}

	movie, err := s.movieRepo.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve movie: %w", err)
	}
	if movie == nil {
		return nil, model.NewUnknownMovieError(movieID)
	}

	author, err := s.userRepo.FindByEmail(ctx, authorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}

	newComment := &model.Comment{
		ID:          uuid.New().String(),
		MovieID:     movie.ID,
		AuthorEmail: author.Email,
		AuthorName:  author.Name,
		Text:        sanitized,
		CreatedAt:   time.Now(),
	}

	if err := s.commentRepo.Create(ctx, newComment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCommentAppended()
	}

	slog.Info("comment appended",
		slog.String("movie_id", movie.ID),
		slog.String("author_email", author.Email),
	)

	return newComment, nil
}
