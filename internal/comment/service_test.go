package comment

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/security"
)

// --- モック ---

type mockCommentRepo struct {
	createFn       func(ctx context.Context, comment *model.Comment) error
	listByMovieFn  func(ctx context.Context, movieID string) ([]*model.Comment, error)
	listByAuthorFn func(ctx context.Context, authorEmail string) ([]*model.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return nil
}
func (m *mockCommentRepo) ListByMovie(ctx context.Context, movieID string) ([]*model.Comment, error) {
	if m.listByMovieFn != nil {
		return m.listByMovieFn(ctx, movieID)
	}
	return nil, nil
}
func (m *mockCommentRepo) ListByAuthor(ctx context.Context, authorEmail string) ([]*model.Comment, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorEmail)
	}
	return nil, nil
}

type mockMovieRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Movie, error)
}

func (m *mockMovieRepo) List(ctx context.Context, limit int) ([]*model.Movie, error) {
	return nil, nil
}
func (m *mockMovieRepo) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockMovieRepo) Create(ctx context.Context, movie *model.Movie) error { return nil }

type mockUserRepo struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) Exists(ctx context.Context, email string) (bool, error) { return false, nil }
func (m *mockUserRepo) ListProfiles(ctx context.Context) ([]model.UserProfile, error) {
	return nil, nil
}

type mockCommentMetrics struct {
	appendedCount int
}

func (m *mockCommentMetrics) RecordCommentAppended() { m.appendedCount++ }

func existingMovieRepo() *mockMovieRepo {
	return &mockMovieRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Movie, error) {
			return &model.Movie{ID: id, Title: "Metropolis"}, nil
		},
	}
}

func existingUserRepo() *mockUserRepo {
	return &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{Email: email, Name: "Alice"}, nil
		},
	}
}

// --- テスト ---

// TestService_Append はコメントが著者名を非正規化して保存されることを検証する。
func TestService_Append(t *testing.T) {
	var saved *model.Comment
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			saved = comment
			return nil
		},
	}
	metrics := &mockCommentMetrics{}

	svc := NewService(commentRepo, existingMovieRepo(), existingUserRepo(),
		security.NewCommentSanitizer(), metrics)

	created, err := svc.Append(context.Background(), "movie-1", "alice@example.com", "great movie")
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected comment to be saved")
	}
	if created.ID == "" {
		t.Error("expected generated comment ID")
	}
	if created.AuthorName != "Alice" {
		t.Errorf("expected denormalized author name Alice, got %q", created.AuthorName)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected server-side timestamp")
	}
	if metrics.appendedCount != 1 {
		t.Errorf("expected 1 appended metric, got %d", metrics.appendedCount)
	}
}

// TestService_Append_SanitizesHTML は本文からHTMLタグが除去されることを検証する。
func TestService_Append_SanitizesHTML(t *testing.T) {
	var saved *model.Comment
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			saved = comment
			return nil
		},
	}

	svc := NewService(commentRepo, existingMovieRepo(), existingUserRepo(),
		security.NewCommentSanitizer(), nil)

	_, err := svc.Append(context.Background(), "movie-1", "alice@example.com",
		`<script>alert("xss")</script>loved it`)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if saved.Text != "loved it" {
		t.Errorf("expected sanitized text %q, got %q", "loved it", saved.Text)
	}
}

// TestService_Append_UnknownMovie は存在しない映画へのコメントが拒否されることを検証する。
func TestService_Append_UnknownMovie(t *testing.T) {
	createCalled := false
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			createCalled = true
			return nil
		},
	}
	movieRepo := &mockMovieRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Movie, error) {
			return nil, nil
		},
	}

	svc := NewService(commentRepo, movieRepo, existingUserRepo(),
		security.NewCommentSanitizer(), nil)

	_, err := svc.Append(context.Background(), "missing-movie", "alice@example.com", "text")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnknownMovie {
		t.Fatalf("expected UnknownMovie error, got %v", err)
	}
	if createCalled {
		t.Error("orphan comment must not be created")
	}
}

// TestService_Append_EmptyText はサニタイズ後に空になる本文が拒否されることを検証する。
func TestService_Append_EmptyText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t "},
		{"markup only", "<b></b>"},
	}

	svc := NewService(&mockCommentRepo{}, existingMovieRepo(), existingUserRepo(),
		security.NewCommentSanitizer(), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Append(context.Background(), "movie-1", "alice@example.com", tt.text)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidComment {
				t.Fatalf("expected InvalidComment error, got %v", err)
			}
		})
	}
}

// TestService_ListForMovie は映画別コメント一覧の取得を検証する。
func TestService_ListForMovie(t *testing.T) {
	commentRepo := &mockCommentRepo{
		listByMovieFn: func(ctx context.Context, movieID string) ([]*model.Comment, error) {
			return []*model.Comment{
				{ID: "c1", MovieID: movieID},
				{ID: "c2", MovieID: movieID},
			}, nil
		},
	}

	svc := NewService(commentRepo, existingMovieRepo(), existingUserRepo(),
		security.NewCommentSanitizer(), nil)

	comments, err := svc.ListForMovie(context.Background(), "movie-1")
	if err != nil {
		t.Fatalf("ListForMovie returned error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
}
