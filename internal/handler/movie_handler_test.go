package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/view"
)

// newMovieRouter はURLパラメータ解決のためchi経由でハンドラーを配線する。
func newMovieRouter(h *MovieHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/movie/{id}", h.Show)
	r.Post("/movie/{id}/comments", h.AppendComment)
	return r
}

// --- テスト ---

// TestMovieHandler_Show は映画詳細とコメント一覧が返ることを検証する。
func TestMovieHandler_Show(t *testing.T) {
	catalogService := &mockCatalogService{
		getFn: func(ctx context.Context, id string) (*model.Movie, error) {
			return &model.Movie{ID: id, Title: "Metropolis", Year: 1927}, nil
		},
	}
	commentService := &mockCommentService{
		listForMovieFn: func(ctx context.Context, movieID string) ([]*model.Comment, error) {
			return []*model.Comment{{ID: "c1", MovieID: movieID, AuthorName: "Alice", Text: "great"}}, nil
		},
	}

	h := NewMovieHandler(&mockAuthGate{}, catalogService, commentService, view.NewJSONRenderer())
	router := newMovieRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/movie/m1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	result := decodeViewResult(t, rec)
	if result.View != "movie" {
		t.Errorf("expected view movie, got %q", result.View)
	}
	if _, ok := result.Data["movie"]; !ok {
		t.Error("expected movie in view data")
	}
	if _, ok := result.Data["comments"]; !ok {
		t.Error("expected comments in view data")
	}
}

// TestMovieHandler_Show_NotFound は未登録IDで404が返ることを検証する。
func TestMovieHandler_Show_NotFound(t *testing.T) {
	catalogService := &mockCatalogService{
		getFn: func(ctx context.Context, id string) (*model.Movie, error) {
			return nil, nil
		},
	}

	h := NewMovieHandler(&mockAuthGate{}, catalogService, &mockCommentService{}, view.NewJSONRenderer())
	router := newMovieRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/movie/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// TestMovieHandler_Show_Denied は匿名セッションがログインページへ
// リダイレクトされることを検証する。
func TestMovieHandler_Show_Denied(t *testing.T) {
	gate := denyGate()

	h := NewMovieHandler(gate, &mockCatalogService{}, &mockCommentService{}, view.NewJSONRenderer())
	router := newMovieRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/movie/m1", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if len(gate.recordedReturns) != 1 || gate.recordedReturns[0] != "/movie/m1" {
		t.Errorf("expected requested URL /movie/m1 to be recorded, got %v", gate.recordedReturns)
	}
}

// TestMovieHandler_AppendComment は投稿成功後に映画ページへ
// リダイレクトされることを検証する（redirect-after-write）。
func TestMovieHandler_AppendComment(t *testing.T) {
	var appendedMovieID, appendedAuthor, appendedText string
	commentService := &mockCommentService{
		appendFn: func(ctx context.Context, movieID, authorEmail, text string) (*model.Comment, error) {
			appendedMovieID = movieID
			appendedAuthor = authorEmail
			appendedText = text
			return &model.Comment{ID: "c1", MovieID: movieID}, nil
		},
	}

	h := NewMovieHandler(&mockAuthGate{}, &mockCatalogService{}, commentService, view.NewJSONRenderer())
	router := newMovieRouter(h)

	form := url.Values{"text": {"great movie"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodPost, "/movie/m1/comments", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/movie/m1" {
		t.Errorf("expected redirect to /movie/m1, got %q", loc)
	}
	if appendedMovieID != "m1" || appendedAuthor != "alice@example.com" || appendedText != "great movie" {
		t.Errorf("unexpected append arguments: movie=%q author=%q text=%q",
			appendedMovieID, appendedAuthor, appendedText)
	}
}

// TestMovieHandler_AppendComment_Denied は匿名セッションからの投稿が拒否され、
// 戻り先としてPOST専用のコメントURLではなく映画ページのURLが記録されることを
// 検証する。ログイン後の303リダイレクトはGETなので、POSTしか受けないURLを
// 記録するとログイン後に405で行き止まりになる。
func TestMovieHandler_AppendComment_Denied(t *testing.T) {
	gate := denyGate()

	h := NewMovieHandler(gate, &mockCatalogService{}, &mockCommentService{}, view.NewJSONRenderer())
	router := newMovieRouter(h)

	form := url.Values{"text": {"late comment"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodPost, "/movie/m1/comments", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
	if len(gate.recordedReturns) != 1 || gate.recordedReturns[0] != "/movie/m1" {
		t.Errorf("expected viewable page /movie/m1 to be recorded, got %v", gate.recordedReturns)
	}
}

// TestMovieHandler_AppendComment_UnknownMovie は存在しない映画への投稿が
// 404になることを検証する。
func TestMovieHandler_AppendComment_UnknownMovie(t *testing.T) {
	commentService := &mockCommentService{
		appendFn: func(ctx context.Context, movieID, authorEmail, text string) (*model.Comment, error) {
			return nil, model.NewUnknownMovieError(movieID)
		},
	}

	h := NewMovieHandler(&mockAuthGate{}, &mockCatalogService{}, commentService, view.NewJSONRenderer())
	router := newMovieRouter(h)

	form := url.Values{"text": {"orphan"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodPost, "/movie/missing/comments", form))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
