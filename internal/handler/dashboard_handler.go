package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/cinelog/internal/auth"
	"github.com/hitoshi/cinelog/internal/middleware"
	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/view"
)

// dashboardMovieLimit はダッシュボードに表示する映画の最大件数。
const dashboardMovieLimit = 20

// AuthGateInterface は保護されたハンドラーが必要とする認可ゲートのインターフェース。
type AuthGateInterface interface {
	// RequireAuthentication は認可判定を返す。拒否時は戻り先URLを記録する。
	RequireAuthentication(ctx context.Context, sessionID, requestedURL string) (auth.Decision, error)
	// CurrentUser はセッションの認証済みユーザーを取得する。
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// CatalogServiceInterface はカタログ参照のインターフェース。
type CatalogServiceInterface interface {
	List(ctx context.Context, limit int) ([]*model.Movie, error)
	Get(ctx context.Context, id string) (*model.Movie, error)
}

// CommentServiceInterface はコメント台帳のインターフェース。
type CommentServiceInterface interface {
	Append(ctx context.Context, movieID, authorEmail, text string) (*model.Comment, error)
	ListForMovie(ctx context.Context, movieID string) ([]*model.Comment, error)
	ListForUser(ctx context.Context, authorEmail string) ([]*model.Comment, error)
}

// movieResponse は映画情報のレスポンス表現。
type movieResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Plot   string   `json:"plot"`
	Genres []string `json:"genres"`
}

// commentResponse はコメントのレスポンス表現。
type commentResponse struct {
	ID         string    `json:"id"`
	MovieID    string    `json:"movie_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMovieResponse(m *model.Movie) movieResponse {
	return movieResponse{
		ID:     m.ID,
		Title:  m.Title,
		Year:   m.Year,
		Plot:   m.Plot,
		Genres: m.Genres,
	}
}

func toMovieResponses(movies []*model.Movie) []movieResponse {
	res := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		res = append(res, toMovieResponse(m))
	}
	return res
}

func toCommentResponses(comments []*model.Comment) []commentResponse {
	res := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, commentResponse{
			ID:         c.ID,
			MovieID:    c.MovieID,
			AuthorName: c.AuthorName,
			Text:       c.Text,
			CreatedAt:  c.CreatedAt,
		})
	}
	return res
}

// DashboardHandler はダッシュボード画面のHTTPハンドラー。
type DashboardHandler struct {
	gate           AuthGateInterface
	catalogService CatalogServiceInterface
	commentService CommentServiceInterface
	renderer       view.Renderer
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(
	gate AuthGateInterface,
	catalogService CatalogServiceInterface,
	commentService CommentServiceInterface,
	renderer view.Renderer,
) *DashboardHandler {
	return &DashboardHandler{
		gate:           gate,
		catalogService: catalogService,
		commentService: commentService,
		renderer:       renderer,
	}
}

// Show はダッシュボードの描画指示を返す。
// GET /dashboard
// 未認証の場合は戻り先URLを記録したうえでログインページへリダイレクトする。
// 認証済みの場合はプロフィール、映画一覧（最大20件）、自分のコメント一覧を返す。
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	decision, err := h.gate.RequireAuthentication(r.Context(), session.ID, r.URL.RequestURI())
	if err != nil {
		slog.Error("authorization gate failed", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}
	if !decision.Allowed {
		http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
		return
	}

	currentUser, err := h.gate.CurrentUser(r.Context(), session.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	movies, err := h.catalogService.List(r.Context(), dashboardMovieLimit)
	if err != nil {
		slog.Error("failed to list movies", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	myComments, err := h.commentService.ListForUser(r.Context(), decision.Identity)
	if err != nil {
		slog.Error("failed to list user comments", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	h.renderer.Render(w, http.StatusOK, view.Result{
		View: "dashboard",
		Data: map[string]any{
			"user": map[string]any{
				"email": currentUser.Email,
				"name":  currentUser.Name,
			},
			"movies":      toMovieResponses(movies),
			"my_comments": toCommentResponses(myComments),
		},
	})
}
