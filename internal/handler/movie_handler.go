package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cinelog/internal/middleware"
	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/view"
)

// MovieHandler は映画詳細ページとコメント投稿のHTTPハンドラー。
type MovieHandler struct {
	gate           AuthGateInterface
	catalogService CatalogServiceInterface
	commentService CommentServiceInterface
	renderer       view.Renderer
}

// NewMovieHandler はMovieHandlerを生成する。
func NewMovieHandler(
	gate AuthGateInterface,
	catalogService CatalogServiceInterface,
	commentService CommentServiceInterface,
	renderer view.Renderer,
) *MovieHandler {
	return &MovieHandler{
		gate:           gate,
		catalogService: catalogService,
		commentService: commentService,
		renderer:       renderer,
	}
}

// Show は映画詳細の描画指示を返す。
// GET /movie/{id}
// 未認証の場合は戻り先URLを記録したうえでログインページへリダイレクトする。
// IDが不正または未登録の場合は404を返す（両者は区別されない）。
func (h *MovieHandler) Show(w http.ResponseWriter, r *http.Request) {
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

	movieID := chi.URLParam(r, "id")

	movie, err := h.catalogService.Get(r.Context(), movieID)
	if err != nil {
		slog.Error("failed to get movie", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}
	if movie == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMovieNotFoundError(movieID))
		return
	}

	comments, err := h.commentService.ListForMovie(r.Context(), movie.ID)
	if err != nil {
		slog.Error("failed to list movie comments", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	h.renderer.Render(w, http.StatusOK, view.Result{
		View: "movie",
		Data: map[string]any{
			"movie":    toMovieResponse(movie),
			"comments": toCommentResponses(comments),
		},
	})
}

// AppendComment はコメント投稿を処理する。
// POST /movie/{id}/comments
// 成功時は対象の映画ページへ303でリダイレクトする（redirect-after-write）。
// リロードによる二重投稿をフォーム再送信ではなく再読み取りにする。
// 未認証の場合、戻り先にはPOST専用のこのURLではなくGETできる映画ページを
// 記録する。ログイン後のリダイレクトはGETで行われるため。
func (h *MovieHandler) AppendComment(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	movieID := chi.URLParam(r, "id")

	decision, err := h.gate.RequireAuthentication(r.Context(), session.ID, "/movie/"+movieID)
	if err != nil {
		slog.Error("authorization gate failed", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}
	if !decision.Allowed {
		http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("フォームの解析に失敗しました"))
		return
	}

	text := r.PostFormValue("text")

	if _, err := h.commentService.Append(r.Context(), movieID, decision.Identity, text); err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/movie/"+movieID, http.StatusSeeOther)
}
