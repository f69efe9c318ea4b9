package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cinelog/internal/middleware"
	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするセッション操作のインターフェース。
type AuthServiceInterface interface {
	// Authenticate はemailとパスワードを検証し、成功時にセッションへidentityを
	// 設定して再発行後のセッションIDを返す。
	Authenticate(ctx context.Context, sessionID, email, password string) (string, error)
	// EstablishIdentity は認証を経ずにセッションへidentityを設定し、
	// 再発行後のセッションIDを返す（サインアップ直後用）。
	EstablishIdentity(ctx context.Context, sessionID, email string) (string, error)
	// ConsumeReturnTo は戻り先URLを読み取ってクリアする。未設定時は空文字列。
	ConsumeReturnTo(ctx context.Context, sessionID string) (string, error)
	// SetTransientError は次の1回のレンダリングでのみ表示されるエラーフラグを設定する。
	SetTransientError(ctx context.Context, sessionID string) error
	// TakeTransientError はエラーフラグを読み取ってクリアする。
	TakeTransientError(ctx context.Context, sessionID string) (bool, error)
	// EndSession はidentityと残存するワンショット値をクリアする。
	EndSession(ctx context.Context, sessionID string) error
}

// SignupServiceInterface はサインアップ処理のインターフェース。
type SignupServiceInterface interface {
	Signup(ctx context.Context, email, name, password string) (*model.User, error)
}

// SignupMetricsRecorder はサインアップ成功のメトリクス記録インターフェース。
type SignupMetricsRecorder interface {
	RecordSignup()
}

// AuthHandler はログイン・サインアップ・ログアウトのHTTPハンドラー。
// cookieはセッションID再発行時のCookie更新に使う（ミドルウェアと同一設定）。
type AuthHandler struct {
	authService   AuthServiceInterface
	signupService SignupServiceInterface
	renderer      view.Renderer
	cookie        middleware.SessionCookieConfig
	metrics       SignupMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilを許容する。
func NewAuthHandler(
	authService AuthServiceInterface,
	signupService SignupServiceInterface,
	renderer view.Renderer,
	cookie middleware.SessionCookieConfig,
	metrics SignupMetricsRecorder,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		signupService: signupService,
		renderer:      renderer,
		cookie:        cookie,
		metrics:       metrics,
	}
}

// ShowLogin はログインフォームの描画指示を返す。
// GET /login
// セッションの一時エラーフラグを消費し、直前のログイン失敗を1回だけ表示する。
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	hadError, err := h.authService.TakeTransientError(r.Context(), session.ID)
	if err != nil {
		slog.Error("failed to take transient error", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	h.renderer.Render(w, http.StatusOK, view.Result{
		View: "login",
		Data: map[string]any{
			"error": hadError,
		},
	})
}

// Login はログインフォームの送信を処理する。
// POST /login
// 成功時はセッションIDを再発行したCookieを設定し、記録済みの戻り先URL
// （無ければ/dashboard）へ303でリダイレクトする。
// 認証失敗時は一時エラーフラグを設定して/loginへリダイレクトする
// （失敗メッセージはリダイレクト後の1回のレンダリングでのみ表示される）。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("フォームの解析に失敗しました"))
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	newSessionID, err := h.authService.Authenticate(r.Context(), session.ID, email, password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredentials {
			if err := h.authService.SetTransientError(r.Context(), session.ID); err != nil {
				slog.Error("failed to set transient error", slog.String("error", err.Error()))
				writeInternalServerError(w)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		handleServiceError(w, err)
		return
	}

	middleware.SetSessionCookie(w, newSessionID, h.cookie)

	// 戻り先URLはID再発行後の行に引き継がれている
	target, err := h.authService.ConsumeReturnTo(r.Context(), newSessionID)
	if err != nil {
		slog.Error("failed to consume return-to URL", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}
	if target == "" {
		target = "/dashboard"
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ShowSignup はサインアップフォームの描画指示を返す。
// GET /sign-up
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.Result{
		View: "sign_up",
		Data: map[string]any{},
	})
}

// Signup はサインアップフォームの送信を処理する。
// POST /sign-up
// 成功時はセッションへidentityを設定し（サインアップは同時にログインを意味する）、
// 再発行したセッションIDのCookieを設定して/dashboardへ303でリダイレクトする。
// 重複・入力不正の場合はリダイレクトせず、エラー付きのフォーム描画指示を直接返す。
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("フォームの解析に失敗しました"))
		return
	}

	email := r.PostFormValue("email")
	name := r.PostFormValue("name")
	password := r.PostFormValue("password")

	newUser, err := h.signupService.Signup(r.Context(), email, name, password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Code == model.ErrCodeDuplicateUser || apiErr.Code == model.ErrCodeInvalidRequest) {
			h.renderer.Render(w, mapAPIErrorToHTTPStatus(apiErr), view.Result{
				View: "sign_up",
				Data: map[string]any{
					"error":   true,
					"message": apiErr.Message,
				},
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	newSessionID, err := h.authService.EstablishIdentity(r.Context(), session.ID, newUser.Email)
	if err != nil {
		slog.Error("failed to establish identity after signup", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}
	middleware.SetSessionCookie(w, newSessionID, h.cookie)

	if h.metrics != nil {
		h.metrics.RecordSignup()
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout はログアウトを処理する。
// POST /logout
// セッションのidentityとワンショット値をクリアし、/loginへリダイレクトする。
// 匿名セッションからの呼び出しでも同じ結果になる（冪等）。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeInternalServerError(w)
		return
	}

	if err := h.authService.EndSession(r.Context(), session.ID); err != nil {
		slog.Error("failed to end session", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
