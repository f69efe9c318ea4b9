// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cinelog/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionManager はセッションの検索と作成に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionManager interface {
	FindSession(ctx context.Context, id string) (*model.Session, error)
	StartSession(ctx context.Context) (*model.Session, error)
}

// SessionCookieConfig はセッションCookieの属性設定。
type SessionCookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // 秒。セッションの有効期間と一致させる
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieが無い、または期限切れの場合は匿名セッションを新規作成する
// （初回アクセスでセッションが生まれる）。
// 認可の判定はここでは行わない。保護されたハンドラーが明示的にゲートを呼ぶ。
func NewSessionMiddleware(manager SessionManager, config SessionCookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *model.Session

			// 1. Cookieから既存セッションを探す
			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				found, err := manager.FindSession(r.Context(), cookie.Value)
				if err != nil {
					slog.Error("failed to find session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				session = found
			}

			// 2. 無ければ匿名セッションを作成しCookieを設定する
			if session == nil {
				created, err := manager.StartSession(r.Context())
				if err != nil {
					slog.Error("failed to start session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				session = created

				SetSessionCookie(w, session.ID, config)
			}

			// 3. セッションをコンテキストに注入
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie はセッションCookieを設定する。新規セッションの発行時と、
// 認証成立に伴うセッションIDの再発行時の両方で同じ属性を使う。
func SetSessionCookie(w http.ResponseWriter, sessionID string, config SessionCookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
