package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/view"
)

// UserServiceInterface はランディングページが必要とするユーザー参照のインターフェース。
type UserServiceInterface interface {
	ListProfiles(ctx context.Context) ([]model.UserProfile, error)
}

// DBPinger はヘルスチェックが必要とするデータベース疎通確認のインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// userProfileResponse は公開プロフィールのレスポンス表現。
type userProfileResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IndexHandler はランディングページとヘルスチェックのHTTPハンドラー。
type IndexHandler struct {
	userService UserServiceInterface
	db          DBPinger
	renderer    view.Renderer
}

// NewIndexHandler はIndexHandlerを生成する。
func NewIndexHandler(userService UserServiceInterface, db DBPinger, renderer view.Renderer) *IndexHandler {
	return &IndexHandler{
		userService: userService,
		db:          db,
		renderer:    renderer,
	}
}

// Show はランディングページの描画指示を返す。
// GET /
// 認証不要。登録ユーザーの公開プロフィール一覧を含む。
func (h *IndexHandler) Show(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.userService.ListProfiles(r.Context())
	if err != nil {
		slog.Error("failed to list user profiles", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return
	}

	users := make([]userProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, userProfileResponse{
			Email: p.Email,
			Name:  p.Name,
		})
	}

	h.renderer.Render(w, http.StatusOK, view.Result{
		View: "index",
		Data: map[string]any{
			"users": users,
		},
	})
}

// Health はヘルスチェックを処理する。
// GET /health
// データベースへの疎通が取れない場合は503を返す。
func (h *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
