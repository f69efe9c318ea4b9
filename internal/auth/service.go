// Package auth はパスワード認証とセッション管理、認可ゲートを提供する。
//
// セッション状態は明示的な値としてリポジトリに保持し、プロセス全体の
// 暗黙的な可変状態は持たない。認可ゲートはリダイレクトを自分では行わず、
// 型付きのAllow/Deny判定を返す。トランスポートから切り離してテストできる。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/repository"
)

// defaultLoginPath は未認証リクエストのリダイレクト先。
const defaultLoginPath = "/login"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	LoginPath     string // 未認証時のリダイレクト先。空の場合は/login
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// Decision は認可ゲートの判定結果を表す。
type Decision struct {
	Allowed    bool
	Identity   string // 許可時: 認証済みユーザーのemail
	RedirectTo string // 拒否時: リダイレクト先（ログインURL）
}

// Service は認証・セッションに関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.LoginPath == "" {
		config.LoginPath = defaultLoginPath
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// StartSession は匿名セッションを作成して返す。
// クライアントの初回アクセス時にミドルウェアから呼ばれる。
func (s *Service) StartSession(ctx context.Context) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// FindSession は指定IDのセッションを取得する。期限切れ・未知のIDはnilを返す。
func (s *Service) FindSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// Authenticate はemailとパスワードを検証し、成功時にセッションへidentityを設定して
// 再発行後のセッションIDを返す。呼び出し側はCookieを新しいIDで更新すること。
// ユーザー不在とパスワード不一致は区別せずInvalidCredentialsを返す。
// 失敗時にセッションのidentityとIDは変更されない（部分的な認証状態は生じない）。
func (s *Service) Authenticate(ctx context.Context, sessionID, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// ユーザー不在でも応答時間を揃えるためダミーハッシュと比較する
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.recordLoginFailure()
		return "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLoginFailure()
		return "", model.NewInvalidCredentialsError()
	}

	newID, err := s.rotateSessionID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := s.sessionRepo.SetIdentity(ctx, newID, user.Email); err != nil {
		return "", fmt.Errorf("failed to set session identity: %w", err)
	}

	s.recordLoginSuccess()
	slog.Info("user logged in", slog.String("email", user.Email))
	return newID, nil
}

// EstablishIdentity は認証を経ずにセッションへidentityを設定し、再発行後の
// セッションIDを返す。サインアップ直後のログイン確立（signup implies login）専用。
func (s *Service) EstablishIdentity(ctx context.Context, sessionID, email string) (string, error) {
	newID, err := s.rotateSessionID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.sessionRepo.SetIdentity(ctx, newID, email); err != nil {
		return "", fmt.Errorf("failed to set session identity: %w", err)
	}
	return newID, nil
}

// rotateSessionID は匿名時代のセッショントークンを無効化するため、identityの
// 設定に先立って新しいIDを発行する（セッション固定化対策）。行は差し替えなので
// 記録済みの戻り先URLはローテーション後も保持される。
func (s *Service) rotateSessionID(ctx context.Context, sessionID string) (string, error) {
	newID, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	if err := s.sessionRepo.UpdateID(ctx, sessionID, newID); err != nil {
		return "", fmt.Errorf("failed to rotate session ID: %w", err)
	}
	return newID, nil
}

// RequireAuthentication は保護された操作の前に呼ばれる認可ゲート。
// 匿名セッションの場合は戻り先URLを記録（既存値は上書き）してDenyを返す。
// 認証済みの場合はAllowを返す。状態機械上の遷移は発生しない。
func (s *Service) RequireAuthentication(ctx context.Context, sessionID, requestedURL string) (Decision, error) {
	session, err := s.FindSession(ctx, sessionID)
	if err != nil {
		return Decision{}, err
	}

	if session == nil || !session.Authenticated() {
		if session != nil {
			if target := sanitizeReturnTo(requestedURL); target != "" {
				if err := s.sessionRepo.SetReturnTo(ctx, sessionID, target); err != nil {
					return Decision{}, fmt.Errorf("failed to record return-to URL: %w", err)
				}
			}
		}
		return Decision{Allowed: false, RedirectTo: s.config.LoginPath}, nil
	}

	return Decision{Allowed: true, Identity: session.UserEmail}, nil
}

// ConsumeReturnTo は戻り先URLを読み取ってクリアする。
// 未設定の場合は空文字列を返す。2回目の呼び出しは常に空文字列を返す。
func (s *Service) ConsumeReturnTo(ctx context.Context, sessionID string) (string, error) {
	returnTo, err := s.sessionRepo.TakeReturnTo(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to consume return-to URL: %w", err)
	}
	return returnTo, nil
}

// SetTransientError は次の1回のレンダリングでのみ表示されるエラーフラグを設定する。
// リダイレクトをまたいでログイン失敗メッセージを1回だけ表示するために使う。
func (s *Service) SetTransientError(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.SetErrorFlag(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to set transient error: %w", err)
	}
	return nil
}

// TakeTransientError はエラーフラグを読み取ってクリアする。
func (s *Service) TakeTransientError(ctx context.Context, sessionID string) (bool, error) {
	flag, err := s.sessionRepo.TakeErrorFlag(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to take transient error: %w", err)
	}
	return flag, nil
}

// EndSession はidentityと残存するワンショット値をすべてクリアする。
// セッション行は匿名状態として残り、期限切れ後にワーカーが削除する。
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.ClearIdentity(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションから現在の認証済みユーザーを取得する。
// 匿名セッションの場合はUnauthenticatedエラーを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Authenticated() {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByEmail(ctx, session.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

func (s *Service) recordLoginSuccess() {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}

// dummyHash はユーザー不在時のタイミング均一化に使う固定bcryptハッシュ。
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// sanitizeReturnTo は戻り先URLとして記録してよい値かを検証する。
// オープンリダイレクトを防ぐため、同一オリジンの絶対パスのみ許可する。
func sanitizeReturnTo(requestedURL string) string {
	if requestedURL == "" {
		return ""
	}
	if !strings.HasPrefix(requestedURL, "/") {
		return ""
	}
	// "//host" 形式やバックスラッシュによるスキーム相対URLを拒否する
	if strings.HasPrefix(requestedURL, "//") || strings.Contains(requestedURL, "\\") {
		return ""
	}
	return requestedURL
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
