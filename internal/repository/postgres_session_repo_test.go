package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hitoshi/cinelog/internal/model"
)

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ワンショット読み取り（読み取りとクリアを単一UPDATEで行うSQL）の実機検証。
// TakeReturnToのFOR UPDATE自己結合はモックでは再現できないため、
// TEST_DATABASE_URLが設定されている場合のみ実データベースに対して実行する。
// 対象データベースにはマイグレーション適用済みであること。
func TestPostgresSessionRepo_OneShotReads(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewPostgresSessionRepo(db)

	session := &model.Session{
		ID:        fmt.Sprintf("oneshot-%d", time.Now().UnixNano()),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer repo.DeleteByID(ctx, session.ID)

	if err := repo.SetReturnTo(ctx, session.ID, "/movie/abc"); err != nil {
		t.Fatalf("failed to set return-to: %v", err)
	}

	// ID差し替え後も戻り先URLは保持される
	rotatedID := session.ID + "-rotated"
	if err := repo.UpdateID(ctx, session.ID, rotatedID); err != nil {
		t.Fatalf("failed to update session ID: %v", err)
	}
	session.ID = rotatedID

	first, err := repo.TakeReturnTo(ctx, session.ID)
	if err != nil {
		t.Fatalf("first take returned error: %v", err)
	}
	if first != "/movie/abc" {
		t.Errorf("expected /movie/abc, got %q", first)
	}

	second, err := repo.TakeReturnTo(ctx, session.ID)
	if err != nil {
		t.Fatalf("second take returned error: %v", err)
	}
	if second != "" {
		t.Errorf("second take must return empty string, got %q", second)
	}

	if err := repo.SetErrorFlag(ctx, session.ID); err != nil {
		t.Fatalf("failed to set error flag: %v", err)
	}
	firstFlag, err := repo.TakeErrorFlag(ctx, session.ID)
	if err != nil {
		t.Fatalf("first flag take returned error: %v", err)
	}
	if !firstFlag {
		t.Error("expected first flag take to return true")
	}
	secondFlag, err := repo.TakeErrorFlag(ctx, session.ID)
	if err != nil {
		t.Fatalf("second flag take returned error: %v", err)
	}
	if secondFlag {
		t.Error("second flag take must return false")
	}
}

// Sessionモデルの認証状態判定を検証
func TestSessionModel_Authenticated(t *testing.T) {
	anonymous := &model.Session{
		ID:        "session-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if anonymous.Authenticated() {
		t.Error("session without identity must be anonymous")
	}

	authenticated := &model.Session{
		ID:        "session-2",
		UserEmail: "alice@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if !authenticated.Authenticated() {
		t.Error("session with identity must be authenticated")
	}
}
