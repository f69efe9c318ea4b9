package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/cinelog/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_email, return_to, error_flag, expires_at, created_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)`,
		session.ID, session.UserEmail, session.ReturnTo, session.ErrorFlag,
		session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var userEmail, returnTo sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_email, return_to, error_flag, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &userEmail, &returnTo, &session.ErrorFlag,
		&session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session.UserEmail = userEmail.String
	session.ReturnTo = returnTo.String
	return session, nil
}

// SetIdentity はセッションに認証済みユーザーのemailを設定する。
func (r *PostgresSessionRepo) SetIdentity(ctx context.Context, id, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_email = $2 WHERE id = $1`,
		id, email,
	)
	if err != nil {
		return fmt.Errorf("failed to set session identity: %w", err)
	}
	return nil
}

// UpdateID はセッションIDを差し替える。戻り先URLやエラーフラグは保持される。
func (r *PostgresSessionRepo) UpdateID(ctx context.Context, oldID, newID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET id = $2 WHERE id = $1`,
		oldID, newID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session ID: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("session not found: %s", oldID)
	}
	return nil
}

// SetReturnTo は戻り先URLを設定する。既存の値は上書きする。
func (r *PostgresSessionRepo) SetReturnTo(ctx context.Context, id, url string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET return_to = $2 WHERE id = $1`,
		id, url,
	)
	if err != nil {
		return fmt.Errorf("failed to set return-to URL: %w", err)
	}
	return nil
}

// TakeReturnTo は戻り先URLを読み取ると同時にクリアする。
// 読み取りとクリアを単一のUPDATE文で行うため、同一セッションに対して
// 2回呼び出しても値が返るのは1回だけである。
// RETURNINGは更新後の行を参照するため、更新前の値はFOR UPDATE付きの
// 自己結合で取り出す。
func (r *PostgresSessionRepo) TakeReturnTo(ctx context.Context, id string) (string, error) {
	var returnTo string
	err := r.db.QueryRowContext(ctx,
		`UPDATE sessions SET return_to = NULL
		 FROM (SELECT id, return_to FROM sessions WHERE id = $1 FOR UPDATE) old
		 WHERE sessions.id = old.id AND old.return_to IS NOT NULL
		 RETURNING old.return_to`,
		id,
	).Scan(&returnTo)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to take return-to URL: %w", err)
	}
	return returnTo, nil
}

// SetErrorFlag はワンショットのエラーフラグを設定する。
func (r *PostgresSessionRepo) SetErrorFlag(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET error_flag = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to set error flag: %w", err)
	}
	return nil
}

// TakeErrorFlag はエラーフラグを読み取ると同時にクリアする。
func (r *PostgresSessionRepo) TakeErrorFlag(ctx context.Context, id string) (bool, error) {
	var wasSet bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE sessions SET error_flag = FALSE
		 WHERE id = $1 AND error_flag = TRUE
		 RETURNING TRUE`,
		id,
	).Scan(&wasSet)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take error flag: %w", err)
	}
	return wasSet, nil
}

// ClearIdentity はidentity、戻り先URL、エラーフラグをまとめてクリアする。
func (r *PostgresSessionRepo) ClearIdentity(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET user_email = NULL, return_to = NULL, error_flag = FALSE
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session identity: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
