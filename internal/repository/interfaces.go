// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/cinelog/internal/model"
)

// ErrDuplicateEmail はusers.emailの一意制約違反を表す番兵エラー。
// サービス層でDuplicateUserエラーへ変換される。
var ErrDuplicateEmail = errDuplicateEmail{}

type errDuplicateEmail struct{}

func (errDuplicateEmail) Error() string { return "email already exists" }

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// emailの一意制約に違反した場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	// 比較は完全一致（大文字小文字を区別）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Exists は指定emailのユーザーが存在するかどうかを返す。
	Exists(ctx context.Context, email string) (bool, error)

	// ListProfiles は全ユーザーのnameとemailのみを返す。ランディングページ用。
	ListProfiles(ctx context.Context) ([]model.UserProfile, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// ReturnToとErrorFlagの読み取りはいずれも単一文で読み取りとクリアを行い、
// セッション単位でアトミックであることを保証する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// SetIdentity はセッションに認証済みユーザーのemailを設定する。
	SetIdentity(ctx context.Context, id, email string) error

	// UpdateID はセッションIDを差し替える。他の列（戻り先URL、エラーフラグ、
	// 有効期限）は保持される。認証成立時のID再発行に使う。
	UpdateID(ctx context.Context, oldID, newID string) error

	// SetReturnTo はログイン後の戻り先URLを設定する。既存の値は上書きする。
	SetReturnTo(ctx context.Context, id, url string) error

	// TakeReturnTo は戻り先URLを読み取ると同時にクリアする。
	// 未設定の場合は空文字列を返す。
	TakeReturnTo(ctx context.Context, id string) (string, error)

	// SetErrorFlag はワンショットのエラーフラグを設定する。
	SetErrorFlag(ctx context.Context, id string) error

	// TakeErrorFlag はエラーフラグを読み取ると同時にクリアする。
	TakeErrorFlag(ctx context.Context, id string) (bool, error)

	// ClearIdentity はidentity、戻り先URL、エラーフラグをまとめてクリアする。
	// セッション行自体は残る（匿名状態に戻る）。
	ClearIdentity(ctx context.Context, id string) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MovieRepository は映画カタログの永続化インターフェース。
// コアからは読み取り専用であり、Createはカタログ取込プロセスのみが使用する。
type MovieRepository interface {
	// List は最大limit件の映画をストアのデフォルト順で返す。
	// 並び順は未規定であり、安定であることは保証しない。
	List(ctx context.Context, limit int) ([]*model.Movie, error)

	// FindByID は指定IDの映画を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Movie, error)

	// Create は映画を作成する。カタログ取込（seedサブコマンド）専用。
	Create(ctx context.Context, movie *model.Movie) error
}

// CommentRepository はコメントデータの永続化インターフェース。
// コメントは追記専用で、更新・削除の操作は定義しない。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByMovie は指定映画のコメントを作成時刻順で返す。
	ListByMovie(ctx context.Context, movieID string) ([]*model.Comment, error)

	// ListByAuthor は指定ユーザーが書いたコメントを作成時刻順で返す。
	ListByAuthor(ctx context.Context, authorEmail string) ([]*model.Comment, error)
}
