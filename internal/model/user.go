// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Emailが自然キーであり、大文字小文字を区別して一意に扱う。
// PasswordHashにはbcryptハッシュのみを保持し、平文パスワードは保持しない。
type User struct {
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile はランディングページ向けの公開プロフィール。
// nameとemailのみを射影し、認証情報は含めない。
type UserProfile struct {
	Email string
	Name  string
}

// Session はクライアントごとのセッション状態を表す。
// UserEmailが空文字列の場合は匿名セッションを意味する。
// ReturnToとErrorFlagはいずれも次の1回の読み取りで消費されるワンショット値。
type Session struct {
	ID        string
	UserEmail string
	ReturnTo  string
	ErrorFlag bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はセッションが認証済み状態かどうかを返す。
func (s *Session) Authenticated() bool {
	return s.UserEmail != ""
}
