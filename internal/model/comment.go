package model

import "time"

// Comment は映画に紐づくユーザーコメントを表す。
// 作成後は不変であり、編集・削除の操作は存在しない。
// AuthorNameは書き込み時点のユーザー名を非正規化して保持する。
type Comment struct {
	ID          string
	MovieID     string
	AuthorEmail string
	AuthorName  string
	Text        string
	CreatedAt   time.Time
}
