package model

import "time"

// Movie はカタログ上の映画を表す。
// コアからは読み取り専用であり、ライフサイクルは外部のカタログ取込プロセスが所有する。
type Movie struct {
	ID        string
	Title     string
	Year      int
	Plot      string
	Genres    []string
	CreatedAt time.Time
}
