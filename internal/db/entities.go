package db

import "time"

type (
	Settings struct {
		ID       int64  `db:"id"`
		Enabled  bool   `db:"enabled"`
		Language string `db:"language"`
	}

	TrustedUser struct {
		UserID    int64     `db:"user_id"`
		AddedBy   int64     `db:"added_by"`
		CreatedAt time.Time `db:"created_at"`
	}
)
