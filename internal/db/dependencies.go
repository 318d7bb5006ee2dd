package db

import "context"

// Client persists the bits of configuration that survive restarts: chat
// settings and the trusted-user set. Moderation state (flood windows,
// offenses, warnings) is deliberately process-lifetime only and never
// goes through here.
type Client interface {
	Close() error

	GetSettings(ctx context.Context, chatID int64) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error

	IsTrusted(ctx context.Context, userID int64) (bool, error)
	AddTrusted(ctx context.Context, userID int64, addedBy int64) error
	RemoveTrusted(ctx context.Context, userID int64) error
	GetTrusted(ctx context.Context) ([]int64, error)
}
