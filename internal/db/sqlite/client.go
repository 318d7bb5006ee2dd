package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/iamwavecut/tool"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/groupwarden/modbot/internal/db"
	"github.com/groupwarden/modbot/resources"
)

type sqliteClient struct {
	db *sqlx.DB
}

func NewSQLiteClient(ctx context.Context, dir, name string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(dir, name))
	if err != nil {
		return nil, errors.WithMessage(err, "cant open db")
	}
	dbx.SetMaxOpenConns(42)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.ExecContext(ctx, dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, errors.WithMessage(err, "migrate up failed")
	}
	if n > 0 {
		log.Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}

func (c *sqliteClient) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	res := &db.Settings{}
	err := c.db.GetContext(ctx, res, "SELECT id, enabled, language FROM chats WHERE id=?", chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "cant get settings")
	}
	return res, nil
}

func (c *sqliteClient) SetSettings(ctx context.Context, settings *db.Settings) error {
	query := `
		INSERT INTO chats (id, enabled, language)
		VALUES (:id, :enabled, :language)
		ON CONFLICT(id) DO UPDATE SET
		enabled=excluded.enabled,
		language=excluded.language;
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, settings))
}

func (c *sqliteClient) IsTrusted(ctx context.Context, userID int64) (bool, error) {
	var count int
	if err := c.db.GetContext(ctx, &count, "SELECT COUNT(1) FROM trusted_users WHERE user_id=?", userID); err != nil {
		return false, errors.WithMessage(err, "cant check trusted user")
	}
	return count > 0, nil
}

func (c *sqliteClient) AddTrusted(ctx context.Context, userID int64, addedBy int64) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO trusted_users (user_id, added_by) VALUES (?, ?)", userID, addedBy)
	return errors.WithMessage(err, "cant add trusted user")
}

func (c *sqliteClient) RemoveTrusted(ctx context.Context, userID int64) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM trusted_users WHERE user_id=?", userID)
	return errors.WithMessage(err, "cant remove trusted user")
}

func (c *sqliteClient) GetTrusted(ctx context.Context) ([]int64, error) {
	userIDs := make([]int64, 0)
	if err := c.db.SelectContext(ctx, &userIDs, "SELECT user_id FROM trusted_users ORDER BY user_id"); err != nil {
		return nil, errors.WithMessage(err, "cant list trusted users")
	}
	return userIDs, nil
}
