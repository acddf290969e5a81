package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/store"
)

// SQLite is the development backend. It persists conversations and
// messages; vector search and facet scans require postgres or milvus.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite-backed driver and bootstraps its schema.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", p.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", p.DSN)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, profile: p}
	if err := d.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS conversation (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			persona TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS message (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sources TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
