package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/store"
)

// PostgreSQL is the reference backend: vector search via the pgvector
// extension, facet queries and conversation persistence are all
// fully supported.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL-backed driver.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", p.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", p.DSN)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: p}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
