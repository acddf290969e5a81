// Package db creates storage drivers from a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/store"
	"github.com/scholarstream/scholarstream/store/db/milvus"
	"github.com/scholarstream/scholarstream/store/db/postgres"
	"github.com/scholarstream/scholarstream/store/db/sqlite"
)

// NewDriver creates a storage driver based on the profile.
//
// Postgres is the reference backend: vector search (pgvector), facets and
// conversation persistence. Milvus serves vector search for deployments
// that already run one; when a DSN is also configured it is paired with a
// SQLite database for conversations, otherwise only retrieval works.
// SQLite alone persists conversations for development but has no vector
// search.
func NewDriver(p *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch p.Driver {
	case "postgres":
		driver, err = postgres.NewDB(p)
	case "sqlite":
		driver, err = sqlite.NewDB(p)
	case "milvus":
		driver, err = milvus.NewDB(p)
		if err == nil && p.DSN != "" {
			var relational store.Driver
			relational, err = sqlite.NewDB(p)
			if err != nil {
				driver.Close()
			} else {
				driver = newComposite(driver, relational)
			}
		}
	default:
		return nil, errors.Errorf("unknown driver %q: only postgres, sqlite and milvus are supported", p.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage driver")
	}
	return driver, nil
}
