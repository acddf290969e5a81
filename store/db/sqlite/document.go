package sqlite

import (
	"context"
	"errors"

	"github.com/scholarstream/scholarstream/store"
)

// ErrVectorSearchNotSupported is returned for similarity search and facet
// scans on SQLite. The corpus lives in postgres (pgvector) or milvus;
// SQLite only persists conversations for development.
var ErrVectorSearchNotSupported = errors.New("vector search is not supported on sqlite: use the postgres or milvus driver")

func (d *DB) SearchDocumentsByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	return nil, ErrVectorSearchNotSupported
}

func (d *DB) SearchChunksByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	return nil, ErrVectorSearchNotSupported
}

func (d *DB) ListAuthors(ctx context.Context, limit int) ([]string, error) {
	return nil, ErrVectorSearchNotSupported
}

func (d *DB) ListSourceTypes(ctx context.Context, limit int) ([]string, error) {
	return nil, ErrVectorSearchNotSupported
}
