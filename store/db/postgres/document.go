package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/scholarstream/scholarstream/store"
)

// SearchDocumentsByVector performs a flat similarity search over whole
// documents using pgvector. The <=> operator computes cosine distance
// (1 - cosine similarity), so ordering by distance ascending yields the
// most similar documents first.
func (d *DB) SearchDocumentsByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			doc.id, doc.uid, doc.title, doc.author, doc.source_type, doc.url,
			doc.content, doc.metadata,
			1 - (e.embedding <=> ` + placeholder(1) + `) AS similarity
		FROM document doc
		INNER JOIN document_embedding e ON doc.id = e.document_id
		ORDER BY e.embedding <=> ` + placeholder(2) + `
		LIMIT ` + placeholder(3)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search documents by vector")
	}
	defer rows.Close()

	matches := []*store.CandidateMatch{}
	for rows.Next() {
		var m store.CandidateMatch
		if err := rows.Scan(
			&m.DocumentID,
			&m.DocumentUID,
			&m.Title,
			&m.Author,
			&m.SourceType,
			&m.URL,
			&m.Content,
			&m.Metadata,
			&m.Similarity,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document match")
		}
		// In flat mode the whole document is the matched span.
		m.ChunkContent = m.Content
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// SearchChunksByVector performs a hybrid similarity search: chunks are
// matched by vector distance and each hit is denormalized with its parent
// document. Multiple chunks of the same document may appear; callers
// deduplicate downstream.
func (d *DB) SearchChunksByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			c.id, c.content,
			doc.id, doc.uid, doc.title, doc.author, doc.source_type, doc.url,
			doc.content, doc.metadata,
			1 - (c.embedding <=> ` + placeholder(1) + `) AS similarity
		FROM document_chunk c
		INNER JOIN document doc ON doc.id = c.document_id
		ORDER BY c.embedding <=> ` + placeholder(2) + `
		LIMIT ` + placeholder(3)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search chunks by vector")
	}
	defer rows.Close()

	matches := []*store.CandidateMatch{}
	for rows.Next() {
		var m store.CandidateMatch
		if err := rows.Scan(
			&m.ChunkID,
			&m.ChunkContent,
			&m.DocumentID,
			&m.DocumentUID,
			&m.Title,
			&m.Author,
			&m.SourceType,
			&m.URL,
			&m.Content,
			&m.Metadata,
			&m.Similarity,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk match")
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// ListAuthors returns the distinct non-empty author values, sorted.
func (d *DB) ListAuthors(ctx context.Context, limit int) ([]string, error) {
	return d.listDistinct(ctx, "author", limit)
}

// ListSourceTypes returns the distinct non-empty source type values, sorted.
func (d *DB) ListSourceTypes(ctx context.Context, limit int) ([]string, error) {
	return d.listDistinct(ctx, "source_type", limit)
}

func (d *DB) listDistinct(ctx context.Context, column string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}

	// column is one of the fixed callers above, never user input.
	query := `
		SELECT DISTINCT ` + column + `
		FROM document
		WHERE ` + column + ` <> ''
		ORDER BY ` + column + `
		LIMIT ` + placeholder(1)

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list distinct %s values", column)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan facet value")
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return values, nil
}
