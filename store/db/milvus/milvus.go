// Package milvus implements vector search against a Milvus deployment.
// Ingestion writes the collections; this driver only reads them.
// Conversations and facet scans are not supported here: conversations
// need a relational backend and Milvus has no distinct-value query, so
// the store serves its configured fallback facet lists instead.
package milvus

import (
	"context"
	"errors"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	pkgerrors "github.com/pkg/errors"

	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/store"
)

// ErrNotSupported is returned for relational operations on Milvus.
var ErrNotSupported = errors.New("operation is not supported on milvus: use the postgres driver for conversations and facets")

// Expected collection fields. The document collection holds one row per
// document; the chunk collection holds one row per chunk with parent
// document fields denormalized, both with a COSINE-indexed float vector.
var (
	docOutputFields = []string{
		"doc_id", "doc_uid", "title", "author", "source_type", "url", "content", "metadata",
	}
	chunkOutputFields = []string{
		"chunk_id", "chunk_content",
		"doc_id", "doc_uid", "title", "author", "source_type", "url", "content", "metadata",
	}
)

type DB struct {
	client  client.Client
	profile *profile.Profile
}

// NewDB connects to Milvus and loads the configured collections.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p == nil {
		return nil, pkgerrors.New("profile is nil")
	}

	c, err := client.NewGrpcClient(context.Background(), p.MilvusAddress)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to milvus at %s", p.MilvusAddress)
	}

	d := &DB{client: c, profile: p}

	for _, collection := range []string{p.MilvusDocCollection, p.MilvusChunkCollection} {
		has, err := c.HasCollection(context.Background(), collection)
		if err != nil {
			c.Close()
			return nil, pkgerrors.Wrapf(err, "failed to check collection %s", collection)
		}
		if !has {
			c.Close()
			return nil, pkgerrors.Errorf("collection %s does not exist: the ingestion pipeline must create it", collection)
		}
		if err := c.LoadCollection(context.Background(), collection, false); err != nil {
			c.Close()
			return nil, pkgerrors.Wrapf(err, "failed to load collection %s", collection)
		}
	}

	return d, nil
}

func (d *DB) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	_, err := d.client.HasCollection(ctx, d.profile.MilvusDocCollection)
	return err
}

// SearchDocumentsByVector performs a flat similarity search over the
// document collection.
func (d *DB) SearchDocumentsByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	matches, err := d.search(ctx, d.profile.MilvusDocCollection, docOutputFields, opts)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		m.ChunkContent = m.Content
	}
	return matches, nil
}

// SearchChunksByVector performs a hybrid similarity search over the chunk
// collection; parent document fields are denormalized per row.
func (d *DB) SearchChunksByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	return d.search(ctx, d.profile.MilvusChunkCollection, chunkOutputFields, opts)
}

func (d *DB) search(ctx context.Context, collection string, outputFields []string, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if dim := d.profile.MilvusVectorDimension; dim > 0 && len(opts.Vector) != dim {
		return nil, pkgerrors.Errorf("invalid vector dimension: expected %d, got %d", dim, len(opts.Vector))
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create search params")
	}

	results, err := d.client.Search(
		ctx,
		collection,
		nil, // partition names
		"",  // no filter expression; filtering happens downstream
		outputFields,
		[]entity.Vector{entity.FloatVector(opts.Vector)},
		"embedding",
		entity.COSINE,
		limit,
		sp,
	)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to search collection %s", collection)
	}
	if len(results) == 0 {
		return []*store.CandidateMatch{}, nil
	}

	result := results[0]
	matches := make([]*store.CandidateMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		m := &store.CandidateMatch{
			// COSINE similarity scores are already in [0, 1], higher first.
			Similarity: float64(result.Scores[i]),
		}
		for _, field := range result.Fields {
			switch field.Name() {
			case "chunk_id":
				m.ChunkID = int64Value(field, i)
			case "chunk_content":
				m.ChunkContent = stringValue(field, i)
			case "doc_id":
				m.DocumentID = int64Value(field, i)
			case "doc_uid":
				m.DocumentUID = stringValue(field, i)
			case "title":
				m.Title = stringValue(field, i)
			case "author":
				m.Author = stringValue(field, i)
			case "source_type":
				m.SourceType = stringValue(field, i)
			case "url":
				m.URL = stringValue(field, i)
			case "content":
				m.Content = stringValue(field, i)
			case "metadata":
				m.Metadata = stringValue(field, i)
			}
		}
		matches = append(matches, m)
	}

	return matches, nil
}

func stringValue(column entity.Column, i int) string {
	if c, ok := column.(*entity.ColumnVarChar); ok && i < len(c.Data()) {
		return c.Data()[i]
	}
	return ""
}

func int64Value(column entity.Column, i int) int64 {
	if c, ok := column.(*entity.ColumnInt64); ok && i < len(c.Data()) {
		return c.Data()[i]
	}
	return 0
}

func (d *DB) ListAuthors(ctx context.Context, limit int) ([]string, error) {
	return nil, ErrNotSupported
}

func (d *DB) ListSourceTypes(ctx context.Context, limit int) ([]string, error) {
	return nil, ErrNotSupported
}

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	return nil, ErrNotSupported
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	return nil, ErrNotSupported
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	return ErrNotSupported
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	return nil, ErrNotSupported
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	return nil, ErrNotSupported
}
