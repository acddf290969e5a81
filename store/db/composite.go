package db

import (
	"context"

	"github.com/scholarstream/scholarstream/store"
)

// composite pairs a vector search backend with a relational backend so a
// milvus deployment can still persist conversations. Vector search and
// facet scans go to the vector driver; conversations and messages go to
// the relational one.
type composite struct {
	vector     store.Driver
	relational store.Driver
}

func newComposite(vector, relational store.Driver) store.Driver {
	return &composite{vector: vector, relational: relational}
}

func (c *composite) Close() error {
	vecErr := c.vector.Close()
	if err := c.relational.Close(); err != nil {
		return err
	}
	return vecErr
}

func (c *composite) Ping(ctx context.Context) error {
	if err := c.vector.Ping(ctx); err != nil {
		return err
	}
	return c.relational.Ping(ctx)
}

func (c *composite) SearchDocumentsByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	return c.vector.SearchDocumentsByVector(ctx, opts)
}

func (c *composite) SearchChunksByVector(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.CandidateMatch, error) {
	return c.vector.SearchChunksByVector(ctx, opts)
}

func (c *composite) ListAuthors(ctx context.Context, limit int) ([]string, error) {
	return c.vector.ListAuthors(ctx, limit)
}

func (c *composite) ListSourceTypes(ctx context.Context, limit int) ([]string, error) {
	return c.vector.ListSourceTypes(ctx, limit)
}

func (c *composite) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	return c.relational.CreateConversation(ctx, create)
}

func (c *composite) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	return c.relational.ListConversations(ctx, find)
}

func (c *composite) DeleteConversation(ctx context.Context, del *store.DeleteConversation) error {
	return c.relational.DeleteConversation(ctx, del)
}

func (c *composite) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	return c.relational.CreateMessage(ctx, create)
}

func (c *composite) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	return c.relational.ListMessages(ctx, find)
}
