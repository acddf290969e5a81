package store

import (
	"context"
)

// Driver is the storage backend interface. Postgres implements everything;
// SQLite implements conversations only; Milvus implements vector search
// only. Unsupported operations return explicit errors rather than
// pretending to succeed.
type Driver interface {
	Close() error
	Ping(ctx context.Context) error

	// SearchDocumentsByVector performs a flat similarity search over whole
	// documents, ranked by descending similarity.
	SearchDocumentsByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error)

	// SearchChunksByVector performs a hybrid similarity search over chunks,
	// each hit annotated with its parent document, ranked by descending
	// similarity. Callers over-fetch; deduplication happens downstream.
	SearchChunksByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error)

	// ListAuthors returns distinct author values, sorted, capped at limit.
	ListAuthors(ctx context.Context, limit int) ([]string, error)

	// ListSourceTypes returns distinct source type values, sorted, capped
	// at limit.
	ListSourceTypes(ctx context.Context, limit int) ([]string, error)

	// Conversation persistence.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message persistence (append-only).
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
}
