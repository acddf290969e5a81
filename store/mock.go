package store

import (
	"context"
	"errors"
	"sync"
)

// MockDriver is an in-memory Driver for tests. Search and facet results
// are configurable per call; conversations and messages are kept in maps.
type MockDriver struct {
	mu sync.Mutex

	DocumentMatches []*CandidateMatch
	ChunkMatches    []*CandidateMatch
	Authors         []string
	SourceTypes     []string

	// Err, when set, is returned by every operation.
	Err error
	// SearchErr, when set, fails only the vector search calls.
	SearchErr error

	// FacetCalls counts backend facet lookups, for cache assertions.
	FacetCalls int

	nextID        int64
	conversations map[int64]*Conversation
	messages      []*Message
}

// NewMockDriver creates an empty mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		conversations: make(map[int64]*Conversation),
	}
}

func (m *MockDriver) Close() error                   { return nil }
func (m *MockDriver) Ping(ctx context.Context) error { return m.Err }

func (m *MockDriver) SearchDocumentsByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error) {
	if err := m.searchErr(); err != nil {
		return nil, err
	}
	return capMatches(m.DocumentMatches, opts.Limit), nil
}

func (m *MockDriver) SearchChunksByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error) {
	if err := m.searchErr(); err != nil {
		return nil, err
	}
	return capMatches(m.ChunkMatches, opts.Limit), nil
}

func (m *MockDriver) searchErr() error {
	if m.SearchErr != nil {
		return m.SearchErr
	}
	return m.Err
}

func capMatches(matches []*CandidateMatch, limit int) []*CandidateMatch {
	if limit > 0 && limit < len(matches) {
		return matches[:limit]
	}
	return matches
}

func (m *MockDriver) ListAuthors(ctx context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	m.FacetCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Authors, nil
}

func (m *MockDriver) ListSourceTypes(ctx context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	m.FacetCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SourceTypes, nil
}

func (m *MockDriver) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	create.ID = m.nextID
	m.conversations[create.ID] = create
	return create, nil
}

func (m *MockDriver) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []*Conversation{}
	for _, c := range m.conversations {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.UID != nil && c.UID != *find.UID {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func (m *MockDriver) DeleteConversation(ctx context.Context, del *DeleteConversation) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[del.ID]; !ok {
		return errors.New("conversation not found")
	}
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ConversationID != del.ID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	delete(m.conversations, del.ID)
	return nil
}

func (m *MockDriver) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	create.ID = m.nextID
	m.messages = append(m.messages, create)
	return create, nil
}

func (m *MockDriver) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []*Message{}
	for _, msg := range m.messages {
		if find.ConversationID != nil && msg.ConversationID != *find.ConversationID {
			continue
		}
		list = append(list, msg)
	}
	return list, nil
}
