// Package store provides storage access for documents, facets and
// conversations behind a driver interface.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/store/cache"
)

const (
	facetCacheKeyAuthors     = "facets:authors"
	facetCacheKeySourceTypes = "facets:source_types"

	// facetRowCap bounds the distinct-value scan on the backend.
	facetRowCap = 1000
)

// Store provides access to all stored objects. Facet lookups are cached
// with a bounded TTL and degrade to configured fallback lists when the
// backend is unreachable.
type Store struct {
	profile *profile.Profile
	driver  Driver

	facetCache *cache.Cache
}

// New creates a Store on top of the given driver.
func New(driver Driver, p *profile.Profile) *Store {
	return &Store{
		profile: p,
		driver:  driver,
		facetCache: cache.New(cache.Config{
			MaxItems:        16,
			DefaultTTL:      p.FacetCacheTTL,
			CleanupInterval: 5 * time.Minute,
		}),
	}
}

// GetDriver exposes the underlying driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Close releases the cache and the driver.
func (s *Store) Close() error {
	s.facetCache.Close()
	return s.driver.Close()
}

// Ping verifies the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

// SearchDocumentsByVector delegates a flat similarity search.
func (s *Store) SearchDocumentsByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error) {
	return s.driver.SearchDocumentsByVector(ctx, opts)
}

// SearchChunksByVector delegates a hybrid similarity search.
func (s *Store) SearchChunksByVector(ctx context.Context, opts *VectorSearchOptions) ([]*CandidateMatch, error) {
	return s.driver.SearchChunksByVector(ctx, opts)
}

// ListAuthors returns the distinct author facet values. Results are
// cached; on backend failure the configured fallback list is served and
// the degradation is logged.
func (s *Store) ListAuthors(ctx context.Context) ([]string, error) {
	return s.facetList(ctx, facetCacheKeyAuthors, s.driver.ListAuthors, s.profile.FallbackAuthors)
}

// ListSourceTypes returns the distinct source type facet values, with the
// same caching and fallback behavior as ListAuthors.
func (s *Store) ListSourceTypes(ctx context.Context) ([]string, error) {
	return s.facetList(ctx, facetCacheKeySourceTypes, s.driver.ListSourceTypes, s.profile.FallbackSourceTypes)
}

// RefreshFacets drops the cached facet lists so the next lookup hits the
// backend.
func (s *Store) RefreshFacets() {
	s.facetCache.Delete(facetCacheKeyAuthors)
	s.facetCache.Delete(facetCacheKeySourceTypes)
}

func (s *Store) facetList(ctx context.Context, key string, fetch func(context.Context, int) ([]string, error), fallback []string) ([]string, error) {
	if v, ok := s.facetCache.Get(key); ok {
		if values, ok := v.([]string); ok {
			return values, nil
		}
	}

	values, err := fetch(ctx, facetRowCap)
	if err != nil {
		slog.Warn("facet lookup failed, serving fallback list",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fallback, nil
	}

	s.facetCache.Set(key, values, s.profile.FacetCacheTTL)
	return values, nil
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the single conversation matching find, or nil.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}
