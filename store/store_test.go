package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstream/scholarstream/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:                "dev",
		Driver:              "postgres",
		SearchMode:          "hybrid",
		FacetCacheTTL:       time.Hour,
		FallbackAuthors:     []string{"Fallback Author"},
		FallbackSourceTypes: []string{"video"},
	}
}

func TestFacetListCaching(t *testing.T) {
	ctx := context.Background()
	driver := NewMockDriver()
	driver.Authors = []string{"A", "B"}

	s := New(driver, testProfile())
	defer s.Close()

	first, err := s.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, first)

	second, err := s.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, driver.FacetCalls, "second lookup should be served from cache")
}

func TestFacetListFallbackOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	driver := NewMockDriver()
	driver.Err = errors.New("connection refused")

	s := New(driver, testProfile())
	defer s.Close()

	authors, err := s.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fallback Author"}, authors)

	types, err := s.ListSourceTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"video"}, types)
}

func TestRefreshFacetsHitsBackendAgain(t *testing.T) {
	ctx := context.Background()
	driver := NewMockDriver()
	driver.Authors = []string{"A"}

	s := New(driver, testProfile())
	defer s.Close()

	_, err := s.ListAuthors(ctx)
	require.NoError(t, err)

	driver.Authors = []string{"A", "B"}
	s.RefreshFacets()

	refreshed, err := s.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, refreshed)
	assert.Equal(t, 2, driver.FacetCalls)
}

func TestConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := NewMockDriver()
	s := New(driver, testProfile())
	defer s.Close()

	now := time.Now().Unix()
	conv, err := s.CreateConversation(ctx, &Conversation{
		UID:       "abc123",
		Title:     "fasting",
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)
	require.NotZero(t, conv.ID)

	_, err = s.CreateMessage(ctx, &Message{
		ConversationID: conv.ID,
		Role:           MessageRoleUser,
		Content:        "What about fasting?",
		CreatedTs:      now,
	})
	require.NoError(t, err)

	got, err := s.GetConversation(ctx, &FindConversation{UID: stringPtr("abc123")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv.ID, got.ID)

	msgs, err := s.ListMessages(ctx, &FindMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageRoleUser, msgs[0].Role)

	require.NoError(t, s.DeleteConversation(ctx, &DeleteConversation{ID: conv.ID}))
	msgs, err = s.ListMessages(ctx, &FindMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func stringPtr(s string) *string { return &s }
