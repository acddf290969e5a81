package rag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstream/scholarstream/internal/errors"
	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/store"
)

func newTestEngine(t *testing.T, driver *store.MockDriver, provider *ai.MockProvider) *Engine {
	t.Helper()

	p := &profile.Profile{
		Mode:              "dev",
		SearchMode:        ModeHybrid,
		ResultCount:       5,
		ContextWordBudget: DefaultWordBudget,
		MaxOutputTokens:   1500,
		Temperature:       0.7,
		FacetCacheTTL:     time.Hour,
	}

	s := store.New(driver, p)
	t.Cleanup(func() { s.Close() })

	personas, err := persona.NewRegistry("")
	require.NoError(t, err)

	return NewEngine(s, provider, personas, p)
}

func drain(t *testing.T, r *Result) (string, error) {
	t.Helper()
	var answer string
	for fragment := range r.Fragments {
		answer += fragment
	}
	return answer, <-r.Errs
}

func TestAnswerHappyPath(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Title: "Fasting", Author: "A", SourceType: "video",
			Content: "fasting lowers insulin", ChunkContent: "lowers insulin", Similarity: 0.95},
	}
	provider := &ai.MockProvider{
		Vector:    []float32{0.1, 0.2},
		Fragments: []string{"Fasting lowers insulin ", "[Source 1]."},
	}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{Question: "what about fasting?"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, int64(1), result.Sources[0].ID)
	assert.Equal(t, "lowers insulin", result.Sources[0].MatchedChunk)

	answer, streamErr := drain(t, result)
	require.NoError(t, streamErr)
	assert.Equal(t, "Fasting lowers insulin [Source 1].", answer)

	require.NotEmpty(t, provider.LastMessages)
	system := provider.LastMessages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "[Source 1] Fasting (A)")
	assert.Contains(t, system.Content, "fasting lowers insulin")

	assert.Equal(t, 1500, provider.LastOptions.MaxTokens)
	assert.InDelta(t, 0.7, provider.LastOptions.Temperature, 1e-6)
}

func TestAnswerFallsBackToConfiguredDefaults(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Similarity: 0.95, Content: "a", ChunkContent: "a"},
		{DocumentID: 2, Similarity: 0.90, Content: "b", ChunkContent: "b"},
		{DocumentID: 3, Similarity: 0.85, Content: "c", ChunkContent: "c"},
		{DocumentID: 4, Similarity: 0.80, Content: "d", ChunkContent: "d"},
		{DocumentID: 5, Similarity: 0.75, Content: "e", ChunkContent: "e"},
		{DocumentID: 6, Similarity: 0.70, Content: "f", ChunkContent: "f"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}, Fragments: []string{"ok"}}

	// The test profile configures ResultCount 5 and MaxOutputTokens 1500.
	// A request omitting both gets those, not the clamp minima.
	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{Question: "q"})
	require.NoError(t, err)
	drain(t, result)

	assert.Len(t, result.Sources, 5)
	assert.Equal(t, 1500, provider.LastOptions.MaxTokens)

	// Explicit request values still win over the configured defaults.
	result, err = engine.Answer(context.Background(), Query{
		Question:        "q",
		ResultCount:     4,
		MaxOutputTokens: 600,
	})
	require.NoError(t, err)
	drain(t, result)

	assert.Len(t, result.Sources, 4)
	assert.Equal(t, 600, provider.LastOptions.MaxTokens)
}

func TestAnswerHybridOverFetchSurvivesDeduplication(t *testing.T) {
	driver := store.NewMockDriver()
	// Three chunks of the same parent rank first; without over-fetching
	// a request for three sources would collapse to one.
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Similarity: 0.95, Content: "a", ChunkContent: "a1"},
		{DocumentID: 1, Similarity: 0.94, Content: "a", ChunkContent: "a2"},
		{DocumentID: 1, Similarity: 0.93, Content: "a", ChunkContent: "a3"},
		{DocumentID: 2, Similarity: 0.90, Content: "b", ChunkContent: "b1"},
		{DocumentID: 3, Similarity: 0.85, Content: "c", ChunkContent: "c1"},
		{DocumentID: 4, Similarity: 0.80, Content: "d", ChunkContent: "d1"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}, Fragments: []string{"ok"}}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{Question: "q", ResultCount: 3})
	require.NoError(t, err)

	require.Len(t, result.Sources, 3)
	assert.Equal(t, int64(1), result.Sources[0].ID)
	assert.Equal(t, int64(2), result.Sources[1].ID)
	assert.Equal(t, int64(3), result.Sources[2].ID)
	drain(t, result)
}

func TestAnswerHybridEmptyCandidates(t *testing.T) {
	driver := store.NewMockDriver()
	provider := &ai.MockProvider{Vector: []float32{0.1}}

	engine := newTestEngine(t, driver, provider)
	_, err := engine.Answer(context.Background(), Query{Question: "q"})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyResult))
}

func TestAnswerHybridAllFilteredOut(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Author: "B", Similarity: 0.9, Content: "x", ChunkContent: "x"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}}

	engine := newTestEngine(t, driver, provider)
	_, err := engine.Answer(context.Background(), Query{
		Question: "q",
		Facets:   Facets{Author: "A"},
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyResult))
}

func TestAnswerFlatFallsBackToUnfiltered(t *testing.T) {
	driver := store.NewMockDriver()
	driver.DocumentMatches = []*store.CandidateMatch{
		{DocumentID: 1, Author: "B", Similarity: 0.9, Content: "x", ChunkContent: "x"},
		{DocumentID: 2, Author: "C", Similarity: 0.8, Content: "y", ChunkContent: "y"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}, Fragments: []string{"ok"}}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{
		Question: "q",
		Mode:     ModeFlat,
		Facets:   Facets{Author: "A"},
	})
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, int64(1), result.Sources[0].ID)
	assert.Equal(t, int64(2), result.Sources[1].ID)
	drain(t, result)
}

func TestAnswerSearchFailureIsConnectionError(t *testing.T) {
	driver := store.NewMockDriver()
	driver.Err = assert.AnError
	provider := &ai.MockProvider{Vector: []float32{0.1}}

	engine := newTestEngine(t, driver, provider)
	_, err := engine.Answer(context.Background(), Query{Question: "q"})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConnectionFailed))
	assert.Equal(t, errors.StageSearch, errors.StageOf(err))
}

func TestAnswerEmbeddingFailurePropagates(t *testing.T) {
	driver := store.NewMockDriver()
	provider := &ai.MockProvider{
		EmbedErr: errors.Connection(errors.StageEmbedding, "embedding service unreachable", assert.AnError),
	}

	engine := newTestEngine(t, driver, provider)
	_, err := engine.Answer(context.Background(), Query{Question: "q"})

	require.Error(t, err)
	assert.Equal(t, errors.StageEmbedding, errors.StageOf(err))
}

func TestAnswerTruncatesOversizedSources(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Title: "long", Similarity: 0.9,
			Content: wordsOfLength(DefaultWordBudget + 500), ChunkContent: "chunk"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}, Fragments: []string{"ok"}}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{Question: "q"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Contains(t, result.Sources[0].Content, TruncationMarker)
	drain(t, result)
}

func TestAnswerPassesHistoryThrough(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Similarity: 0.9, Content: "x", ChunkContent: "x"},
	}
	provider := &ai.MockProvider{Vector: []float32{0.1}, Fragments: []string{"ok"}}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{
		Question: "and then?",
		History: []ai.Message{
			ai.UserMessage("what is fasting?"),
			ai.AssistantMessage("not eating for a while"),
		},
	})
	require.NoError(t, err)
	drain(t, result)

	require.Len(t, provider.LastMessages, 4)
	assert.Equal(t, "what is fasting?", provider.LastMessages[1].Content)
	assert.Equal(t, "and then?", provider.LastMessages[3].Content)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	engine := newTestEngine(t, store.NewMockDriver(), &ai.MockProvider{})

	_, err := engine.Answer(context.Background(), Query{Question: "   "})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
}

func TestAnswerRejectsUnknownMode(t *testing.T) {
	engine := newTestEngine(t, store.NewMockDriver(), &ai.MockProvider{Vector: []float32{0.1}})

	_, err := engine.Answer(context.Background(), Query{Question: "q", Mode: "graph"})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
}

func TestAnswerStreamFailureCarriesError(t *testing.T) {
	driver := store.NewMockDriver()
	driver.ChunkMatches = []*store.CandidateMatch{
		{DocumentID: 1, Similarity: 0.9, Content: "x", ChunkContent: "x"},
	}
	provider := &ai.MockProvider{
		Vector:    []float32{0.1},
		Fragments: []string{"partial ", "text"},
		StreamErr: errors.RateLimited(errors.StageGenerate, "model service rate limit exceeded", nil),
		FailAfter: 1,
	}

	engine := newTestEngine(t, driver, provider)
	result, err := engine.Answer(context.Background(), Query{Question: "q"})
	require.NoError(t, err)

	answer, streamErr := drain(t, result)
	assert.Equal(t, "partial ", answer)
	require.Error(t, streamErr)
	assert.True(t, errors.IsCode(streamErr, errors.ErrCodeRateLimitExceeded))

	// The error carries the text streamed before the failure; the caller
	// decides what to do with it, this pipeline discards it.
	var chatErr *errors.ChatError
	require.ErrorAs(t, streamErr, &chatErr)
	assert.Equal(t, "partial ", chatErr.Partial)
}
