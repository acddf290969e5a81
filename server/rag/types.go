// Package rag implements the retrieval and context assembly pipeline:
// query embedding, vector search, filtering and deduplication, word
// budget truncation, prompt composition and streamed generation.
package rag

import (
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/store"
)

// Search modes.
const (
	// ModeFlat searches whole documents directly.
	ModeFlat = "flat"
	// ModeHybrid searches chunks and resolves them to parent documents.
	ModeHybrid = "hybrid"
)

// FacetAny matches every value of a facet.
const FacetAny = "any"

// Caller-supplied parameter bounds.
const (
	MinResultCount = 3
	MaxResultCount = 10

	MinOutputTokens = 500
	MaxOutputTokens = 3000
)

// hybridOverFetch is the candidate multiplier for chunk search, since
// several chunks can resolve to the same parent document.
const hybridOverFetch = 2

// flatFallbackCount bounds the unfiltered fallback in flat mode.
const flatFallbackCount = 3

// Facets are the equality constraints applied to candidates. Empty or
// "any" values match everything.
type Facets struct {
	Author     string
	SourceType string
}

// Query is one user turn. History carries prior turns for the generator
// only; retrieval embeds just the question. A zero ResultCount or
// MaxOutputTokens takes the configured default before clamping.
type Query struct {
	Question string
	History  []ai.Message

	Facets          Facets
	ResultCount     int
	MaxOutputTokens int
	Persona         string
	Mode            string
}

// ClampResultCount bounds n to the recognized result count range.
func ClampResultCount(n int) int {
	if n < MinResultCount {
		return MinResultCount
	}
	if n > MaxResultCount {
		return MaxResultCount
	}
	return n
}

// ClampOutputTokens bounds n to the recognized output budget range.
func ClampOutputTokens(n int) int {
	if n < MinOutputTokens {
		return MinOutputTokens
	}
	if n > MaxOutputTokens {
		return MaxOutputTokens
	}
	return n
}

// Source is one retrieved document after filtering, cited to the user.
// Unique by ID within a response; order follows descending similarity.
type Source struct {
	ID         int64   `json:"id"`
	UID        string  `json:"uid"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	SourceType string  `json:"sourceType"`
	URL        string  `json:"url"`
	Content    string  `json:"-"`
	// MatchedChunk is the untruncated snippet that triggered the match.
	MatchedChunk string  `json:"matchedChunk"`
	Similarity   float64 `json:"similarity"`
}

func sourceFromCandidate(c *store.CandidateMatch) *Source {
	return &Source{
		ID:           c.DocumentID,
		UID:          c.DocumentUID,
		Title:        c.Title,
		Author:       c.Author,
		SourceType:   c.SourceType,
		URL:          c.URL,
		Content:      c.Content,
		MatchedChunk: c.ChunkContent,
		Similarity:   c.Similarity,
	}
}
