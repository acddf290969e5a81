package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/scholarstream/scholarstream/internal/errors"
	"github.com/scholarstream/scholarstream/internal/observability"
	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/plugin/markdown"
	"github.com/scholarstream/scholarstream/store"
)

// Engine runs the pipeline for one turn. It is stateless between turns
// and safe for concurrent use.
type Engine struct {
	store    *store.Store
	provider ai.Provider
	personas *persona.Registry
	profile  *profile.Profile
}

// NewEngine wires the pipeline dependencies.
func NewEngine(s *store.Store, provider ai.Provider, personas *persona.Registry, p *profile.Profile) *Engine {
	return &Engine{
		store:    s,
		provider: provider,
		personas: personas,
		profile:  p,
	}
}

// Result is the outcome of the synchronous pipeline stages plus the
// generation stream. Fragments arrive in generation order; Errs carries
// at most one error. Both channels close when the stream ends.
type Result struct {
	Sources   []*Source
	Fragments <-chan string
	Errs      <-chan error
}

// Answer runs retrieval and starts generation for one query. Retrieval
// embeds only the question; q.History is passed through to the generator
// unread. A nil error means generation has started and the caller must
// drain the channels.
func (e *Engine) Answer(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Question) == "" {
		return nil, errors.InvalidArgument("question must not be empty")
	}

	mode := q.Mode
	if mode == "" {
		mode = e.profile.SearchMode
	}
	count := q.ResultCount
	if count == 0 {
		count = e.profile.ResultCount
	}
	count = ClampResultCount(count)
	maxTokens := q.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = e.profile.MaxOutputTokens
	}
	maxTokens = ClampOutputTokens(maxTokens)

	reqCtx, ok := observability.FromContext(ctx)
	if !ok {
		reqCtx = observability.NewRequestContext(slog.Default(), mode, "")
	}

	// Embedding and search are point calls; only the generation stream
	// may run long.
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	vector, err := e.provider.Embed(callCtx, q.Question)
	if err != nil {
		reqCtx.Error("embedding failed", err, slog.String(observability.LogFieldStage, errors.StageEmbedding))
		return nil, err
	}

	sources, err := e.retrieve(callCtx, reqCtx, mode, vector, q.Facets, count)
	if err != nil {
		return nil, err
	}

	budget := e.profile.ContextWordBudget
	if budget <= 0 {
		budget = DefaultWordBudget
	}
	for _, s := range sources {
		s.Content = TruncateWords(markdown.ToPlainText(s.Content), budget)
	}
	contextBlock := Assemble(sources)

	p, known := e.personas.Get(q.Persona)
	if !known {
		reqCtx.Warn("unknown persona, using neutral stance", slog.String("persona", q.Persona))
	}
	prompt := Compose(contextBlock, p, q.Question)

	messages := ai.FormatMessages(prompt.SystemInstruction, prompt.UserMessage, q.History)
	fragments, errs := e.provider.ChatStream(ctx, messages, ai.GenerationOptions{
		MaxTokens:   maxTokens,
		Temperature: e.profile.Temperature,
	})

	reqCtx.Info("generation started",
		slog.Int("sources", len(sources)),
		slog.Int("max_output_tokens", maxTokens),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))

	return &Result{
		Sources:   sources,
		Fragments: fragments,
		Errs:      errs,
	}, nil
}

func (e *Engine) callTimeout() time.Duration {
	if e.profile.AITimeout > 0 {
		return e.profile.AITimeout
	}
	return 30 * time.Second
}

// retrieve runs the mode-specific search and filter stages. Flat mode
// degrades to the top unfiltered candidates when facets exclude every
// match; hybrid mode reports empty as empty.
func (e *Engine) retrieve(ctx context.Context, reqCtx *observability.RequestContext, mode string, vector []float32, facets Facets, count int) ([]*Source, error) {
	var candidates []*store.CandidateMatch
	var err error

	switch mode {
	case ModeFlat:
		candidates, err = e.store.SearchDocumentsByVector(ctx, &store.VectorSearchOptions{
			Vector: vector,
			Limit:  count,
		})
	case ModeHybrid:
		candidates, err = e.store.SearchChunksByVector(ctx, &store.VectorSearchOptions{
			Vector: vector,
			Limit:  count * hybridOverFetch,
		})
	default:
		return nil, errors.InvalidArgument("unknown search mode: " + mode)
	}
	if err != nil {
		reqCtx.Error("vector search failed", err, slog.String(observability.LogFieldStage, errors.StageSearch))
		return nil, errors.Connection(errors.StageSearch, "vector store unreachable", err)
	}

	if len(candidates) == 0 {
		return nil, errors.EmptyResult("no matches for the question")
	}

	sources := Filter(candidates, facets, count)
	if len(sources) == 0 {
		if mode == ModeHybrid {
			return nil, errors.EmptyResult("all matches excluded by filters")
		}
		limit := min(flatFallbackCount, len(candidates))
		sources = FallbackUnfiltered(candidates, limit)
		reqCtx.Warn("facets excluded every candidate, serving top unfiltered matches",
			slog.Int("count", len(sources)))
	}
	return sources, nil
}
