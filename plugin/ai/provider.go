// Package ai wraps the embedding and chat completion services behind a
// single provider interface with coded errors.
package ai

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/scholarstream/scholarstream/internal/errors"
	"github.com/scholarstream/scholarstream/internal/profile"
)

// GenerationOptions bound a single chat completion call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float32
}

// Provider is the external model service interface.
type Provider interface {
	// Embed generates the query vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ChatStream performs streaming chat. The content channel carries
	// response fragments in order; the error channel carries at most one
	// error. Both are closed when the stream ends.
	ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error)
}

type openaiProvider struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
}

// NewProvider creates a Provider backed by an OpenAI compatible endpoint.
func NewProvider(p *profile.Profile) Provider {
	clientConfig := openai.DefaultConfig(p.AIAPIKey)
	if p.AIBaseURL != "" {
		clientConfig.BaseURL = p.AIBaseURL
	}

	return &openaiProvider{
		client:         openai.NewClientWithConfig(clientConfig),
		embeddingModel: p.AIEmbeddingModel,
		chatModel:      p.AIChatModel,
	}
}

func (p *openaiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidArgument("empty text for embedding")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.embeddingModel),
	})
	if err != nil {
		return nil, mapAPIError(errors.StageEmbedding, err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.Internal(errors.StageEmbedding, "empty embedding response", nil)
	}
	return resp.Data[0].Embedding, nil
}

func (p *openaiProvider) ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       p.chatModel,
			Messages:    convertMessages(messages),
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			Stream:      true,
		})
		if err != nil {
			errChan <- mapAPIError(errors.StageGenerate, err)
			return
		}
		defer stream.Close()

		// Text delivered so far rides on a mid-stream error so callers
		// can decide what to do with the partial answer.
		var answer strings.Builder
		for {
			resp, err := stream.Recv()
			if stderrors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errChan <- mapAPIError(errors.StageGenerate, err).WithPartial(answer.String())
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case contentChan <- delta:
				answer.WriteString(delta)
			case <-ctx.Done():
				errChan <- errors.Canceled(errors.StageGenerate, ctx.Err()).WithPartial(answer.String())
				return
			}
		}
	}()

	return contentChan, errChan
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// mapAPIError converts transport and API failures into coded errors so the
// pipeline can react without inspecting message text.
func mapAPIError(stage string, err error) *errors.ChatError {
	if stderrors.Is(err, context.Canceled) {
		return errors.Canceled(stage, err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(stage, "model request deadline exceeded")
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401:
			return errors.Unauthorized(stage, "model service rejected credentials", err)
		case apiErr.HTTPStatusCode == 429:
			return errors.RateLimited(stage, "model service rate limit exceeded", err)
		case isContextLengthError(apiErr):
			return errors.BudgetExceeded(stage, "request exceeds the model context window, reduce the context or output budget", err)
		case apiErr.HTTPStatusCode >= 500:
			return errors.Connection(stage, "model service unavailable", err)
		default:
			return errors.Internal(stage, "model request failed", err)
		}
	}

	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 401 {
			return errors.Unauthorized(stage, "model service rejected credentials", err)
		}
		return errors.Connection(stage, "model service unreachable", err)
	}

	return errors.Connection(stage, "model service unreachable", err)
}

func isContextLengthError(apiErr *openai.APIError) bool {
	if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
		return true
	}
	return apiErr.HTTPStatusCode == 400 && strings.Contains(apiErr.Message, "maximum context length")
}
