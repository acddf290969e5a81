package ai

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/scholarstream/scholarstream/internal/errors"
)

// MockProvider is an in-memory Provider for tests. Fragments are streamed
// in order; a non-nil error interrupts the stream after FailAfter
// fragments have been sent, carrying the text streamed so far the way the
// real provider does.
type MockProvider struct {
	Vector    []float32
	EmbedErr  error
	Fragments []string
	StreamErr error
	FailAfter int

	// LastMessages records the messages of the most recent ChatStream call.
	LastMessages []Message
	// LastOptions records the options of the most recent ChatStream call.
	LastOptions GenerationOptions
}

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	return m.Vector, nil
}

func (m *MockProvider) ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error) {
	m.LastMessages = messages
	m.LastOptions = opts

	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		var streamed strings.Builder
		for i, fragment := range m.Fragments {
			if m.StreamErr != nil && i == m.FailAfter {
				errChan <- attachPartial(m.StreamErr, streamed.String())
				return
			}
			select {
			case contentChan <- fragment:
				streamed.WriteString(fragment)
			case <-ctx.Done():
				return
			}
		}
		if m.StreamErr != nil && m.FailAfter >= len(m.Fragments) {
			errChan <- attachPartial(m.StreamErr, streamed.String())
		}
	}()

	return contentChan, errChan
}

func attachPartial(err error, text string) error {
	var chatErr *errors.ChatError
	if stderrors.As(err, &chatErr) {
		return chatErr.WithPartial(text)
	}
	return err
}
