package ai

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstream/scholarstream/internal/errors"
)

func TestFormatMessages(t *testing.T) {
	history := []Message{
		UserMessage("first question"),
		AssistantMessage("first answer"),
	}

	messages := FormatMessages("you are helpful", "second question", history)

	assert.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "first question", messages[1].Content)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "second question", messages[3].Content)
}

func TestFormatMessagesNoSystemPrompt(t *testing.T) {
	messages := FormatMessages("", "question", nil)

	assert.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
}

func TestConvertMessagesRoles(t *testing.T) {
	converted := convertMessages([]Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
		{Role: "assistant", Content: "a"},
		{Role: "unknown", Content: "x"},
	})

	assert.Equal(t, openai.ChatMessageRoleSystem, converted[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, converted[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, converted[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, converted[3].Role)
}

func TestMapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{
			name: "unauthorized",
			err:  &openai.APIError{HTTPStatusCode: 401, Message: "invalid key"},
			code: errors.ErrCodeUnauthorized,
		},
		{
			name: "rate limited",
			err:  &openai.APIError{HTTPStatusCode: 429, Message: "slow down"},
			code: errors.ErrCodeRateLimitExceeded,
		},
		{
			name: "context length by code",
			err:  &openai.APIError{HTTPStatusCode: 400, Code: "context_length_exceeded"},
			code: errors.ErrCodeBudgetExceeded,
		},
		{
			name: "context length by message",
			err:  &openai.APIError{HTTPStatusCode: 400, Message: "This model's maximum context length is 128000 tokens"},
			code: errors.ErrCodeBudgetExceeded,
		},
		{
			name: "server error",
			err:  &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"},
			code: errors.ErrCodeConnectionFailed,
		},
		{
			name: "other api error",
			err:  &openai.APIError{HTTPStatusCode: 404, Message: "no such model"},
			code: errors.ErrCodeInternal,
		},
		{
			name: "transport failure",
			err:  assert.AnError,
			code: errors.ErrCodeConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapAPIError(errors.StageGenerate, tt.err)
			assert.True(t, errors.IsCode(mapped, tt.code), "got %v", mapped)
			assert.Equal(t, errors.StageGenerate, errors.StageOf(mapped))
		})
	}
}

func TestStreamErrorCarriesAccumulatedText(t *testing.T) {
	m := &MockProvider{
		Fragments: []string{"a ", "b"},
		StreamErr: errors.Connection(errors.StageGenerate, "stream dropped", nil),
		FailAfter: 2,
	}

	contents, errs := m.ChatStream(context.Background(), nil, GenerationOptions{})
	var streamed string
	for fragment := range contents {
		streamed += fragment
	}
	err := <-errs

	var chatErr *errors.ChatError
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, "a b", chatErr.Partial)
	assert.Equal(t, streamed, chatErr.Partial)
}
