package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/scholarstream/scholarstream/internal/errors"
	"github.com/scholarstream/scholarstream/internal/observability"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/server/rag"
	"github.com/scholarstream/scholarstream/store"
)

// conversationTitleLimit bounds the title derived from the first message.
const conversationTitleLimit = 64

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message         string `json:"message"`
	ConversationUID string `json:"conversation_uid"`
	Author          string `json:"author"`
	SourceType      string `json:"source_type"`
	ResultCount     int    `json:"result_count"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	Persona         string `json:"persona"`
	Mode            string `json:"mode"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

type donePayload struct {
	Text            string `json:"text"`
	ConversationUID string `json:"conversation_uid"`
}

type deltaPayload struct {
	Text string `json:"text"`
}

// Chat runs one turn and streams the answer as server-sent events: one
// "sources" event, then "delta" events, then "done" or "error". The
// user message is persisted before generation; the assistant message is
// persisted only when the stream completes, so a mid-stream failure
// leaves no assistant row.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	if !s.chatLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded: wait before sending another message")
	}
	if !s.streamSemaphore.TryAcquire(1) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many concurrent chats, retry shortly")
	}
	defer s.streamSemaphore.Release(1)

	mode := req.Mode
	if mode == "" {
		mode = s.Profile.SearchMode
	}
	reqCtx := observability.NewRequestContext(slog.Default(), mode, req.ConversationUID)
	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	conv, history, err := s.resolveConversation(ctx, &req)
	if err != nil {
		return s.writeError(c, reqCtx, err)
	}
	reqCtx.ConversationUID = conv.UID

	now := time.Now().Unix()
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		Role:           store.MessageRoleUser,
		Content:        req.Message,
		CreatedTs:      now,
	}); err != nil {
		return s.writeError(c, reqCtx, errors.Internal(errors.StageStore, "failed to persist message", err))
	}

	result, err := s.Engine.Answer(ctx, rag.Query{
		Question: req.Message,
		History:  history,
		Facets: rag.Facets{
			Author:     req.Author,
			SourceType: req.SourceType,
		},
		ResultCount:     req.ResultCount,
		MaxOutputTokens: req.MaxOutputTokens,
		Persona:         req.Persona,
		Mode:            mode,
	})
	if err != nil {
		return s.writeError(c, reqCtx, err)
	}

	if err := writeEvent(c, "sources", result.Sources); err != nil {
		return err
	}

	var answer strings.Builder
	fragments, errs := result.Fragments, result.Errs
	for fragments != nil || errs != nil {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				fragments = nil
				continue
			}
			answer.WriteString(fragment)
			if err := writeEvent(c, "delta", deltaPayload{Text: fragment}); err != nil {
				return err
			}
		case streamErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// Partial text is discarded, not persisted.
			return s.writeError(c, reqCtx, streamErr)
		case <-ctx.Done():
			reqCtx.Info("client disconnected, abandoning stream")
			return nil
		}
	}

	sourcesJSON, err := json.Marshal(result.Sources)
	if err != nil {
		return s.writeError(c, reqCtx, errors.Internal(errors.StageStore, "failed to encode sources", err))
	}
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		Role:           store.MessageRoleAssistant,
		Content:        answer.String(),
		SourcesJSON:    string(sourcesJSON),
		CreatedTs:      time.Now().Unix(),
	}); err != nil {
		return s.writeError(c, reqCtx, errors.Internal(errors.StageStore, "failed to persist message", err))
	}

	reqCtx.Info("chat turn completed",
		slog.Int("sources", len(result.Sources)),
		slog.Int("answer_chars", answer.Len()),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))

	return writeEvent(c, "done", donePayload{
		Text:            answer.String(),
		ConversationUID: conv.UID,
	})
}

// resolveConversation loads the conversation named by the request, or
// creates one titled after the first message. Prior turns are returned
// as generator history; retrieval never reads them.
func (s *APIV1Service) resolveConversation(ctx context.Context, req *ChatRequest) (*store.Conversation, []ai.Message, error) {
	if req.ConversationUID != "" {
		conv, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &req.ConversationUID})
		if err != nil {
			return nil, nil, errors.Internal(errors.StageStore, "failed to load conversation", err)
		}
		if conv == nil {
			return nil, nil, errors.InvalidArgument("unknown conversation: " + req.ConversationUID)
		}

		messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conv.ID})
		if err != nil {
			return nil, nil, errors.Internal(errors.StageStore, "failed to load conversation history", err)
		}
		history := make([]ai.Message, 0, len(messages))
		for _, m := range messages {
			switch m.Role {
			case store.MessageRoleAssistant:
				history = append(history, ai.AssistantMessage(m.Content))
			default:
				history = append(history, ai.UserMessage(m.Content))
			}
		}
		return conv, history, nil
	}

	now := time.Now().Unix()
	conv, err := s.Store.CreateConversation(ctx, &store.Conversation{
		UID:       newConversationUID(),
		Title:     deriveTitle(req.Message),
		Persona:   req.Persona,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return nil, nil, errors.Internal(errors.StageStore, "failed to create conversation", err)
	}
	return conv, nil, nil
}

func (s *APIV1Service) writeError(c echo.Context, reqCtx *observability.RequestContext, err error) error {
	code := errors.CodeOf(err, errors.ErrCodeInternal)
	stage := errors.StageOf(err)

	if code == errors.ErrCodeEmptyResult {
		reqCtx.Info("no relevant sources for the question")
	} else {
		reqCtx.Error("chat turn failed", err,
			slog.String(observability.LogFieldErrorCode, string(code)),
			slog.String(observability.LogFieldStage, stage))
	}

	return writeEvent(c, "error", errorPayload{
		Code:    string(code),
		Stage:   stage,
		Message: userMessage(code, err),
	})
}

// userMessage maps a coded error to remediation guidance shown to the
// user. Internal details stay in the logs.
func userMessage(code errors.ErrorCode, err error) string {
	switch code {
	case errors.ErrCodeEmptyResult:
		return "No relevant content found for this question with the current filters."
	case errors.ErrCodeBudgetExceeded:
		return "The retrieved context is too large, lower the result count or the output length."
	case errors.ErrCodeRateLimitExceeded:
		return "The model service is rate limiting requests, wait a moment and resubmit."
	case errors.ErrCodeConnectionFailed:
		return "A backing service is unreachable, try again later."
	case errors.ErrCodeUnauthorized:
		return "The model service rejected the configured credentials."
	case errors.ErrCodeInvalidArgument:
		return err.Error()
	default:
		return "The request failed unexpectedly."
	}
}

func writeEvent(c echo.Context, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

func deriveTitle(message string) string {
	title := strings.TrimSpace(message)
	// Cut on a rune boundary so multi-byte text stays valid UTF-8.
	if runes := []rune(title); len(runes) > conversationTitleLimit {
		title = string(runes[:conversationTitleLimit])
	}
	return title
}

func newConversationUID() string {
	return shortuuid.New()
}
