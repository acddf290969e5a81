package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scholarstream/scholarstream/store"
)

// CreateConversationRequest is the body of POST /api/v1/conversations.
type CreateConversationRequest struct {
	Title   string `json:"title"`
	Persona string `json:"persona"`
}

// ConversationView is the API shape of a conversation.
type ConversationView struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	Persona   string `json:"persona,omitempty"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
}

// MessageView is the API shape of a conversation message.
type MessageView struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	SourcesJSON string `json:"sources,omitempty"`
	CreatedTs   int64  `json:"created_ts"`
}

// CreateConversation starts an empty conversation.
func (s *APIV1Service) CreateConversation(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	now := time.Now().Unix()
	conv, err := s.Store.CreateConversation(c.Request().Context(), &store.Conversation{
		UID:       newConversationUID(),
		Title:     req.Title,
		Persona:   req.Persona,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
	}
	return c.JSON(http.StatusOK, conversationView(conv))
}

// ListConversations returns every conversation, newest first.
func (s *APIV1Service) ListConversations(c echo.Context) error {
	list, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}

	views := make([]ConversationView, 0, len(list))
	for _, conv := range list {
		views = append(views, conversationView(conv))
	}
	return c.JSON(http.StatusOK, views)
}

// ListConversationMessages returns the turns of one conversation in
// append order.
func (s *APIV1Service) ListConversationMessages(c echo.Context) error {
	conv, err := s.findConversationByUID(c)
	if err != nil {
		return err
	}

	messages, err := s.Store.ListMessages(c.Request().Context(), &store.FindMessage{ConversationID: &conv.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, MessageView{
			Role:        string(m.Role),
			Content:     m.Content,
			SourcesJSON: m.SourcesJSON,
			CreatedTs:   m.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, views)
}

// DeleteConversation removes a conversation and its messages.
func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	conv, err := s.findConversationByUID(c)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteConversation(c.Request().Context(), &store.DeleteConversation{ID: conv.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete conversation")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) findConversationByUID(c echo.Context) (*store.Conversation, error) {
	uid := c.Param("uid")
	if uid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "conversation uid is required")
	}

	conv, err := s.Store.GetConversation(c.Request().Context(), &store.FindConversation{UID: &uid})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if conv == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return conv, nil
}

func conversationView(conv *store.Conversation) ConversationView {
	return ConversationView{
		UID:       conv.UID,
		Title:     conv.Title,
		Persona:   conv.Persona,
		CreatedTs: conv.CreatedTs,
		UpdatedTs: conv.UpdatedTs,
	}
}
