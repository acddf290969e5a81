// Package v1 exposes the chat, facet and conversation endpoints.
package v1

import (
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/server/middleware"
	"github.com/scholarstream/scholarstream/server/rag"
	"github.com/scholarstream/scholarstream/store"
)

// chatRateInterval grants one chat turn per interval per client, with a
// small burst. Generation streams are the expensive resource here.
const (
	chatRateInterval = 6 * time.Second
	chatRateBurst    = 3
)

// APIV1Service wires the pipeline into the HTTP routes.
type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Engine   *rag.Engine
	Personas *persona.Registry

	chatLimiter *middleware.RateLimiter
	// streamSemaphore caps simultaneous generation streams so a burst of
	// chat turns cannot exhaust upstream quota.
	streamSemaphore *semaphore.Weighted
}

// NewAPIV1Service assembles the service and its pipeline.
func NewAPIV1Service(p *profile.Profile, s *store.Store, provider ai.Provider, personas *persona.Registry) *APIV1Service {
	return &APIV1Service{
		Profile:         p,
		Store:           s,
		Engine:          rag.NewEngine(s, provider, personas, p),
		Personas:        personas,
		chatLimiter:     middleware.NewRateLimiter(chatRateInterval, chatRateBurst),
		streamSemaphore: semaphore.NewWeighted(p.MaxConcurrentStreams),
	}
}

// Register binds the routes onto the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/chat", s.Chat)

	g.GET("/facets", s.GetFacets)
	g.POST("/facets/refresh", s.RefreshFacets)
	g.GET("/personas", s.ListPersonas)

	g.POST("/conversations", s.CreateConversation)
	g.GET("/conversations", s.ListConversations)
	g.GET("/conversations/:uid/messages", s.ListConversationMessages)
	g.DELETE("/conversations/:uid", s.DeleteConversation)
}
