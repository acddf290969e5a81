package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scholarstream/scholarstream/internal/persona"
)

// FacetsResponse lists the filterable category values.
type FacetsResponse struct {
	Authors     []string `json:"authors"`
	SourceTypes []string `json:"source_types"`
}

// GetFacets returns the author and source type filter values. Lists are
// cached; a store failure degrades to the configured fallback lists.
func (s *APIV1Service) GetFacets(c echo.Context) error {
	ctx := c.Request().Context()

	authors, err := s.Store.ListAuthors(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list authors")
	}
	sourceTypes, err := s.Store.ListSourceTypes(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list source types")
	}

	return c.JSON(http.StatusOK, FacetsResponse{
		Authors:     authors,
		SourceTypes: sourceTypes,
	})
}

// RefreshFacets drops the cached facet lists so the next lookup hits the
// store.
func (s *APIV1Service) RefreshFacets(c echo.Context) error {
	s.Store.RefreshFacets()
	return c.NoContent(http.StatusNoContent)
}

// PersonaView is the API shape of a persona.
type PersonaView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Voice       string `json:"voice"`
	Description string `json:"description,omitempty"`
}

// ListPersonas returns the loaded personas plus the neutral default.
func (s *APIV1Service) ListPersonas(c echo.Context) error {
	views := []PersonaView{personaView(persona.Neutral())}
	for _, p := range s.Personas.List() {
		views = append(views, personaView(p))
	}
	return c.JSON(http.StatusOK, views)
}

func personaView(p *persona.Persona) PersonaView {
	return PersonaView{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Voice:       p.Voice,
		Description: p.Description,
	}
}
