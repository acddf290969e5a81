package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/store"
)

func doRequest(t *testing.T, svc *APIV1Service, handler echo.HandlerFunc, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGetFacets(t *testing.T) {
	driver := store.NewMockDriver()
	driver.Authors = []string{"A", "B"}
	driver.SourceTypes = []string{"video"}

	svc := newTestService(t, driver, &ai.MockProvider{})
	rec := doRequest(t, svc, svc.GetFacets, http.MethodGet, "/api/v1/facets")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authors": ["A", "B"], "source_types": ["video"]}`, rec.Body.String())
}

func TestRefreshFacetsInvalidatesCache(t *testing.T) {
	driver := store.NewMockDriver()
	driver.Authors = []string{"A"}

	svc := newTestService(t, driver, &ai.MockProvider{})
	doRequest(t, svc, svc.GetFacets, http.MethodGet, "/api/v1/facets")

	driver.Authors = []string{"A", "B"}
	rec := doRequest(t, svc, svc.RefreshFacets, http.MethodPost, "/api/v1/facets/refresh")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, svc, svc.GetFacets, http.MethodGet, "/api/v1/facets")
	assert.Contains(t, rec.Body.String(), `"B"`)
}

func TestListPersonasAlwaysIncludesNeutral(t *testing.T) {
	svc := newTestService(t, store.NewMockDriver(), &ai.MockProvider{})

	rec := doRequest(t, svc, svc.ListPersonas, http.MethodGet, "/api/v1/personas")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"voice":"neutral"`)
}
