package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	p := &Profile{
		Mode:       "staging", // unknown mode falls back to dev
		Driver:     "postgres",
		DSN:        "postgres://localhost:5432/scholar?sslmode=disable",
		SearchMode: "hybrid",
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 30*time.Second, p.AITimeout)
	assert.Equal(t, time.Hour, p.FacetCacheTTL)
	assert.Equal(t, int64(8), p.MaxConcurrentStreams)
	assert.Equal(t, 8000, p.ContextWordBudget)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "mysql", SearchMode: "flat"}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsMissingDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", SearchMode: "flat"}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsUnknownSearchMode(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "milvus", SearchMode: "fuzzy"}
	assert.Error(t, p.Validate())
}

func TestValidateAllowsMilvusWithoutDSN(t *testing.T) {
	p := &Profile{Mode: "prod", Driver: "milvus", SearchMode: "flat"}
	require.NoError(t, p.Validate())
	assert.False(t, p.IsDev())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCHOLARSTREAM_DRIVER", "milvus")
	t.Setenv("SCHOLARSTREAM_SEARCH_MODE", "flat")
	t.Setenv("SCHOLARSTREAM_AI_API_KEY", "sk-test")
	t.Setenv("SCHOLARSTREAM_PORT", "9000")

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "milvus", p.Driver)
	assert.Equal(t, "flat", p.SearchMode)
	assert.Equal(t, "sk-test", p.AIAPIKey)
	assert.Equal(t, 9000, p.Port)
	assert.Equal(t, "text-embedding-3-small", p.AIEmbeddingModel)
}
