// Package profile holds the runtime configuration for the server.
package profile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Driver is the storage driver (postgres, sqlite or milvus).
	Driver string
	// DSN points to the backing database for postgres/sqlite. With the
	// milvus driver an optional DSN names a sqlite database that carries
	// conversations alongside the vector store.
	DSN string
	// Version is the current version of the server.
	Version string

	// Milvus connection settings, used when Driver is "milvus".
	MilvusAddress         string
	MilvusDocCollection   string
	MilvusChunkCollection string
	MilvusVectorDimension int

	// AI provider settings.
	AIBaseURL        string
	AIAPIKey         string
	AIEmbeddingModel string
	AIChatModel      string
	AITimeout        time.Duration

	// Retrieval defaults. SearchMode selects the gateway variant:
	// "flat" searches whole documents, "hybrid" searches chunks and
	// hydrates parent documents.
	SearchMode        string
	ResultCount       int
	ContextWordBudget int
	MaxOutputTokens   int
	Temperature       float32

	// PersonaDir is the directory of persona YAML files. Empty disables
	// the registry and every request uses the neutral analyst stance.
	PersonaDir string

	// Fallback facet values served when the store is unreachable.
	FallbackAuthors     []string
	FallbackSourceTypes []string

	// FacetCacheTTL bounds facet list staleness.
	FacetCacheTTL time.Duration

	// MaxConcurrentStreams caps simultaneous generation streams.
	MaxConcurrentStreams int64
}

// IsDev returns true unless the profile runs in prod mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Load reads configuration from an optional config file and from
// SCHOLARSTREAM_* environment variables, env taking precedence.
func Load(configFile string) (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("scholarstream")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8230)
	v.SetDefault("driver", "postgres")
	v.SetDefault("dsn", "")
	v.SetDefault("milvus.address", "localhost:19530")
	v.SetDefault("milvus.doc_collection", "scholar_documents")
	v.SetDefault("milvus.chunk_collection", "scholar_chunks")
	v.SetDefault("milvus.dimension", 1536)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.chat_model", "gpt-4o")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("search.mode", "hybrid")
	v.SetDefault("search.result_count", 5)
	v.SetDefault("search.context_word_budget", 8000)
	v.SetDefault("search.max_output_tokens", 800)
	v.SetDefault("search.temperature", 0.7)
	v.SetDefault("persona.dir", "")
	v.SetDefault("facets.fallback_authors", []string{})
	v.SetDefault("facets.fallback_source_types", []string{})
	v.SetDefault("facets.cache_ttl", "1h")
	v.SetDefault("max_concurrent_streams", 8)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	p := &Profile{
		Mode:                  v.GetString("mode"),
		Addr:                  v.GetString("addr"),
		Port:                  v.GetInt("port"),
		Driver:                v.GetString("driver"),
		DSN:                   v.GetString("dsn"),
		MilvusAddress:         v.GetString("milvus.address"),
		MilvusDocCollection:   v.GetString("milvus.doc_collection"),
		MilvusChunkCollection: v.GetString("milvus.chunk_collection"),
		MilvusVectorDimension: v.GetInt("milvus.dimension"),
		AIBaseURL:             v.GetString("ai.base_url"),
		AIAPIKey:              v.GetString("ai.api_key"),
		AIEmbeddingModel:      v.GetString("ai.embedding_model"),
		AIChatModel:           v.GetString("ai.chat_model"),
		AITimeout:             v.GetDuration("ai.timeout"),
		SearchMode:            v.GetString("search.mode"),
		ResultCount:           v.GetInt("search.result_count"),
		ContextWordBudget:     v.GetInt("search.context_word_budget"),
		MaxOutputTokens:       v.GetInt("search.max_output_tokens"),
		Temperature:           float32(v.GetFloat64("search.temperature")),
		PersonaDir:            v.GetString("persona.dir"),
		FallbackAuthors:       v.GetStringSlice("facets.fallback_authors"),
		FallbackSourceTypes:   v.GetStringSlice("facets.fallback_source_types"),
		FacetCacheTTL:         v.GetDuration("facets.cache_ttl"),
		MaxConcurrentStreams:  v.GetInt64("max_concurrent_streams"),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate normalizes the profile and rejects unusable combinations.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}

	switch p.Driver {
	case "postgres", "milvus":
	case "sqlite":
		// SQLite carries conversations only; vector search needs
		// postgres or milvus and fails with an explicit error there.
	default:
		return errors.Errorf("unknown driver %q: only postgres, sqlite and milvus are supported", p.Driver)
	}

	if (p.Driver == "postgres" || p.Driver == "sqlite") && p.DSN == "" {
		return errors.New("dsn is required for the " + p.Driver + " driver")
	}

	if p.SearchMode != "flat" && p.SearchMode != "hybrid" {
		return errors.Errorf("unknown search mode %q: only flat and hybrid are supported", p.SearchMode)
	}

	if p.AITimeout <= 0 {
		p.AITimeout = 30 * time.Second
	}
	if p.FacetCacheTTL <= 0 {
		p.FacetCacheTTL = time.Hour
	}
	if p.MaxConcurrentStreams <= 0 {
		p.MaxConcurrentStreams = 8
	}
	if p.ContextWordBudget <= 0 {
		p.ContextWordBudget = 8000
	}

	return nil
}
