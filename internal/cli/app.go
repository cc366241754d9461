package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/UdonsiKalu/denialguard/internal/cache"
	"github.com/UdonsiKalu/denialguard/internal/correct"
	"github.com/UdonsiKalu/denialguard/internal/crosswalk"
	"github.com/UdonsiKalu/denialguard/internal/evidence"
	"github.com/UdonsiKalu/denialguard/internal/llm"
	"github.com/UdonsiKalu/denialguard/internal/logging"
	"github.com/UdonsiKalu/denialguard/internal/model"
	"github.com/UdonsiKalu/denialguard/internal/pipeline"
	"github.com/UdonsiKalu/denialguard/internal/policyindex"
	"github.com/UdonsiKalu/denialguard/internal/rulesdb"
	"github.com/UdonsiKalu/denialguard/internal/worker"
)

// loadConfig merges the viper-resolved config file and environment over the
// defaults, then resolves API keys from the environment.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg
}

// app holds the wired pipeline and the handles it must release.
type app struct {
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
	db       *rulesdb.DB
	store    *policyindex.Store
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing policy index")
		}
	}
}

// unreachableIndex stands in for the policy store when it cannot be opened.
// Searches fail, which the retriever degrades to empty results.
type unreachableIndex struct{ err error }

func (u unreachableIndex) Collections(context.Context) ([]string, error) { return nil, u.err }

func (u unreachableIndex) SearchFiltered(context.Context, string, []float32, []string, int) ([]model.PolicyExcerpt, error) {
	return nil, u.err
}

func (u unreachableIndex) SearchSemantic(context.Context, string, []float32, int) ([]model.PolicyExcerpt, error) {
	return nil, u.err
}

// buildApp wires every component from configuration. External services that
// cannot be reached leave their component in degraded mode; only contract
// errors (a misconfigured LLM provider) fail construction.
func buildApp(ctx context.Context, cfg *model.Config) (*app, error) {
	log := logging.Setup(cfg.Log.Format, cfg.Log.Level)
	registry := model.Archetypes()

	var (
		crosswalkCache cache.Cache = cache.NopCache{}
		embedCache     cache.Cache = cache.NopCache{}
	)
	if cfg.Cache.Enabled {
		crosswalkCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		embedCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cacheDir(cfg), cfg.Cache.DiskTTL)
	}

	a := &app{log: log}

	var db rulesdb.Querier
	if cfg.Database.DSN != "" {
		conn, err := rulesdb.Open(ctx, cfg.Database.DSN, cfg.Database.MaxConns, log)
		if err != nil {
			log.Warn().Err(err).Msg("rules database unavailable, evidence will use fallbacks")
		} else {
			a.db = conn
			db = conn
		}
	} else {
		log.Warn().Msg("no database DSN configured, evidence will use fallbacks")
	}

	var index policyindex.Searcher
	store, err := policyindex.Open(cfg.PolicyIndex.Path, log)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.PolicyIndex.Path).Msg("policy index unavailable, retrieval will return no excerpts")
		index = unreachableIndex{err: err}
	} else {
		a.store = store
		index = store
	}

	limiter := worker.NewLimiter(cfg.RateLimit.GeneratePerSecond, cfg.RateLimit.Burst)
	limiter.SetServiceRate("embed", cfg.RateLimit.EmbedPerSecond, cfg.RateLimit.Burst)

	embedder := policyindex.NewOpenAIEmbedder(
		cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model,
		embedCache, limiter, log)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("configure LLM provider: %w", err)
	}
	if provider == nil {
		log.Warn().Msg("no LLM provider configured, corrections will use deterministic fallbacks")
	}

	resolver := crosswalk.NewResolver(db, crosswalkCache, log)
	aggregator := evidence.NewAggregator(db, resolver, registry, nil, log)
	retriever := policyindex.NewRetriever(index, embedder, registry,
		cfg.PolicyIndex.TopK, cfg.PolicyIndex.MaxResults, cfg.Concurrency.SearchWorkers, log)
	synthesizer := correct.NewSynthesizer(provider, registry, resolver, limiter, log)

	a.pipeline = pipeline.New(retriever, aggregator, synthesizer, cfg.Concurrency.IssueWorkers, log)
	return a, nil
}

func cacheDir(cfg *model.Config) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".denialguard-cache"
	}
	return filepath.Join(home, ".denialguard", "cache")
}
