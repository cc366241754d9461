package policyindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/UdonsiKalu/denialguard/internal/cache"
	"github.com/UdonsiKalu/denialguard/internal/worker"
)

// Embedder turns a search query into a vector. Tests substitute fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder embeds queries via an OpenAI-compatible embeddings endpoint
// (OpenAI itself, or Ollama's /v1 shim for local models). Results are cached:
// archetype query text repeats heavily across issues of the same claim.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	cache   cache.Cache
	limiter *worker.Limiter
	log     zerolog.Logger
}

// NewOpenAIEmbedder creates an embedder. cache and limiter may be nil.
func NewOpenAIEmbedder(apiKey, baseURL, model string, c cache.Cache, limiter *worker.Limiter, log zerolog.Logger) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if c == nil {
		c = cache.NopCache{}
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		cache:   c,
		limiter: limiter,
		log:     log,
	}
}

// Embed returns the embedding for text, from cache when possible.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embed", e.model+":"+text)
	if data, ok := e.cache.Get(key); ok {
		var vec []float32
		if err := json.Unmarshal(data, &vec); err == nil {
			return vec, nil
		}
		// Corrupt entry: fall through and re-embed.
		_ = e.cache.Delete(key)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, "embed"); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Data[0].Embedding
	if data, err := json.Marshal(vec); err == nil {
		if err := e.cache.Set(key, data, 0); err != nil {
			e.log.Debug().Err(err).Msg("failed to cache embedding")
		}
	}
	return vec, nil
}
