package di

import (
	"context"
	"fmt"
	"log/slog"

	"travel-rag/internal/adapter/gemini"
	"travel-rag/internal/adapter/ollama"
	"travel-rag/internal/adapter/openai"
	"travel-rag/internal/adapter/rag_http"
	"travel-rag/internal/adapter/repository"
	"travel-rag/internal/adapter/vectorstore/memory"
	"travel-rag/internal/adapter/vectorstore/pgvector"
	"travel-rag/internal/adapter/vectorstore/qdrant"
	"travel-rag/internal/corpus"
	"travel-rag/internal/domain"
	"travel-rag/internal/infra"
	"travel-rag/internal/infra/config"
	"travel-rag/internal/usecase"
	"travel-rag/internal/usecase/retrieval"
	"travel-rag/internal/worker"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Adapters
	Index   domain.VectorIndex
	Encoder domain.VectorEncoder
	LLM     domain.LLMClient
	JobRepo domain.IndexJobRepository

	// Retrieval
	Retriever *retrieval.HybridRetriever

	// Usecases
	AnswerUsecase    usecase.AnswerWithRAGUsecase
	AssistantUsecase usecase.AssistantUsecase
	RetrieveUsecase  usecase.RetrieveContextUsecase
	IndexUsecase     usecase.IndexCorpusUsecase
	Advisor          *usecase.QueryAdvisor

	Worker  *worker.JobWorker
	Handler *rag_http.Handler

	closers []func()
}

// NewApplicationComponents wires every service once from cfg.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	c := &ApplicationComponents{}

	clients := &providerClients{}
	encoder, err := c.newEncoder(ctx, cfg, clients, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	llm, err := c.newLLM(ctx, cfg, clients, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Encoder = encoder
	c.LLM = llm

	if err := c.newStorage(ctx, cfg, log); err != nil {
		c.Close()
		return nil, err
	}

	retrievalCfg := RetrievalConfig(cfg)

	var retrieverOpts []retrieval.HybridOption
	if cfg.Cache.Size > 0 && cfg.Cache.TTL > 0 {
		retrieverOpts = append(retrieverOpts, retrieval.WithCandidateCache(retrieval.NewCandidateCache(cfg.Cache.Size, cfg.Cache.TTL)))
	}
	c.Retriever = retrieval.NewHybridRetriever(
		c.Encoder, c.Index, retrieval.NewBM25Scorer(log), retrievalCfg.Hybrid, log, retrieverOpts...,
	)

	generator := usecase.NewAnswerGenerator(
		c.LLM,
		usecase.NewTravelPromptBuilder(retrievalCfg.HistoryTurns),
		retrievalCfg.Retry,
		retrievalCfg.MaxTokens,
		log,
	)
	gaps := retrieval.NewGapDetector(cfg.RAG.RelevanceThreshold, cfg.RAG.CoverageCountry)

	c.AnswerUsecase = usecase.NewAnswerWithRAGUsecase(c.Retriever, generator, gaps, retrievalCfg, log)
	c.AssistantUsecase = usecase.NewAssistantUsecase(usecase.NewIntentRouter(), c.AnswerUsecase, log)
	c.RetrieveUsecase = usecase.NewRetrieveContextUsecase(c.Retriever, retrievalCfg, log)
	c.IndexUsecase = usecase.NewIndexCorpusUsecase(
		c.Encoder, c.Index, c.Retriever, cfg.Index.BatchSize, cfg.Index.Concurrency, log,
	)
	c.Advisor = usecase.NewQueryAdvisor()

	c.Worker = worker.NewJobWorker(c.JobRepo, c.IndexUsecase, corpus.Resolve, log)
	c.Handler = rag_http.NewHandler(c.AssistantUsecase, c.RetrieveUsecase, c.Advisor, c.Index, c.JobRepo, log)

	log.Info("application_components_ready",
		slog.String("vector_backend", cfg.Vector.Backend),
		slog.String("embedder", c.Encoder.Version()),
		slog.String("llm", c.LLM.Version()),
		slog.Float64("hybrid_alpha", cfg.Hybrid.Alpha))

	return c, nil
}

// RetrievalConfig maps the environment config onto the pipeline settings.
func RetrievalConfig(cfg *config.Config) usecase.RetrievalConfig {
	return usecase.RetrievalConfig{
		DefaultMaxResults: cfg.RAG.DefaultMaxResults,
		HistoryTurns:      cfg.RAG.HistoryTurns,
		RetrievalTimeout:  cfg.RAG.RetrievalTimeout,
		GenerationTimeout: cfg.RAG.GenerationTimeout,
		MaxTokens:         cfg.LLM.MaxTokens,
		Hybrid: retrieval.HybridConfig{
			Alpha:     cfg.Hybrid.Alpha,
			RRFK:      cfg.Hybrid.RRFK,
			Overfetch: cfg.Hybrid.Overfetch,
		},
		Retry: usecase.RetryPolicy{
			Attempts:  cfg.Retry.Attempts,
			BaseDelay: cfg.Retry.BaseDelay,
			MaxDelay:  cfg.Retry.MaxDelay,
		},
	}
}

// Close releases pools and SDK clients in reverse creation order.
func (c *ApplicationComponents) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// providerClients shares one SDK client between the embedder and the LLM
// when both use the same provider.
type providerClients struct {
	gemini *genai.Client
	openai *goopenai.Client
}

func (c *ApplicationComponents) geminiClient(ctx context.Context, cfg *config.Config, clients *providerClients) (*genai.Client, error) {
	if clients.gemini != nil {
		return clients.gemini, nil
	}
	client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	clients.gemini = client
	c.closers = append(c.closers, func() { _ = client.Close() })
	return client, nil
}

func (c *ApplicationComponents) openaiClient(cfg *config.Config, clients *providerClients) *goopenai.Client {
	if clients.openai == nil {
		clients.openai = openai.NewClient(cfg.LLM.OpenAIAPIKey, "")
	}
	return clients.openai
}

func (c *ApplicationComponents) newEncoder(ctx context.Context, cfg *config.Config, clients *providerClients, log *slog.Logger) (domain.VectorEncoder, error) {
	ec := cfg.Embedder
	switch ec.Provider {
	case config.ProviderOllama:
		return ollama.NewEmbedder(ec.URL, ec.Model, ec.Dimension, ec.Timeout, log), nil
	case config.ProviderGemini:
		client, err := c.geminiClient(ctx, cfg, clients)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, ec.Model, ec.Dimension, log), nil
	case config.ProviderOpenAI:
		return openai.NewEmbedder(c.openaiClient(cfg, clients), ec.Model, ec.Dimension, log), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", ec.Provider)
	}
}

func (c *ApplicationComponents) newLLM(ctx context.Context, cfg *config.Config, clients *providerClients, log *slog.Logger) (domain.LLMClient, error) {
	lc := cfg.LLM
	switch lc.Provider {
	case config.ProviderOllama:
		return ollama.NewGenerator(lc.URL, lc.Model, lc.Temperature, lc.Timeout, log), nil
	case config.ProviderGemini:
		client, err := c.geminiClient(ctx, cfg, clients)
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(client, lc.Model, lc.Temperature, log), nil
	case config.ProviderOpenAI:
		return openai.NewGenerator(c.openaiClient(cfg, clients), lc.Model, lc.Temperature, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", lc.Provider)
	}
}

// newStorage picks the vector backend. Jobs live in Postgres only when the
// pgvector backend already needs a pool.
func (c *ApplicationComponents) newStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	vc := cfg.Vector
	switch vc.Backend {
	case config.BackendMemory:
		c.Index = memory.New(vc.Collection)
		c.JobRepo = repository.NewMemoryJobRepository()
	case config.BackendQdrant:
		c.Index = qdrant.New(vc.QdrantURL, vc.Collection, vc.QdrantAPIKey, vc.QdrantTimeout, log)
		c.JobRepo = repository.NewMemoryJobRepository()
	case config.BackendPGVector:
		pool, err := infra.NewPostgresPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("pgvector backend: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		return c.newPostgresStorage(ctx, pool, vc.Collection)
	default:
		return fmt.Errorf("unknown vector backend %q", vc.Backend)
	}
	return nil
}

func (c *ApplicationComponents) newPostgresStorage(ctx context.Context, pool *pgxpool.Pool, table string) error {
	index, err := pgvector.New(pool, repository.NewPostgresTransactionManager(pool), table)
	if err != nil {
		return err
	}
	jobs := repository.NewIndexJobRepository(pool)
	if err := jobs.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("index job schema: %w", err)
	}
	c.Index = index
	c.JobRepo = jobs
	return nil
}
