package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Vector backends.
const (
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
)

// Model providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Vector    VectorConfig
	Embedder  EmbedderConfig
	LLM       LLMConfig
	Hybrid    HybridConfig
	RAG       RAGConfig
	Retry     RetryConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Index     IndexConfig
	OTel      OTelConfig
	LogLevel  string
}

type ServerConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
}

// DSN builds the pgx connection string.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

type VectorConfig struct {
	Backend       string
	Collection    string
	QdrantURL     string
	QdrantAPIKey  string
	QdrantTimeout time.Duration
}

type EmbedderConfig struct {
	Provider  string
	URL       string
	Model     string
	Dimension int
	Timeout   time.Duration
}

type LLMConfig struct {
	Provider     string
	URL          string
	Model        string
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
	GeminiAPIKey string
	OpenAIAPIKey string
}

type HybridConfig struct {
	Alpha     float64
	RRFK      float64
	Overfetch int
}

type RAGConfig struct {
	DefaultMaxResults  int
	HistoryTurns       int
	RelevanceThreshold float64
	CoverageCountry    string
	RetrievalTimeout   time.Duration
	GenerationTimeout  time.Duration
}

type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type IndexConfig struct {
	BatchSize   int
	Concurrency int
	OnStartup   bool
}

type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	SampleRatio    float64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "9010"),
			Env:  getEnv("ENV", "development"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "travel_rag"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "travel_rag"),
			Name:     getEnv("DB_NAME", "travel_rag"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Vector: VectorConfig{
			Backend:       strings.ToLower(getEnv("VECTOR_BACKEND", BackendMemory)),
			Collection:    getEnv("VECTOR_COLLECTION", "travel_documents"),
			QdrantURL:     getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey:  getSecret("QDRANT_API_KEY", "QDRANT_API_KEY_FILE", ""),
			QdrantTimeout: getEnvDuration("QDRANT_TIMEOUT", 10*time.Second),
		},
		Embedder: EmbedderConfig{
			Provider:  strings.ToLower(getEnv("EMBEDDER_PROVIDER", ProviderOllama)),
			URL:       getEnvWithAlt("EMBEDDER_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 768),
			Timeout:   getEnvDuration("EMBEDDER_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
			URL:          getEnvWithAlt("LLM_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:        getEnv("LLM_MODEL", "llama3.1"),
			Timeout:      getEnvDuration("LLM_TIMEOUT", 120*time.Second),
			MaxTokens:    getEnvInt("LLM_MAX_TOKENS", 2048),
			Temperature:  getEnvFloat("LLM_TEMPERATURE", 0.7),
			GeminiAPIKey: getSecretWithAlt("GEMINI_API_KEY", "GEMINI_API_KEY_FILE", "GOOGLE_API_KEY"),
			OpenAIAPIKey: getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		},
		Hybrid: HybridConfig{
			Alpha:     getEnvFloat("RAG_HYBRID_ALPHA", 0.7),
			RRFK:      getEnvFloat("RAG_RRF_K", 60),
			Overfetch: getEnvInt("RAG_OVERFETCH", 2),
		},
		RAG: RAGConfig{
			DefaultMaxResults:  getEnvInt("RAG_DEFAULT_MAX_RESULTS", 5),
			HistoryTurns:       getEnvInt("RAG_HISTORY_TURNS", 5),
			RelevanceThreshold: getEnvFloat("RAG_RELEVANCE_THRESHOLD", 0.65),
			CoverageCountry:    getEnv("RAG_COVERAGE_COUNTRY", "India"),
			RetrievalTimeout:   getEnvDuration("RAG_RETRIEVAL_TIMEOUT", 5*time.Second),
			GenerationTimeout:  getEnvDuration("RAG_GENERATION_TIMEOUT", 60*time.Second),
		},
		Retry: RetryConfig{
			Attempts:  getEnvInt("RAG_RETRY_ATTEMPTS", 3),
			BaseDelay: getEnvDuration("RAG_RETRY_BASE_DELAY", 2*time.Second),
			MaxDelay:  getEnvDuration("RAG_RETRY_MAX_DELAY", 10*time.Second),
		},
		Cache: CacheConfig{
			Size: getEnvInt("RAG_CACHE_SIZE", 256),
			TTL:  getEnvDuration("RAG_CACHE_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Index: IndexConfig{
			BatchSize:   getEnvInt("INDEX_BATCH_SIZE", 8),
			Concurrency: getEnvInt("INDEX_CONCURRENCY", 4),
			OnStartup:   getEnvBool("INDEX_ON_STARTUP", true),
		},
		OTel: OTelConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "travel-rag"),
			ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio:    getEnvFloat("OTEL_TRACE_SAMPLE_RATIO", 1.0),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Vector.Backend {
	case BackendMemory, BackendQdrant, BackendPGVector:
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_BACKEND %q", c.Vector.Backend))
	}
	if !knownProvider(c.Embedder.Provider) {
		errs = append(errs, fmt.Errorf("unknown EMBEDDER_PROVIDER %q", c.Embedder.Provider))
	}
	if !knownProvider(c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.LLM.Provider == ProviderGemini && c.LLM.GeminiAPIKey == "" || c.Embedder.Provider == ProviderGemini && c.LLM.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.OpenAIAPIKey == "" || c.Embedder.Provider == ProviderOpenAI && c.LLM.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
	}
	if c.Hybrid.Alpha < 0 || c.Hybrid.Alpha > 1 {
		errs = append(errs, fmt.Errorf("RAG_HYBRID_ALPHA must be in [0.0, 1.0], got %v", c.Hybrid.Alpha))
	}
	if c.Hybrid.RRFK <= 0 {
		errs = append(errs, fmt.Errorf("RAG_RRF_K must be positive, got %v", c.Hybrid.RRFK))
	}
	if c.RAG.DefaultMaxResults < 1 || c.RAG.DefaultMaxResults > 20 {
		errs = append(errs, fmt.Errorf("RAG_DEFAULT_MAX_RESULTS must be between 1 and 20, got %d", c.RAG.DefaultMaxResults))
	}
	if c.RAG.RelevanceThreshold < 0 || c.RAG.RelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("RAG_RELEVANCE_THRESHOLD must be in [0.0, 1.0], got %v", c.RAG.RelevanceThreshold))
	}

	positive := map[string]int64{
		"EMBEDDING_DIMENSION":    int64(c.Embedder.Dimension),
		"LLM_MAX_TOKENS":         int64(c.LLM.MaxTokens),
		"RAG_RETRY_ATTEMPTS":     int64(c.Retry.Attempts),
		"RAG_RETRIEVAL_TIMEOUT":  int64(c.RAG.RetrievalTimeout),
		"RAG_GENERATION_TIMEOUT": int64(c.RAG.GenerationTimeout),
		"RATE_LIMIT_BURST":       int64(c.RateLimit.Burst),
		"INDEX_BATCH_SIZE":       int64(c.Index.BatchSize),
		"INDEX_CONCURRENCY":      int64(c.Index.Concurrency),
		"DB_MAX_CONNS":           int64(c.DB.MaxConns),
	}
	for _, key := range slices.Sorted(maps.Keys(positive)) {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	if c.RateLimit.RPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RPS))
	}

	return errors.Join(errs...)
}

func knownProvider(p string) bool {
	switch p {
	case ProviderOllama, ProviderGemini, ProviderOpenAI:
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getSecretWithAlt(envKey, fileEnvKey, altKey string) string {
	return getSecret(envKey, fileEnvKey, getEnv(altKey, ""))
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
