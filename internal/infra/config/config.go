package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Redis     RedisConfig
	Session   SessionConfig
	Corpus    CorpusConfig
	RAG       RAGConfig
	Embedder  EmbedderConfig
	Generator GeneratorConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	OTel      OTelConfig
}

type ServerConfig struct {
	Port            string
	AllowOrigins    []string
	MaxMessageChars int
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	URL         string
	DialTimeout time.Duration
	PoolSize    int
}

type SessionConfig struct {
	TTL         time.Duration
	ShapePolicy string
}

type CorpusConfig struct {
	Path             string
	BuildBatchSize   int
	BuildConcurrency int
}

type RAGConfig struct {
	TopK            int
	MaxSentences    int
	MaxContextChars int
	MaxNewTokens    int
	SystemPrompt    string
}

type EmbedderConfig struct {
	Backend    string
	OllamaURL  string
	Model      string
	OpenAIURL  string
	OpenAIKey  string
	Dimensions int
	Timeout    time.Duration
}

type GeneratorConfig struct {
	Backend     string
	OllamaURL   string
	Model       string
	OpenAIURL   string
	OpenAIKey   string
	Temperature float64
	Timeout     time.Duration
}

type CacheConfig struct {
	QuerySize int
	QueryTTL  time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	SampleRatio    float64
}

const DefaultSystemPrompt = "You are a helpful news assistant. Use the context to answer user questions."

func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "3001"),
			AllowOrigins:    splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
			MaxMessageChars: getEnvInt("CHAT_MAX_MESSAGE_CHARS", 4000),
			ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			URL:         getSecret("REDIS_URL", "REDIS_URL_FILE", "redis://localhost:6379/0"),
			DialTimeout: time.Duration(getEnvInt("REDIS_DIAL_TIMEOUT_SECONDS", 5)) * time.Second,
			PoolSize:    getEnvInt("REDIS_POOL_SIZE", 20),
		},
		Session: SessionConfig{
			TTL:         time.Duration(getEnvInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
			ShapePolicy: getEnv("SESSION_SHAPE_POLICY", "reset"),
		},
		Corpus: CorpusConfig{
			Path:             getEnv("CORPUS_PATH", "news_articles.json"),
			BuildBatchSize:   getEnvInt("CORPUS_BUILD_BATCH_SIZE", 16),
			BuildConcurrency: getEnvInt("CORPUS_BUILD_CONCURRENCY", 4),
		},
		RAG: RAGConfig{
			TopK:            getEnvInt("RAG_TOP_K", 3),
			MaxSentences:    getEnvInt("RAG_MAX_SENTENCES", 3),
			MaxContextChars: getEnvInt("RAG_MAX_CONTEXT_CHARS", 4000),
			MaxNewTokens:    getEnvInt("RAG_MAX_NEW_TOKENS", 512),
			SystemPrompt:    getEnv("RAG_SYSTEM_PROMPT", DefaultSystemPrompt),
		},
		Embedder: EmbedderConfig{
			Backend:    strings.ToLower(getEnv("EMBEDDER_BACKEND", "ollama")),
			OllamaURL:  getEnvWithAlt("EMBEDDER_OLLAMA_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIURL:  getEnvWithAlt("EMBEDDER_OPENAI_URL", "OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:  getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 384),
			Timeout:    time.Duration(getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Generator: GeneratorConfig{
			Backend:     strings.ToLower(getEnv("GENERATOR_BACKEND", "ollama")),
			OllamaURL:   getEnvWithAlt("GENERATOR_OLLAMA_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:       getEnv("GENERATOR_MODEL", "llama3.2"),
			OpenAIURL:   getEnvWithAlt("GENERATOR_OPENAI_URL", "OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:   getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
			Temperature: getEnvFloat64("GENERATOR_TEMPERATURE", 0.2),
			Timeout:     time.Duration(getEnvInt("GENERATOR_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Cache: CacheConfig{
			QuerySize: getEnvInt("QUERY_CACHE_SIZE", 1024),
			QueryTTL:  time.Duration(getEnvInt("QUERY_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvFloat64("RATE_LIMIT_RPS", 5),
			Burst:   getEnvInt("RATE_LIMIT_BURST", 10),
		},
		OTel: OTelConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "news-rag-chat"),
			ServiceVersion: getEnv("SERVICE_VERSION", "0.0.0"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio:    getEnvFloat64("OTEL_TRACE_SAMPLE_RATIO", 0.1),
		},
	}
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL must not be empty"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL_SECONDS must be positive, got %s", c.Session.TTL))
	}
	switch strings.ToLower(c.Session.ShapePolicy) {
	case "", "reset", "fail":
	default:
		errs = append(errs, fmt.Errorf("SESSION_SHAPE_POLICY must be reset or fail, got %q", c.Session.ShapePolicy))
	}
	if c.Server.MaxMessageChars <= 0 {
		errs = append(errs, errors.New("CHAT_MAX_MESSAGE_CHARS must be positive"))
	}
	if c.RAG.TopK < 0 {
		errs = append(errs, errors.New("RAG_TOP_K must not be negative"))
	}
	if c.RAG.MaxNewTokens <= 0 {
		errs = append(errs, errors.New("RAG_MAX_NEW_TOKENS must be positive"))
	}
	if c.Corpus.BuildBatchSize <= 0 || c.Corpus.BuildConcurrency <= 0 {
		errs = append(errs, errors.New("corpus build batch size and concurrency must be positive"))
	}
	switch c.Embedder.Backend {
	case "ollama", "hash":
	case "openai":
		if c.Embedder.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedder"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDER_BACKEND %q", c.Embedder.Backend))
	}
	if c.Embedder.Backend == "hash" && c.Embedder.Dimensions <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSIONS must be positive for the hash embedder"))
	}
	switch c.Generator.Backend {
	case "ollama", "echo":
	case "openai":
		if c.Generator.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai generator"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GENERATOR_BACKEND %q", c.Generator.Backend))
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACE_SAMPLE_RATIO must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getSecret prefers the plain variable, then the file named by fileEnvKey.
func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
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

func getEnvFloat64(key string, fallback float64) float64 {
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
