package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Corpus    CorpusConfig
	Retrieval RetrievalConfig
	Session   SessionConfig
	Cache     CacheConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BodyLimitMB        int
	InstanceName       string // names this instance's NATS consumer
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMProvider    string // "ollama" or "huggingface"
	LLMModel       string
	LLMBaseURL     string
	HuggingFaceKey string
	ParserURL      string // optional document parsing service for pdf/docx
}

type CorpusConfig struct {
	Root  string
	Watch bool
}

type RetrievalConfig struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	Temperature         float64
	ListLimits          []int
}

type SessionConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	IdleTTL   time.Duration
}

type CacheConfig struct {
	Driver string // "memory" or "redis"
	TTL    time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string // host:port of an OTLP/HTTP collector
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 50),
			InstanceName:       getEnv("INSTANCE_NAME", hostname()),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
			ParserURL:      getEnv("PARSER_URL", ""),
		},
		Corpus: CorpusConfig{
			Root:  getEnv("DOCS_ROOT", "docs"),
			Watch: getEnvAsBool("CORPUS_WATCH", true),
		},
		Retrieval: RetrievalConfig{
			ChunkSize:           getEnvAsInt("CHUNK_SIZE", 1500),
			ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 150),
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 4),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.3),
			Temperature:         getEnvAsFloat("LLM_TEMPERATURE", 0.1),
			ListLimits:          getEnvAsIntList("LISTING_LIMITS", []int{100, 10000}),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
			TokenTTL:  getEnvAsDuration("SESSION_TOKEN_TTL", 24*time.Hour),
			IdleTTL:   getEnvAsDuration("SESSION_IDLE_TTL", time.Hour),
		},
		Cache: CacheConfig{
			Driver: getEnv("CACHE_DRIVER", "memory"),
			TTL:    getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "study-assistant-backend"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "local"
	}
	return name
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsIntList parses a comma separated list such as "100,10000".
func getEnvAsIntList(key string, fallback []int) []int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return fallback
		}
		out = append(out, n)
	}
	return out
}
