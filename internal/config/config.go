package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Azure OpenAI
	OpenAIEndpoint      string
	OpenAIAPIKey        string
	OpenAIAPIVersion    string
	EmbeddingDeployment string
	ChatDeployment      string

	// Vector search
	SearchBackend       string // azure, qdrant or milvus
	SearchEndpoint      string
	SearchIndexName     string
	SearchAPIKey        string
	SearchAPIVersion    string
	QdrantURL           string
	QdrantCollection    string
	MilvusAddress       string
	MilvusUsername      string
	MilvusPassword      string
	MilvusCollection    string
	SimilarityThreshold float64
	SearchTopK          int

	// Generation
	ChatPersona     string
	ChatTemperature float32
	PromptDomain    string

	// Evaluation
	EvalBackend      string // none, http or llm
	EvalEndpoint     string
	EvalAPIKey       string
	EvalDeployment   string
	GroundTruthPath  string
	GroundTruthField string // context or answer
	EvalLogBackend   string // file or sqlite
	EvalLogPath      string
	EvalDBPath       string

	// Server
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
	LogFile   string
}

// Batch runner defaults, used when the BATCH_* variables are unset.
const (
	DefaultBatchEndpoint = "http://127.0.0.1:5001/chat"
	DefaultBatchInput    = "questions.csv"
	DefaultBatchOutput   = "batch_results.json"
	DefaultBatchDelay    = 2 * time.Second
	DefaultBatchTimeout  = 180 * time.Second
)

// DefaultBatchConfig returns the batch configuration without any environment overrides.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		Endpoint: DefaultBatchEndpoint,
		Input:    DefaultBatchInput,
		Output:   DefaultBatchOutput,
		Delay:    DefaultBatchDelay,
		Timeout:  DefaultBatchTimeout,
	}
}

// BatchConfig holds configuration for the batch runner.
type BatchConfig struct {
	Endpoint string
	Input    string
	Output   string
	Delay    time.Duration
	Timeout  time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// Collaborator credentials are not validated here; a missing endpoint or key
// shows up as a failed call once a request reaches that collaborator.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		OpenAIEndpoint:      getEnv("AZURE_OPENAI_ENDPOINT", ""),
		OpenAIAPIKey:        getEnv("AZURE_OPENAI_API_KEY", ""),
		OpenAIAPIVersion:    getEnv("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
		EmbeddingDeployment: getEnv("AZURE_OPENAI_EMB_DEPLOYMENT_NAME", ""),
		ChatDeployment:      getEnv("AZURE_OPENAI_CHATGPT_DEPLOYMENT", ""),

		SearchBackend:    strings.ToLower(getEnv("SEARCH_BACKEND", "azure")),
		SearchEndpoint:   getEnv("AZURE_SEARCH_ENDPOINT", ""),
		SearchIndexName:  getEnv("AZURE_SEARCH_INDEX_NAME", ""),
		SearchAPIKey:     getEnv("AZURE_SEARCH_API_KEY", ""),
		SearchAPIVersion: getEnv("AZURE_SEARCH_API_VERSION", "2024-07-01"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "osha-documents"),
		MilvusAddress:    getEnv("MILVUS_ADDRESS", "localhost:19530"),
		MilvusUsername:   getEnv("MILVUS_USERNAME", ""),
		MilvusPassword:   getEnv("MILVUS_PASSWORD", ""),
		MilvusCollection: getEnv("MILVUS_COLLECTION", "osha_documents"),

		ChatPersona:  getEnv("CHAT_PERSONA", "You are OSHA Safety Insight, an expert on workplace safety."),
		PromptDomain: getEnv("PROMPT_DOMAIN", "OSHA workplace safety"),

		EvalBackend:      strings.ToLower(getEnv("EVAL_BACKEND", "none")),
		EvalEndpoint:     getEnv("EVAL_ENDPOINT", ""),
		EvalAPIKey:       getEnv("EVAL_API_KEY", ""),
		EvalDeployment:   getEnv("EVAL_DEPLOYMENT", ""),
		GroundTruthPath:  getEnv("GROUND_TRUTH_PATH", "ground_truth.json"),
		GroundTruthField: strings.ToLower(getEnv("GROUND_TRUTH_FIELD", "context")),
		EvalLogBackend:   strings.ToLower(getEnv("EVAL_LOG_BACKEND", "file")),
		EvalLogPath:      getEnv("EVAL_LOG_PATH", "evaluation_log.json"),
		EvalDBPath:       getEnv("EVAL_DB_PATH", "./data/evaluations.db"),

		APIPort:   getEnv("API_PORT", "5001"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if cfg.EvalDeployment == "" {
		cfg.EvalDeployment = cfg.ChatDeployment
	}

	threshold, err := strconv.ParseFloat(getEnv("SIMILARITY_THRESHOLD", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be a valid number: %w", err)
	}
	cfg.SimilarityThreshold = threshold

	topK, err := strconv.Atoi(getEnv("SEARCH_TOP_K", "5"))
	if err != nil {
		return nil, fmt.Errorf("SEARCH_TOP_K must be a valid integer: %w", err)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("SEARCH_TOP_K must be greater than 0")
	}
	cfg.SearchTopK = topK

	temperature, err := strconv.ParseFloat(getEnv("CHAT_TEMPERATURE", "0.3"), 32)
	if err != nil {
		return nil, fmt.Errorf("CHAT_TEMPERATURE must be a valid number: %w", err)
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("CHAT_TEMPERATURE must be between 0 and 2")
	}
	cfg.ChatTemperature = float32(temperature)

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	switch cfg.SearchBackend {
	case "azure", "qdrant", "milvus":
	default:
		return nil, fmt.Errorf("SEARCH_BACKEND must be one of azure, qdrant, milvus (got %q)", cfg.SearchBackend)
	}

	switch cfg.EvalBackend {
	case "none", "http", "llm":
	default:
		return nil, fmt.Errorf("EVAL_BACKEND must be one of none, http, llm (got %q)", cfg.EvalBackend)
	}

	switch cfg.GroundTruthField {
	case "context", "answer":
	default:
		return nil, fmt.Errorf("GROUND_TRUTH_FIELD must be context or answer (got %q)", cfg.GroundTruthField)
	}

	switch cfg.EvalLogBackend {
	case "file", "sqlite":
	default:
		return nil, fmt.Errorf("EVAL_LOG_BACKEND must be file or sqlite (got %q)", cfg.EvalLogBackend)
	}

	if cfg.EvalLogBackend == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.EvalDBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// LoadBatch reads batch runner defaults from the environment.
// Command-line flags override these values.
func LoadBatch() (*BatchConfig, error) {
	loadDotEnv()

	delay, err := time.ParseDuration(getEnv("BATCH_DELAY", DefaultBatchDelay.String()))
	if err != nil {
		return nil, fmt.Errorf("BATCH_DELAY must be a valid duration: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("BATCH_TIMEOUT", DefaultBatchTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("BATCH_TIMEOUT must be a valid duration: %w", err)
	}

	return &BatchConfig{
		Endpoint: getEnv("BATCH_ENDPOINT", DefaultBatchEndpoint),
		Input:    getEnv("BATCH_INPUT", DefaultBatchInput),
		Output:   getEnv("BATCH_OUTPUT", DefaultBatchOutput),
		Delay:    delay,
		Timeout:  timeout,
	}, nil
}

// loadDotEnv loads the first .env file found walking up from the working directory.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
