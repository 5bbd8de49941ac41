package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safety-insight/internal/config"
	"safety-insight/internal/eval"
	"safety-insight/internal/http"
	"safety-insight/internal/llm"
	"safety-insight/internal/logging"
	"safety-insight/internal/metrics"
	"safety-insight/internal/rag"
	"safety-insight/internal/service"
	"safety-insight/internal/storage"
	"safety-insight/internal/vectorstore"
	"safety-insight/internal/web"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer func() {
		_ = logCloser.Close()
	}()
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat, "file", cfg.LogFile)

	ctx := context.Background()

	openaiCfg := llm.Config{
		Endpoint:   cfg.OpenAIEndpoint,
		APIKey:     cfg.OpenAIAPIKey,
		APIVersion: cfg.OpenAIAPIVersion,
	}
	embedder := llm.NewEmbeddingsClient(openaiCfg, cfg.EmbeddingDeployment)
	chatClient := llm.NewClient(openaiCfg, cfg.ChatDeployment)

	index, closeIndex := newIndex(cfg)
	defer closeIndex(ctx)
	slog.Info("Vector index configured", "backend", cfg.SearchBackend)

	retriever := rag.NewRetriever(embedder, index, cfg.SearchTopK, cfg.SimilarityThreshold)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	evalOpts, closeEval := newEvalOptions(cfg, chatClient)
	defer closeEval()

	chatService := service.NewChatService(retriever, chatClient, service.Options{
		Persona:     cfg.ChatPersona,
		Temperature: cfg.ChatTemperature,
		Prompt:      rag.PromptBuilder{Domain: cfg.PromptDomain},
		Eval:        evalOpts,
		Metrics:     m,
	})

	router := http.NewRouter(&http.Deps{
		ChatService:  chatService,
		Index:        index,
		IndexBackend: cfg.SearchBackend,
		IndexHTML:    web.IndexHTML,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Azure OpenAI configuration", "endpoint", cfg.OpenAIEndpoint, "chat_deployment", cfg.ChatDeployment, "embedding_deployment", cfg.EmbeddingDeployment)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// newIndex builds the vector index for the configured backend. Connection
// problems surface on the first search or health check, not here.
func newIndex(cfg *config.Config) (vectorstore.Index, func(context.Context)) {
	noop := func(context.Context) {}

	switch cfg.SearchBackend {
	case "qdrant":
		index, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		return index, noop
	case "milvus":
		index := vectorstore.NewMilvusIndex(vectorstore.MilvusConfig{
			Address:    cfg.MilvusAddress,
			Username:   cfg.MilvusUsername,
			Password:   cfg.MilvusPassword,
			Collection: cfg.MilvusCollection,
		})
		return index, func(ctx context.Context) {
			if err := index.Close(ctx); err != nil {
				slog.Warn("Failed to close Milvus client", "error", err)
			}
		}
	default:
		return vectorstore.NewAzureSearchIndex(cfg.SearchEndpoint, cfg.SearchIndexName, cfg.SearchAPIKey, cfg.SearchAPIVersion), noop
	}
}

// newEvalOptions loads the ground truth and wires the evaluator and its log.
// Evaluation stays disabled when the backend is "none" or no ground truth loads.
func newEvalOptions(cfg *config.Config, completer eval.Completer) (service.EvalOptions, func()) {
	noop := func() {}
	opts := service.EvalOptions{ReferenceField: cfg.GroundTruthField}

	if cfg.EvalBackend == "none" {
		slog.Info("Evaluation disabled")
		return opts, noop
	}

	groundTruth, err := eval.LoadGroundTruth(cfg.GroundTruthPath)
	if err != nil {
		slog.Warn("Ground truth unavailable, evaluation disabled", "path", cfg.GroundTruthPath, "error", err)
		return opts, noop
	}
	if len(groundTruth) == 0 {
		slog.Warn("Ground truth is empty, evaluation disabled", "path", cfg.GroundTruthPath)
		return opts, noop
	}
	opts.GroundTruth = groundTruth

	switch cfg.EvalBackend {
	case "http":
		opts.Evaluator = eval.NewHTTPEvaluator(cfg.EvalEndpoint, cfg.EvalAPIKey)
	case "llm":
		judgeClient := completer
		if cfg.EvalDeployment != cfg.ChatDeployment {
			judgeClient = llm.NewClient(llm.Config{
				Endpoint:   cfg.OpenAIEndpoint,
				APIKey:     cfg.OpenAIAPIKey,
				APIVersion: cfg.OpenAIAPIVersion,
			}, cfg.EvalDeployment)
		}
		opts.Evaluator = eval.NewLLMJudge(judgeClient)
	}

	closer := noop
	switch cfg.EvalLogBackend {
	case "sqlite":
		db, err := openEvalDB(cfg.EvalDBPath)
		if err != nil {
			log.Fatalf("Failed to open evaluation database: %v", err)
		}
		opts.Log = storage.NewSQLiteEvalLog(db)
		closer = func() {
			_ = db.Close()
		}
		slog.Info("Evaluation log initialized", "backend", "sqlite", "path", cfg.EvalDBPath)
	default:
		opts.Log = storage.NewFileEvalLog(cfg.EvalLogPath)
		slog.Info("Evaluation log initialized", "backend", "file", "path", cfg.EvalLogPath)
	}

	slog.Info("Evaluation enabled", "backend", cfg.EvalBackend, "ground_truth_entries", len(groundTruth), "reference_field", cfg.GroundTruthField)
	return opts, closer
}

func openEvalDB(path string) (*sql.DB, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
