package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	_ "github.com/askdb-ai/askdb-engine/pkg/adapters/datasource/mssql"
	_ "github.com/askdb-ai/askdb-engine/pkg/adapters/datasource/postgres"
	"github.com/askdb-ai/askdb-engine/pkg/agent"
	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
	"github.com/askdb-ai/askdb-engine/pkg/config"
	"github.com/askdb-ai/askdb-engine/pkg/database"
	"github.com/askdb-ai/askdb-engine/pkg/handlers"
	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/logging"
	"github.com/askdb-ai/askdb-engine/pkg/repositories"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting askdb-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	if err := database.RunMigrations(&cfg.Database, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	completionClient, err := llm.NewCompletionClient(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("llm client setup failed", zap.Error(err))
	}
	embeddingClient, err := llm.NewEmbeddingClient(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("embedding client setup failed", zap.Error(err))
	}

	credentials := datasource.NewCredentialCache(time.Duration(cfg.Datasource.CredentialTTLMinutes) * time.Minute)
	defer credentials.Stop()

	queryTimeout := time.Duration(cfg.Datasource.QueryTimeoutSeconds) * time.Second
	connectTimeout := time.Duration(cfg.Datasource.ConnectTimeoutSeconds) * time.Second
	openExecutor := func(ctx context.Context, datasourceID uuid.UUID) (datasource.QueryExecutor, string, error) {
		creds, ok := credentials.Get(datasourceID.String())
		if !ok {
			return nil, "", fmt.Errorf("datasource %s: %w", datasourceID, apperrors.ErrNoCredentials)
		}
		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		executor, err := datasource.NewExecutor(dialCtx, creds, logger)
		if err != nil {
			return nil, "", err
		}
		return datasource.WithTimeout(executor, queryTimeout), creds.Driver, nil
	}

	searcher := search.NewSearcher(pool, embeddingClient, cfg.LLM.EmbeddingModel, logger)
	insightRepo := repositories.NewTableInsightRepository(pool)
	valueSearcher := agent.NewEmbeddingValueSearcher(embeddingClient, cfg.LLM.EmbeddingModel, logger)
	resolver := agent.NewValueResolver(valueSearcher, &cfg.Agent, logger)
	workflowAgent := agent.NewAgent(completionClient, searcher, insightRepo, resolver, openExecutor, &cfg.Agent, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(workflowAgent, credentials, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
