package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memgraph/backend/internal/adapter"
	"memgraph/backend/internal/api"
	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/graphstore"
	"memgraph/backend/internal/ingest"
	"memgraph/backend/internal/memorize"
	"memgraph/backend/internal/observe"
	"memgraph/backend/internal/store"
	"memgraph/backend/pkg/config"
	"memgraph/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// app holds everything the server wires together
type app struct {
	graph     *graph.Graph
	docs      store.DocumentStore
	snapshots *graphstore.Store
	router    *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	snapshots := graphstore.New(docs)
	if err := snapshots.Load(ctx, g); err != nil {
		// Start empty rather than refuse to serve
		log.Warn("Failed to load graph snapshot, starting empty", zap.Error(err))
	}

	client := adapter.NewTextClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		adapter.WithTemperature(float32(cfg.LLMTemperature)),
		adapter.WithMaxAttempts(cfg.LLMMaxAttempts),
		adapter.WithBaseWait(cfg.LLMBaseWait),
	)
	memorizer := memorize.New(client, g,
		memorize.WithPersister(snapshots),
		memorize.WithTopics(cfg.MemorizeTopics),
	)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetch := func(ctx context.Context, url string) (string, error) {
		return ingest.FetchPageText(ctx, httpClient, url)
	}

	router := api.NewRouter(api.Deps{
		Graph:       g,
		Snapshots:   snapshots,
		Memorizer:   memorizer,
		Fetch:       fetch,
		RecallDepth: cfg.RecallDepth,
		Logger:      log,
	})

	return &app{graph: g, docs: docs, snapshots: snapshots, router: router}, nil
}

// shutdown saves the graph and closes the store
func (a *app) shutdown(ctx context.Context, log *zap.Logger) {
	if err := a.snapshots.Save(ctx, a.graph); err != nil {
		log.Error("Failed to save graph on shutdown", zap.Error(err))
	}
	if err := a.docs.Close(ctx); err != nil {
		log.Error("Failed to close store", zap.Error(err))
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...", zap.String("store", cfg.StoreBackend))

	ctx := context.Background()
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize server", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.shutdown(shutdownCtx, log)
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}

	log.Info("Server exited")
}
