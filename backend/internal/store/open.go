package store

import (
	"context"
	"fmt"

	"memgraph/backend/pkg/config"
	apperrors "memgraph/backend/pkg/errors"
	"memgraph/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Open connects to the backend selected by cfg.StoreBackend and verifies it
// is reachable
func Open(ctx context.Context, cfg *config.Config) (DocumentStore, error) {
	log := logger.For(logger.Store)

	switch cfg.StoreBackend {
	case config.BackendNeo4j:
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			return nil, apperrors.NewStoreConnectionFailed(cfg.StoreBackend, cfg.Neo4jURI, err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			return nil, apperrors.NewStoreConnectionFailed(cfg.StoreBackend, cfg.Neo4jURI, err)
		}

		s := NewNeo4jStore(driver, cfg.Neo4jDatabase)
		if err := s.EnsureSchema(ctx); err != nil {
			log.Warn("Failed to ensure schema", zap.Error(err))
		}
		log.Info("Connected to Neo4j", zap.String("uri", cfg.Neo4jURI))
		return s, nil

	case config.BackendSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, apperrors.NewStoreConnectionFailed(cfg.StoreBackend, cfg.SQLitePath, err)
		}
		log.Info("Opened SQLite store", zap.String("path", cfg.SQLitePath))
		return s, nil

	case config.BackendMemory:
		log.Info("Using in-memory store")
		return NewMemoryStore(), nil

	default:
		return nil, apperrors.NewConfigValidationFailed("STORE_BACKEND",
			fmt.Sprintf("unsupported backend %q", cfg.StoreBackend))
	}
}
