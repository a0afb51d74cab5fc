package store

import (
	"context"
	"fmt"

	"memgraph/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Labels backing each collection. Only these collections can be stored in
// Neo4j; documents become property maps on standalone nodes.
var neo4jLabels = map[string]string{
	NodesCollection: "GraphNode",
	EdgesCollection: "GraphEdge",
}

// Neo4jStore maps collections to node labels
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore wraps an open driver. database may be empty for the
// server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.For(logger.StoreNeo4j),
	}
}

func labelFor(collection string) (string, error) {
	label, ok := neo4jLabels[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return label, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// EnsureSchema creates the lookup index on concept names
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `CREATE INDEX graph_node_concept IF NOT EXISTS FOR (d:GraphNode) ON (d.concept)`
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t *neo4jTx) DeleteAll(ctx context.Context, collection string) error {
	label, err := labelFor(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("MATCH (d:%s) DETACH DELETE d", label)
	result, err := t.tx.Run(ctx, query, nil)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	_, err = result.Consume(ctx)
	return err
}

func (t *neo4jTx) Insert(ctx context.Context, collection string, docs ...Document) error {
	label, err := labelFor(collection)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UNWIND $docs AS doc
		CREATE (d:%s)
		SET d = doc
	`, label)
	result, err := t.tx.Run(ctx, query, map[string]interface{}{
		"docs": toParams(docs),
	})
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	_, err = result.Consume(ctx)
	return err
}

// Write implements DocumentStore. fn runs inside a managed write
// transaction and may be re-run by the driver on transient failures.
func (s *Neo4jStore) Write(ctx context.Context, fn func(tx Tx) error) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return nil, fn(&neo4jTx{tx: tx})
	})
	return err
}

// Find implements DocumentStore. Neo4j keeps no insertion order.
func (s *Neo4jStore) Find(ctx context.Context, collection string) ([]Document, error) {
	label, err := labelFor(collection)
	if err != nil {
		return nil, err
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (d:%s) RETURN properties(d) AS doc", label)
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	docs := []Document{}
	for result.Next(ctx) {
		if doc := getDocumentFromRecord(result.Record(), "doc"); doc != nil {
			docs = append(docs, doc)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	s.logger.Debug("Loaded documents",
		zap.String("collection", collection),
		zap.Int("count", len(docs)),
	)
	return docs, nil
}

// Close implements DocumentStore
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
