package store

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelFor(t *testing.T) {
	label, err := labelFor(NodesCollection)
	require.NoError(t, err)
	assert.Equal(t, "GraphNode", label)

	label, err = labelFor(EdgesCollection)
	require.NoError(t, err)
	assert.Equal(t, "GraphEdge", label)

	_, err = labelFor("users")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

// TestNeo4jStore_Integration needs a running server; set NEO4J_URI to enable
func TestNeo4jStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), ""))
	require.NoError(t, err)
	require.NoError(t, driver.VerifyConnectivity(ctx))

	s := NewNeo4jStore(driver, os.Getenv("NEO4J_DATABASE"))
	defer s.Close(ctx)
	require.NoError(t, s.EnsureSchema(ctx))

	require.NoError(t, s.Write(ctx, func(tx Tx) error {
		if err := tx.DeleteAll(ctx, NodesCollection); err != nil {
			return err
		}
		return tx.Insert(ctx, NodesCollection,
			Document{"concept": "integration", "fragments": []string{"one", "two"}})
	}))

	docs, err := s.Find(ctx, NodesCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "integration", GetString(docs[0], "concept", ""))
	assert.Equal(t, []interface{}{"one", "two"}, docs[0]["fragments"])

	err = s.Write(ctx, func(tx Tx) error {
		return tx.Insert(ctx, "users", Document{"id": "u"})
	})
	assert.ErrorIs(t, err, ErrUnknownCollection)

	require.NoError(t, s.Write(ctx, func(tx Tx) error {
		return tx.DeleteAll(ctx, NodesCollection)
	}))
}
