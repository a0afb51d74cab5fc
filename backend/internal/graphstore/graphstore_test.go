package graphstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/observe"
	"memgraph/backend/internal/store"
	apperrors "memgraph/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newTestStore(t *testing.T, docs store.DocumentStore) *Store {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	require.NoError(t, err)
	return New(docs, WithMetrics(m), WithLogger(zap.NewNop()))
}

func sampleGraph() *graph.Graph {
	g := graph.New()
	g.AddFragment("A", "x")
	g.AddFragment("A", "y")
	g.AddFragment("B", "z")
	g.Connect("A", "B")
	g.Connect("B", "C")
	return g
}

// failingStore fails reads or writes on demand
type failingStore struct {
	store.DocumentStore
	failWrite    error
	failFindColl string
}

func (f *failingStore) Write(ctx context.Context, fn func(tx store.Tx) error) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	return f.DocumentStore.Write(ctx, fn)
}

func (f *failingStore) Find(ctx context.Context, collection string) ([]store.Document, error) {
	if collection == f.failFindColl {
		return nil, errors.New("connection reset")
	}
	return f.DocumentStore.Find(ctx, collection)
}

func TestRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) store.DocumentStore{
		"memory": func(t *testing.T) store.DocumentStore { return store.NewMemoryStore() },
		"sqlite": func(t *testing.T) store.DocumentStore {
			s, err := store.NewSQLiteStore(context.Background(), ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close(context.Background()) })
			return s
		},
	}

	for name, newDocs := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			gs := newTestStore(t, newDocs(t))

			require.NoError(t, gs.Save(ctx, sampleGraph()))

			loaded, err := gs.LoadGraph(ctx)
			require.NoError(t, err)

			assert.Equal(t, []graph.Node{
				{Concept: "A", Fragments: []string{"x", "y"}},
				{Concept: "B", Fragments: []string{"z"}},
				{Concept: "C", Fragments: []string{}},
			}, loaded.Nodes())
			assert.Equal(t, []graph.Edge{
				{Source: "A", Target: "B"},
				{Source: "B", Target: "C"},
			}, loaded.Edges())

			first, second := loaded.Related("A", 2)
			assert.Equal(t, []string{"x", "y"}, first)
			assert.Equal(t, []string{"z"}, second)
		})
	}
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	gs := newTestStore(t, docs)

	require.NoError(t, gs.Save(ctx, sampleGraph()))

	small := graph.New()
	small.AddFragment("only", "one")
	require.NoError(t, gs.Save(ctx, small))

	nodeDocs, err := docs.Find(ctx, store.NodesCollection)
	require.NoError(t, err)
	require.Len(t, nodeDocs, 1)
	assert.Equal(t, "only", nodeDocs[0]["concept"])

	edgeDocs, err := docs.Find(ctx, store.EdgesCollection)
	require.NoError(t, err)
	assert.Empty(t, edgeDocs)
}

func TestSave_EmptyGraph(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	gs := newTestStore(t, docs)

	require.NoError(t, gs.Save(ctx, sampleGraph()))
	require.NoError(t, gs.Save(ctx, graph.New()))

	loaded, err := gs.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
	assert.Equal(t, 0, loaded.EdgeCount())
}

func TestSave_WriteFailure(t *testing.T) {
	ctx := context.Background()
	docs := &failingStore{DocumentStore: store.NewMemoryStore(), failWrite: errors.New("disk full")}
	gs := newTestStore(t, docs)

	err := gs.Save(ctx, sampleGraph())
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStore))

	var writeErr *apperrors.ErrStoreWriteFailed
	assert.True(t, errors.As(err, &writeErr))
}

func TestLoad_ReplacesState(t *testing.T) {
	ctx := context.Background()
	gs := newTestStore(t, store.NewMemoryStore())
	require.NoError(t, gs.Save(ctx, sampleGraph()))

	target := graph.New()
	target.AddFragment("stale", "should vanish")
	require.NoError(t, gs.Load(ctx, target))

	_, ok := target.Node("stale")
	assert.False(t, ok)
	assert.Equal(t, 3, target.Len())
}

func TestLoad_ReadFailureLeavesGraphUntouched(t *testing.T) {
	for _, coll := range []string{store.NodesCollection, store.EdgesCollection} {
		t.Run(coll, func(t *testing.T) {
			ctx := context.Background()
			inner := store.NewMemoryStore()
			require.NoError(t, newTestStore(t, inner).Save(ctx, sampleGraph()))

			gs := newTestStore(t, &failingStore{DocumentStore: inner, failFindColl: coll})
			target := graph.New()
			target.AddFragment("existing", "kept")

			err := gs.Load(ctx, target)
			require.Error(t, err)

			var readErr *apperrors.ErrStoreReadFailed
			require.True(t, errors.As(err, &readErr))
			assert.Equal(t, coll, readErr.Collection)

			node, ok := target.Node("existing")
			require.True(t, ok)
			assert.Equal(t, []string{"kept"}, node.Fragments)
			assert.Equal(t, 1, target.Len())
		})
	}
}

func TestLoad_LegacyAndInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	require.NoError(t, docs.Write(ctx, func(tx store.Tx) error {
		if err := tx.Insert(ctx, store.NodesCollection,
			store.Document{"concept": "single", "fragments": "lone memory"},
			store.Document{"concept": "legacy", "memory_items": []interface{}{"old"}},
			store.Document{"concept": "bare"},
			store.Document{"fragments": []string{"orphan"}},
		); err != nil {
			return err
		}
		return tx.Insert(ctx, store.EdgesCollection,
			store.Document{"source": "single", "target": "ghost"},
			store.Document{"source": "single"},
		)
	}))

	g, err := newTestStore(t, docs).LoadGraph(ctx)
	require.NoError(t, err)

	single, _ := g.Node("single")
	assert.Equal(t, []string{"lone memory"}, single.Fragments)

	legacy, _ := g.Node("legacy")
	assert.Equal(t, []string{"old"}, legacy.Fragments)

	bare, ok := g.Node("bare")
	require.True(t, ok)
	assert.Equal(t, []string{}, bare.Fragments)

	ghost, ok := g.Node("ghost")
	require.True(t, ok, "edge endpoints missing from nodes are created")
	assert.Empty(t, ghost.Fragments)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 1, g.EdgeCount())
}

// pausingStore blocks the first edge read until release is closed
type pausingStore struct {
	store.DocumentStore
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newPausingStore(inner store.DocumentStore) *pausingStore {
	return &pausingStore{
		DocumentStore: inner,
		reached:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (p *pausingStore) Find(ctx context.Context, collection string) ([]store.Document, error) {
	if collection == store.EdgesCollection {
		paused := false
		p.once.Do(func() { paused = true })
		if paused {
			close(p.reached)
			<-p.release
		}
	}
	return p.DocumentStore.Find(ctx, collection)
}

func TestUpdate_WaitsForLoadInProgress(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	seed := graph.New()
	seed.AddFragment("A", "old")
	require.NoError(t, newTestStore(t, inner).Save(ctx, seed))

	docs := newPausingStore(inner)
	gs := newTestStore(t, docs)
	g := graph.New()

	loadDone := make(chan error, 1)
	go func() { loadDone <- gs.Load(ctx, g) }()
	<-docs.reached

	updateDone := make(chan error, 1)
	go func() {
		updateDone <- gs.Update(ctx, g, func() { g.AddFragment("A", "new") })
	}()

	select {
	case err := <-updateDone:
		t.Fatalf("update finished while a load was in progress: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(docs.release)
	require.NoError(t, <-loadDone)
	require.NoError(t, <-updateDone)

	node, ok := g.Node("A")
	require.True(t, ok)
	assert.Equal(t, []string{"old", "new"}, node.Fragments)

	stored, err := newTestStore(t, inner).LoadGraph(ctx)
	require.NoError(t, err)
	storedNode, ok := stored.Node("A")
	require.True(t, ok)
	assert.Equal(t, node.Fragments, storedNode.Fragments, "graph and store agree")
}

func TestUpdate_AppliesEvenWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	docs := &failingStore{DocumentStore: store.NewMemoryStore(), failWrite: errors.New("disk full")}
	g := graph.New()

	err := newTestStore(t, docs).Update(ctx, g, func() { g.AddFragment("A", "x") })
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStore))
	assert.Equal(t, 1, g.Len())
}
