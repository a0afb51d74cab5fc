// Package graphstore saves and loads whole graph snapshots through a
// document store. It holds no graph state of its own.
//
// Save, Load and Update on one Store are serialized, so a load never
// replaces changes that a concurrent update has already persisted.
package graphstore

import (
	"context"
	"sync"
	"time"

	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/observe"
	"memgraph/backend/internal/store"
	apperrors "memgraph/backend/pkg/errors"
	"memgraph/backend/pkg/logger"

	"go.uber.org/zap"
)

// Document field names
const (
	fieldConcept     = "concept"
	fieldFragments   = "fragments"
	fieldMemoryItems = "memory_items" // older snapshots
	fieldSource      = "source"
	fieldTarget      = "target"
)

// Store transcodes graphs to and from node and edge documents
type Store struct {
	mu      sync.Mutex // held for the whole of Save, Load and Update
	docs    store.DocumentStore
	metrics *observe.Metrics
	logger  *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithMetrics overrides the default metrics instance
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger overrides the component logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a snapshot store over docs
func New(docs store.DocumentStore, opts ...Option) *Store {
	s := &Store{docs: docs}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.logger == nil {
		s.logger = logger.For(logger.GraphStore)
	}
	return s
}

// Save overwrites the persisted snapshot with the current state of g. The
// old snapshot is removed and the new one written in a single store write.
func (s *Store) Save(ctx context.Context, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, g)
}

// Update runs apply and then saves g, with no Load or Save in between.
// apply always runs; the returned error comes from the save.
func (s *Store) Update(ctx context.Context, g *graph.Graph, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply()
	return s.save(ctx, g)
}

func (s *Store) save(ctx context.Context, g *graph.Graph) error {
	start := time.Now()
	nodes, edges := g.Snapshot()

	nodeDocs := make([]store.Document, 0, len(nodes))
	for _, n := range nodes {
		fragments := n.Fragments
		if fragments == nil {
			fragments = []string{}
		}
		nodeDocs = append(nodeDocs, store.Document{
			fieldConcept:   n.Concept,
			fieldFragments: fragments,
		})
	}

	edgeDocs := make([]store.Document, 0, len(edges))
	for _, e := range edges {
		edgeDocs = append(edgeDocs, store.Document{
			fieldSource: e.Source,
			fieldTarget: e.Target,
		})
	}

	err := s.docs.Write(ctx, func(tx store.Tx) error {
		if err := tx.DeleteAll(ctx, store.NodesCollection); err != nil {
			return apperrors.NewStoreWriteFailed(store.NodesCollection, err)
		}
		if err := tx.DeleteAll(ctx, store.EdgesCollection); err != nil {
			return apperrors.NewStoreWriteFailed(store.EdgesCollection, err)
		}
		if err := tx.Insert(ctx, store.NodesCollection, nodeDocs...); err != nil {
			return apperrors.NewStoreWriteFailed(store.NodesCollection, err)
		}
		if err := tx.Insert(ctx, store.EdgesCollection, edgeDocs...); err != nil {
			return apperrors.NewStoreWriteFailed(store.EdgesCollection, err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsErrorType(err, apperrors.ErrorTypeStore) {
			err = apperrors.NewStoreWriteFailed("", err)
		}
		s.logger.Error("Failed to save graph snapshot", zap.Error(err))
		return err
	}

	elapsed := time.Since(start)
	s.metrics.RecordSnapshot(ctx, "save", elapsed, len(nodeDocs), len(edgeDocs))
	s.logger.Info("Graph snapshot saved",
		zap.Int("nodes", len(nodeDocs)),
		zap.Int("edges", len(edgeDocs)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// Load replaces the state of g with the persisted snapshot. On error g is
// left as it was.
func (s *Store) Load(ctx context.Context, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	nodeDocs, err := s.docs.Find(ctx, store.NodesCollection)
	if err != nil {
		err = apperrors.NewStoreReadFailed(store.NodesCollection, err)
		s.logger.Error("Failed to load graph snapshot", zap.Error(err))
		return err
	}
	edgeDocs, err := s.docs.Find(ctx, store.EdgesCollection)
	if err != nil {
		err = apperrors.NewStoreReadFailed(store.EdgesCollection, err)
		s.logger.Error("Failed to load graph snapshot", zap.Error(err))
		return err
	}

	nodes := make([]graph.Node, 0, len(nodeDocs))
	for _, doc := range nodeDocs {
		concept := store.GetString(doc, fieldConcept, "")
		if concept == "" {
			s.logger.Warn("Skipping node document without concept", zap.Any("document", doc))
			continue
		}
		raw, _ := store.FirstOf(doc, fieldFragments, fieldMemoryItems)
		nodes = append(nodes, graph.Node{
			Concept:   concept,
			Fragments: graph.NormalizeFragments(raw),
		})
	}

	edges := make([]graph.Edge, 0, len(edgeDocs))
	for _, doc := range edgeDocs {
		source := store.GetString(doc, fieldSource, "")
		target := store.GetString(doc, fieldTarget, "")
		if source == "" || target == "" {
			s.logger.Warn("Skipping edge document with missing endpoint", zap.Any("document", doc))
			continue
		}
		edges = append(edges, graph.Edge{Source: source, Target: target})
	}

	g.Replace(nodes, edges)

	elapsed := time.Since(start)
	s.metrics.RecordSnapshot(ctx, "load", elapsed, len(nodes), len(edges))
	s.logger.Info("Graph snapshot loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// LoadGraph loads the persisted snapshot into a new graph
func (s *Store) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.New()
	if err := s.Load(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
