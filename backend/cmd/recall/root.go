package main

import (
	"context"
	"strings"

	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/graphstore"
	"memgraph/backend/internal/store"
	"memgraph/backend/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const recallLongDesc string = `Recall inspects and maintains the persisted memory graph.

Examples:
  recall query --depth 1
  recall stats --min-fragments 3
  recall seed ./memories.yaml --overwrite
  recall copy --to neo4j
  recall --backend sqlite --sqlite ./memgraph.db stats`

const recallShortDesc string = "Recall - memory graph tools"

// storeFlags are the persistent overrides shared by every subcommand
type storeFlags struct {
	backend    string
	sqlitePath string
}

func NewRecallCmd() *cobra.Command {
	flags := &storeFlags{}

	cmd := &cobra.Command{
		Use:           "recall",
		Short:         recallShortDesc,
		Long:          recallLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.backend, "backend", "b", "", "Store backend (neo4j, sqlite or memory)")
	cmd.PersistentFlags().StringVarP(&flags.sqlitePath, "sqlite", "s", "", "Path to SQLite database")

	cmd.AddCommand(newQueryCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newCopyCmd(flags))

	return cmd
}

// config loads the environment configuration with flag overrides applied
func (f *storeFlags) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.backend) != "" {
		cfg = cfg.WithBackend(f.backend)
	}
	if strings.TrimSpace(f.sqlitePath) != "" {
		cfg.SQLitePath = f.sqlitePath
	}
	return cfg, cfg.Validate()
}

// session pairs an open store with the graph it snapshots
type session struct {
	graph     *graph.Graph
	docs      store.DocumentStore
	snapshots *graphstore.Store
}

// openStore opens the configured store with an empty graph
func openStore(ctx context.Context, cfg *config.Config) (*session, error) {
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snapshots := graphstore.New(docs, graphstore.WithLogger(zap.NewNop()))
	return &session{graph: graph.New(), docs: docs, snapshots: snapshots}, nil
}

// openSession opens the configured store and loads its snapshot
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Load(ctx, s.graph); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) save(ctx context.Context) error {
	return s.snapshots.Save(ctx, s.graph)
}

func (s *session) close(ctx context.Context) {
	_ = s.docs.Close(ctx)
}
