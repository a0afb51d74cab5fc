package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"memgraph/backend/pkg/config"

	"github.com/spf13/cobra"
)

const copyLongDesc string = `Copy the stored graph from the configured backend into another one.

The destination snapshot is replaced.

Examples:
  recall copy --to neo4j
  recall --backend neo4j copy --to sqlite --to-sqlite ./backup.db`

const copyShortDesc string = "Copy the graph between backends"

type copyCommander struct {
	flags    *storeFlags
	to       string
	toSQLite string
	out      io.Writer
}

func newCopyCmd(flags *storeFlags) *cobra.Command {
	cmder := &copyCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: copyShortDesc,
		Long:  copyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.to, "to", "t", "", "Destination backend (neo4j, sqlite or memory)")
	cmd.Flags().StringVar(&cmder.toSQLite, "to-sqlite", "", "Destination SQLite path")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (c *copyCommander) run(ctx context.Context) error {
	src, err := c.flags.config()
	if err != nil {
		return err
	}
	dst := src.WithBackend(c.to)
	if strings.TrimSpace(c.toSQLite) != "" {
		dst.SQLitePath = c.toSQLite
	}
	if err := dst.Validate(); err != nil {
		return err
	}
	if dst.StoreBackend == src.StoreBackend && (dst.StoreBackend != config.BackendSQLite || dst.SQLitePath == src.SQLitePath) {
		return fmt.Errorf("source and destination are the same %s store", dst.StoreBackend)
	}

	from, err := openSession(ctx, src)
	if err != nil {
		return err
	}
	defer from.close(ctx)

	to, err := openStore(ctx, dst)
	if err != nil {
		return err
	}
	defer to.close(ctx)

	nodes, edges := from.graph.Snapshot()
	to.graph.Replace(nodes, edges)
	if err := to.save(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Copied %d concepts and %d associations from %s to %s\n",
		len(nodes), len(edges), src.StoreBackend, dst.StoreBackend)
	return nil
}
