package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"memgraph/backend/internal/graph"

	"github.com/spf13/cobra"
)

const queryLongDesc string = `Query the memory graph interactively.

Each line read from stdin is treated as a concept. The first layer holds the
concept's own fragments, the second the fragments of its direct neighbors.
Type exit or quit to stop.

Examples:
  recall query
  recall query --depth 1
  echo coffee | recall query`

const queryShortDesc string = "Recall memories related to a concept"

type queryCommander struct {
	flags *storeFlags
	depth int
	in    io.Reader
	out   io.Writer
}

func newQueryCmd(flags *storeFlags) *cobra.Command {
	cmder := &queryCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "query",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&cmder.depth, "depth", "d", 2, "Recall depth (1 skips neighbors)")

	return cmd
}

func (c *queryCommander) run(ctx context.Context) error {
	cfg, err := c.flags.config()
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	fmt.Fprintf(c.out, "Loaded %d concepts and %d associations\n", s.graph.Len(), s.graph.EdgeCount())
	return c.loop(s.graph)
}

func (c *queryCommander) loop(g *graph.Graph) error {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "concept> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		c.print(g.Recall(query, c.depth))
	}
}

func (c *queryCommander) print(r graph.Related) {
	if len(r.FirstLayer) == 0 && len(r.SecondLayer) == 0 {
		fmt.Fprintln(c.out, "no related memories")
		return
	}

	fmt.Fprintln(c.out, "\nfirst layer:")
	for _, item := range r.FirstLayer {
		fmt.Fprintln(c.out, item)
	}
	fmt.Fprintln(c.out, "\nsecond layer:")
	for _, item := range r.SecondLayer {
		fmt.Fprintln(c.out, item)
	}
	fmt.Fprintln(c.out)
}
