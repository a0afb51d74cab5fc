package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"memgraph/backend/internal/constants"

	"github.com/spf13/cobra"
)

const statsLongDesc string = `Print graph counts and the most prominent concepts.

A concept is prominent when it has more fragments than --min-fragments and
more neighbors than --min-degree.

Examples:
  recall stats
  recall stats --min-fragments 0 --min-degree 0`

const statsShortDesc string = "Show graph statistics"

type statsCommander struct {
	flags        *storeFlags
	minFragments int
	minDegree    int
	out          io.Writer
}

func newStatsCmd(flags *storeFlags) *cobra.Command {
	cmder := &statsCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&cmder.minFragments, "min-fragments", constants.DefaultProminentFragments, "Fragment threshold")
	cmd.Flags().IntVar(&cmder.minDegree, "min-degree", constants.DefaultProminentDegree, "Neighbor threshold")

	return cmd
}

func (c *statsCommander) run(ctx context.Context) error {
	cfg, err := c.flags.config()
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	fmt.Fprintf(c.out, "concepts: %d\nassociations: %d\n", s.graph.Len(), s.graph.EdgeCount())

	prominent := s.graph.Prominent(c.minFragments, c.minDegree)
	if len(prominent) == 0 {
		fmt.Fprintln(c.out, "no prominent concepts")
		return nil
	}

	fmt.Fprintln(c.out)
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONCEPT\tFRAGMENTS\tDEGREE")
	for _, st := range prominent {
		fmt.Fprintf(w, "%s\t%d\t%d\n", st.Concept, st.Fragments, st.Degree)
	}
	return w.Flush()
}
