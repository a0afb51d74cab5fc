package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"memgraph/backend/internal/graph"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const seedLongDesc string = `Seed the memory graph from a YAML file.

The file lists concepts with their fragments and the associations between
them. Seeds merge into the stored graph unless --overwrite is given.

  concepts:
    - concept: coffee
      fragments: ["brewed at dawn"]
  associations:
    - [coffee, morning]

Examples:
  recall seed ./memories.yaml
  recall seed ./memories.yaml --overwrite`

const seedShortDesc string = "Seed memories from YAML"

// seedFile is the YAML seed layout
type seedFile struct {
	Concepts []struct {
		Concept   string   `yaml:"concept"`
		Fragments []string `yaml:"fragments"`
	} `yaml:"concepts"`
	Associations [][]string `yaml:"associations"`
}

type seedCommander struct {
	flags     *storeFlags
	overwrite bool
	out       io.Writer
}

func newSeedCmd(flags *storeFlags) *cobra.Command {
	cmder := &seedCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVarP(&cmder.overwrite, "overwrite", "f", false, "Replace the stored graph instead of merging")

	return cmd
}

func (c *seedCommander) run(ctx context.Context, path string) error {
	seed, err := readSeed(path)
	if err != nil {
		return err
	}

	cfg, err := c.flags.config()
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if c.overwrite {
		s.graph.Clear()
	}
	fragments, associations, err := seed.apply(s.graph)
	if err != nil {
		return err
	}
	if err := s.save(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Seeded %d fragments and %d associations into %s (%d concepts)\n",
		fragments, associations, cfg.StoreBackend, s.graph.Len())
	return nil
}

func readSeed(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// apply adds the seed to g and reports how many fragments and associations
// were added
func (s *seedFile) apply(g *graph.Graph) (int, int, error) {
	fragments := 0
	for _, c := range s.Concepts {
		concept := strings.TrimSpace(c.Concept)
		if concept == "" {
			return 0, 0, fmt.Errorf("seed concept without a name")
		}
		for _, f := range c.Fragments {
			g.AddFragment(concept, f)
			fragments++
		}
	}

	for i, pair := range s.Associations {
		if len(pair) != 2 {
			return 0, 0, fmt.Errorf("association %d: want 2 concepts, got %d", i, len(pair))
		}
		g.Connect(strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1]))
	}
	return fragments, len(s.Associations), nil
}
