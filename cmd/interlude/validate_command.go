package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"interlude/internal/structure"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <structure.json>",
		Short:       "Check a branching episode graph for integrity",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read structure file: %w", err)
			}

			graph, err := structure.Decode(raw)
			if err != nil {
				return fmt.Errorf("decode structure: %w", err)
			}
			if err := graph.Validate(); err != nil {
				return fmt.Errorf("structure rejected: %w", err)
			}

			edges := 0
			terminals := 0
			for _, node := range graph.Nodes {
				edges += len(node.Choices)
				if node.Terminal() {
					terminals++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Structure OK: %d node(s), %d choice edge(s), %d terminal node(s)\n",
				len(graph.Nodes), edges, terminals)
			fmt.Fprintf(out, "Start node: %s\n", graph.StartNodeID)
			if orphans := graph.Unreachable(); len(orphans) > 0 {
				fmt.Fprintf(out, "Warning: unreachable node(s): %s\n", strings.Join(orphans, ", "))
			}
			return nil
		},
	}
}
