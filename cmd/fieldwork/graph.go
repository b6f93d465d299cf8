package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fieldwork/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <draft.yaml|draft.json>",
	Short: "Export the section flow of a draft",
	Long:  `Outputs a Mermaid diagram (graph TD) of the sections of a draft and the skip logic between them.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDraftFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(d, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
