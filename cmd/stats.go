package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sentinelgraph/sentinelgraph/internal/graph"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and relationship counts for the loaded graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := dialGraph(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		stats, err := graph.NewLoader(store, cfg.Loader.BatchSize, log).Statistics(ctx)
		if err != nil {
			return err
		}
		printStatistics(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
