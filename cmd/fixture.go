package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sentinelgraph/sentinelgraph/internal/model"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
	"github.com/sentinelgraph/sentinelgraph/pkg/output"
)

var (
	fixtureSeed   int64
	fixtureOutput string
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture <scenario>",
	Short: "Build fixture events from a scenario document",
	Long: `Instantiate the event templates of a scenario document into a
concrete corpus, including configured noise traffic, and write it as a
JSON array suitable for "sgraph load".

Examples:
  sgraph fixture session-sharing
  sgraph fixture credential-stuffing --seed 7 --output fixture.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFixture,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available scenario documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := scenario.List(cfg.Scenario.Dir)
		if len(names) == 0 {
			output.Warn("no scenario documents in %s", cfg.Scenario.Dir)
			return nil
		}
		table := output.NewTable("SCENARIO", "ASSERTIONS", "DESCRIPTION")
		for _, name := range names {
			doc, err := scenario.Load(cfg.Scenario.Dir, name)
			if err != nil {
				output.Warn("skipping %s: %v", name, err)
				continue
			}
			table.AddRow(doc.Name, itoa(len(doc.AbuseAssertions)), doc.Description)
		}
		table.Render()
		return nil
	},
}

func init() {
	fixtureCmd.Flags().Int64Var(&fixtureSeed, "seed", 0, "random seed (0 uses the current time)")
	fixtureCmd.Flags().StringVar(&fixtureOutput, "output", "fixture.json", "output file path")

	rootCmd.AddCommand(fixtureCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func runFixture(cmd *cobra.Command, args []string) error {
	doc, err := scenario.Load(cfg.Scenario.Dir, args[0])
	if err != nil {
		return reportScenarioErr(err)
	}

	seed := fixtureSeed
	if seed == 0 {
		seed = timeSeed()
	}
	log.Info("building fixture", "scenario", doc.Name, "seed", seed)

	events, err := scenario.NewFixtureBuilder(doc, seed).Build()
	if err != nil {
		return err
	}
	if err := model.WriteCorpus(fixtureOutput, events); err != nil {
		return err
	}
	output.Success("wrote %d fixture events for %s to %s", len(events), doc.Name, fixtureOutput)
	return nil
}
