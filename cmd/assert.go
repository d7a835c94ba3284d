package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelgraph/sentinelgraph/internal/assertion"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
	"github.com/sentinelgraph/sentinelgraph/pkg/output"
)

var assertVerbose bool

var assertCmd = &cobra.Command{
	Use:   "assert <scenario>",
	Short: "Run a scenario's abuse assertions against the graph",
	Long: `Evaluate every abuse assertion of a scenario document against the
loaded graph. Each assertion runs independently; a query error fails
that assertion without stopping the rest.

The command exits 0 when every assertion passes and 1 otherwise.

Examples:
  sgraph assert session-sharing
  sgraph assert credential-stuffing --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runAssert,
}

func init() {
	assertCmd.Flags().BoolVarP(&assertVerbose, "verbose", "v", false, "show sample records for every assertion")

	rootCmd.AddCommand(assertCmd)
}

func runAssert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := scenario.Load(cfg.Scenario.Dir, args[0])
	if err != nil {
		return reportScenarioErr(err)
	}
	if len(doc.AbuseAssertions) == 0 {
		return fmt.Errorf("scenario %s declares no assertions", doc.Name)
	}

	store, err := dialGraph(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	runner := assertion.NewRunner(store, log)
	runner.Verbose = assertVerbose

	report, err := runner.RunScenario(ctx, doc)
	if err != nil {
		return err
	}
	printReport(report)

	if !report.Success() {
		return fmt.Errorf("%d of %d assertions failed", report.Failed, len(report.Results))
	}
	return nil
}

func printReport(report *assertion.Report) {
	output.Info("scenario %s: %d assertions", report.Scenario, len(report.Results))
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			output.Error("%s: %v", res.Name, res.Err)
		case res.Passed:
			output.Success("%s (expected %s, got %d)", res.Name, res.Expectation, res.Actual)
		default:
			output.Error("%s: expected %s, got %d", res.Name, res.Expectation, res.Actual)
			if res.Description != "" {
				output.Detail("%s", res.Description)
			}
		}
		for _, rec := range res.Sample {
			output.Detail("sample: %v", rec)
		}
	}
	if report.Success() {
		output.Success("all %d assertions passed", report.Passed)
	} else {
		output.Error("%d passed, %d failed", report.Passed, report.Failed)
	}
}
