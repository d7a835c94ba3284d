package assertion

import (
	"context"
	"fmt"

	"github.com/sentinelgraph/sentinelgraph/internal/graph"
	"github.com/sentinelgraph/sentinelgraph/internal/logging"
	"github.com/sentinelgraph/sentinelgraph/internal/metrics"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
)

const sampleLimit = 3

// Result is the outcome of a single assertion.
type Result struct {
	Name        string
	Description string
	Expectation Expectation
	Actual      int
	Passed      bool
	Err         error
	Sample      []graph.Record
}

// Report collects the results of every assertion in a scenario run.
type Report struct {
	Scenario string
	Results  []Result
	Passed   int
	Failed   int
}

// Success reports whether every assertion passed.
func (r *Report) Success() bool {
	return r.Failed == 0 && len(r.Results) > 0
}

// Runner executes a scenario's assertions against the graph.
type Runner struct {
	runner  graph.Runner
	log     *logging.Logger
	Verbose bool
}

func NewRunner(runner graph.Runner, log *logging.Logger) *Runner {
	return &Runner{runner: runner, log: log}
}

// RunScenario evaluates each assertion independently: a query error or
// unparseable expectation fails that assertion and the run moves on to
// the next one.
func (r *Runner) RunScenario(ctx context.Context, doc *scenario.Document) (*Report, error) {
	report := &Report{Scenario: doc.Name}
	for _, a := range doc.AbuseAssertions {
		res := r.runOne(ctx, a)
		if res.Passed {
			report.Passed++
			metrics.AssertionsTotal.WithLabelValues("pass").Inc()
		} else {
			report.Failed++
			metrics.AssertionsTotal.WithLabelValues("fail").Inc()
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, a scenario.Assertion) Result {
	res := Result{Name: a.Name, Description: a.Description}

	exp, err := ParseExpectation(a.ExpectedResultCount)
	if err != nil {
		res.Err = err
		return res
	}
	res.Expectation = exp

	records, err := r.runner.Run(ctx, a.Query, a.Parameters)
	if err != nil {
		res.Err = fmt.Errorf("assertion %q: %w", a.Name, err)
		return res
	}

	res.Actual = len(records)
	res.Passed = exp.Met(res.Actual)
	if r.Verbose || !res.Passed {
		n := len(records)
		if n > sampleLimit {
			n = sampleLimit
		}
		res.Sample = records[:n]
	}
	r.log.Debug("assertion evaluated",
		"name", a.Name,
		"expected", exp.String(),
		"actual", res.Actual,
		"passed", res.Passed,
	)
	return res
}
