package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelgraph/sentinelgraph/internal/graph"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"plain failure", errors.New("2 of 4 assertions failed"), ExitFailure},
		{"scenario not found", &scenario.NotFoundError{Name: "nope"}, ExitScenarioNotFound},
		{"wrapped scenario not found", fmt.Errorf("loading: %w", &scenario.NotFoundError{Name: "nope"}), ExitScenarioNotFound},
		{"connection failed", fmt.Errorf("%w: dial tcp", graph.ErrConnect), ExitConnectionFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
