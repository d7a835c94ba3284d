package cmd

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sentinelgraph/sentinelgraph/internal/graph"
	"github.com/sentinelgraph/sentinelgraph/internal/scenario"
	"github.com/sentinelgraph/sentinelgraph/pkg/output"
)

func dialGraph(ctx context.Context) (*graph.Store, error) {
	store, err := graph.Dial(ctx, graph.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
	}, log)
	if err != nil {
		output.Error("cannot reach graph database at %s: %v", cfg.Graph.URI, err)
		return nil, err
	}
	return store, nil
}

// reportScenarioErr prints the alternatives when a scenario name does
// not resolve, then passes the error through for exit-code mapping.
func reportScenarioErr(err error) error {
	var notFound *scenario.NotFoundError
	if errors.As(err, &notFound) {
		output.Error("scenario %q not found", notFound.Name)
		if len(notFound.Available) > 0 {
			output.Info("available scenarios:")
			for _, name := range notFound.Available {
				output.Detail("%s", name)
			}
		}
	}
	return err
}

func timeSeed() int64 {
	return time.Now().UnixNano()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
