package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelgraph/sentinelgraph/internal/logging"
	"github.com/sentinelgraph/sentinelgraph/internal/model"
)

// fakeRunner records every query and answers from a scripted response
// function.
type fakeRunner struct {
	calls   []call
	respond func(query string, params map[string]any) ([]Record, error)
}

type call struct {
	query  string
	params map[string]any
}

func (f *fakeRunner) Run(_ context.Context, query string, params map[string]any) ([]Record, error) {
	f.calls = append(f.calls, call{query: query, params: params})
	if f.respond != nil {
		return f.respond(query, params)
	}
	return nil, nil
}

func testLogger() *logging.Logger {
	return logging.New(slog.LevelError, "text")
}

func testEvents(n int) []model.Event {
	events := make([]model.Event, n)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range events {
		events[i] = model.Event{
			EventID:   fmt.Sprintf("ev-%04d", i),
			Action:    "view_books",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			ClientIP:  "192.0.2.9",
			Path:      "/store/s1/books",
		}
	}
	return events
}

func echoCount(query string, params map[string]any) ([]Record, error) {
	if strings.Contains(query, "UNWIND $events") {
		batch := params["events"].([]map[string]any)
		return []Record{{"events_created": int64(len(batch))}}, nil
	}
	return []Record{{"relationships_created": int64(0), "count": int64(0)}}, nil
}

func TestLoaderBatching(t *testing.T) {
	fake := &fakeRunner{respond: echoCount}
	loader := NewLoader(fake, 100, testLogger())

	result, err := loader.Load(context.Background(), testEvents(1000))
	require.NoError(t, err)

	assert.Equal(t, 10, result.Batches)
	assert.Equal(t, 1000, result.EventsCreated)
	assert.Len(t, fake.calls, 10)
	assert.Greater(t, result.Rate(), 0.0)

	t.Run("last partial batch", func(t *testing.T) {
		fake := &fakeRunner{respond: echoCount}
		loader := NewLoader(fake, 100, testLogger())
		result, err := loader.Load(context.Background(), testEvents(250))
		require.NoError(t, err)
		assert.Equal(t, 3, result.Batches)
		assert.Equal(t, 250, result.EventsCreated)

		lastBatch := fake.calls[2].params["events"].([]map[string]any)
		assert.Len(t, lastBatch, 50)
	})
}

func TestLoaderOmitsAbsentOptionals(t *testing.T) {
	fake := &fakeRunner{respond: echoCount}
	loader := NewLoader(fake, 10, testLogger())

	events := testEvents(1)
	_, err := loader.Load(context.Background(), events)
	require.NoError(t, err)

	batch := fake.calls[0].params["events"].([]map[string]any)
	require.Len(t, batch, 1)
	p := batch[0]

	for _, key := range []string{"status", "session_id", "user_id", "store_id", "auth_token_id", "query", "email"} {
		assert.NotContains(t, p, key)
	}
	assert.Equal(t, "ev-0000", p["event_id"])
	assert.Equal(t, false, p["archived"])
	assert.Contains(t, p, "timestamp")
}

func TestLoaderIncludesPresentOptionals(t *testing.T) {
	fake := &fakeRunner{respond: echoCount}
	loader := NewLoader(fake, 10, testLogger())

	events := testEvents(1)
	events[0].SessionID = "sess-1"
	events[0].UserID = 42
	events[0].StoreID = "s1"
	_, err := loader.Load(context.Background(), events)
	require.NoError(t, err)

	p := fake.calls[0].params["events"].([]map[string]any)[0]
	assert.Equal(t, "sess-1", p["session_id"])
	assert.Equal(t, int64(42), p["user_id"])
	assert.Equal(t, "s1", p["store_id"])
}

func TestLoaderBatchFailure(t *testing.T) {
	boom := errors.New("deadlock detected")
	fake := &fakeRunner{respond: func(query string, params map[string]any) ([]Record, error) {
		batch := params["events"].([]map[string]any)
		if batch[0]["event_id"] == "ev-0100" {
			return nil, boom
		}
		return []Record{{"events_created": int64(len(batch))}}, nil
	}}
	loader := NewLoader(fake, 100, testLogger())

	_, err := loader.Load(context.Background(), testEvents(300))
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, 100, batchErr.Committed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "100 events committed")
}

func TestLoaderRejectsInvalidEvents(t *testing.T) {
	fake := &fakeRunner{respond: echoCount}
	loader := NewLoader(fake, 100, testLogger())

	events := testEvents(3)
	events[1].ClientIP = ""
	_, err := loader.Load(context.Background(), events)
	require.Error(t, err)
	assert.Empty(t, fake.calls, "nothing may reach the graph")
}

func TestDeriveNextEvents(t *testing.T) {
	fake := &fakeRunner{respond: func(query string, _ map[string]any) ([]Record, error) {
		require.Contains(t, query, "NEXT_EVENT")
		return []Record{{"relationships_created": int64(7)}}, nil
	}}
	loader := NewLoader(fake, 100, testLogger())

	created, err := loader.DeriveNextEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, created)
}

func TestStatistics(t *testing.T) {
	counts := map[string]int64{
		"(e:Event)":      100,
		"(ip:IPAddress)": 20,
		"(s:Session)":    15,
		"(u:User)":       12,
		"(st:Store)":     5,
		"()-[r]->()":     400,
	}
	fake := &fakeRunner{respond: func(query string, _ map[string]any) ([]Record, error) {
		for pattern, n := range counts {
			if strings.Contains(query, pattern) {
				return []Record{{"count": n}}, nil
			}
		}
		return nil, fmt.Errorf("unexpected query: %s", query)
	}}
	loader := NewLoader(fake, 100, testLogger())

	stats, err := loader.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Events)
	assert.Equal(t, 20, stats.IPAddresses)
	assert.Equal(t, 15, stats.Sessions)
	assert.Equal(t, 12, stats.Users)
	assert.Equal(t, 5, stats.Stores)
	assert.Equal(t, 400, stats.Relationships)
}

func TestDefaultBatchSize(t *testing.T) {
	loader := NewLoader(&fakeRunner{}, 0, testLogger())
	assert.Equal(t, DefaultBatchSize, loader.batchSize)
}
