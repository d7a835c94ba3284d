package model

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() Event {
	return Event{
		EventID:   "0191c2a0-0000-7000-8000-000000000001",
		Action:    "view_books",
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ClientIP:  "192.0.2.10",
		Path:      "/api/v1/store-1/books",
	}
}

func TestEventValidate(t *testing.T) {
	t.Run("complete event passes", func(t *testing.T) {
		ev := validEvent()
		assert.NoError(t, ev.Validate())
	})

	t.Run("each required field is enforced", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*Event)
			want   string
		}{
			{"event_id", func(e *Event) { e.EventID = "" }, "missing event_id"},
			{"action", func(e *Event) { e.Action = "" }, "missing action"},
			{"timestamp", func(e *Event) { e.Timestamp = time.Time{} }, "missing timestamp"},
			{"client_ip", func(e *Event) { e.ClientIP = "" }, "missing client_ip"},
			{"path", func(e *Event) { e.Path = "" }, "missing path"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ev := validEvent()
				tc.mutate(&ev)
				err := ev.Validate()
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.want)
			})
		}
	})
}

func TestEventJSONShape(t *testing.T) {
	ev := validEvent()
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	t.Run("optional fields are omitted when absent", func(t *testing.T) {
		for _, key := range []string{"status", "session_id", "user_id", "email", "store_id", "auth_token_id", "query", "data"} {
			assert.NotContains(t, raw, key)
		}
	})

	t.Run("archived always serializes", func(t *testing.T) {
		assert.Contains(t, raw, "archived")
		assert.Equal(t, false, raw["archived"])
	})
}

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	events := []Event{validEvent()}
	events[0].SessionID = "sess-1"
	events[0].UserID = 42

	require.NoError(t, WriteCorpus(path, events))

	got, err := ReadCorpus(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events[0].EventID, got[0].EventID)
	assert.Equal(t, int64(42), got[0].UserID)
	assert.True(t, events[0].Timestamp.Equal(got[0].Timestamp))
}

func TestReadCorpusMissingFile(t *testing.T) {
	_, err := ReadCorpus(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
