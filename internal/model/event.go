package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Event is an immutable behavioral fact: one request observed at the edge.
// Optional fields are omitted from serialized output when absent so that
// graph nodes never pick up null-valued properties.
type Event struct {
	EventID     string    `json:"event_id"`
	Action      string    `json:"action"`
	Status      string    `json:"status,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	ClientIP    string    `json:"client_ip"`
	UserAgent   string    `json:"user_agent,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
	Path        string    `json:"path"`
	Query       string    `json:"query,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	StoreID     string    `json:"store_id,omitempty"`
	AuthTokenID string    `json:"auth_token_id,omitempty"`
	Data        string    `json:"data,omitempty"`
	Archived    bool      `json:"archived"`
}

// Validate checks the fields every event must carry before it is allowed
// anywhere near the graph.
func (e *Event) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("event: missing event_id")
	case e.Action == "":
		return fmt.Errorf("event %s: missing action", e.EventID)
	case e.Timestamp.IsZero():
		return fmt.Errorf("event %s: missing timestamp", e.EventID)
	case e.ClientIP == "":
		return fmt.Errorf("event %s: missing client_ip", e.EventID)
	case e.Path == "":
		return fmt.Errorf("event %s: missing path", e.EventID)
	}
	return nil
}

// WriteCorpus serializes an ordered event list as a flat JSON document.
func WriteCorpus(path string, events []Event) error {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}

// ReadCorpus loads an event corpus previously written by WriteCorpus.
func ReadCorpus(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode corpus %s: %w", path, err)
	}
	return events, nil
}
