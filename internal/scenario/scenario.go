package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// NotFoundError reports an unknown scenario name together with the
// alternatives discovered in the scenario directory.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("scenario %q not found", e.Name)
	}
	return fmt.Sprintf("scenario %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Document is a declarative abuse scenario: event templates to
// instantiate, fixture pools for noise traffic, and assertions that
// validate detection queries against the loaded graph.
type Document struct {
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	Scenarios       []Group         `yaml:"scenarios"`
	GeneratorConfig GeneratorConfig `yaml:"generator_config"`
	FixtureConfig   FixtureConfig   `yaml:"fixture_config"`
	AbuseAssertions []Assertion     `yaml:"abuse_assertions"`
}

// Group is one named event-template sequence. Session and token ids are
// group-scoped so templates within a group share an attributed session.
type Group struct {
	Name        string          `yaml:"name"`
	SessionID   string          `yaml:"session_id"`
	AuthTokenID string          `yaml:"auth_token_id"`
	Events      []EventTemplate `yaml:"events"`
}

type EventTemplate struct {
	Action                 string `yaml:"action"`
	Status                 string `yaml:"status"`
	TimestampOffsetMinutes int    `yaml:"timestamp_offset_minutes"`
	ClientIP               string `yaml:"client_ip"`
	UserAgent              string `yaml:"user_agent"`
	DeviceType             string `yaml:"device_type"`
	Path                   string `yaml:"path"`
	Query                  string `yaml:"query"`
	UserID                 int64  `yaml:"user_id"`
	Email                  string `yaml:"email"`
	StoreID                string `yaml:"store_id"`
	Data                   string `yaml:"data"`
}

type GeneratorConfig struct {
	TimestampGeneration TimestampConfig `yaml:"timestamp_generation"`
	NoiseEvents         NoiseConfig     `yaml:"noise_events"`
}

type TimestampConfig struct {
	JitterSeconds int `yaml:"jitter_seconds"`
}

type NoiseConfig struct {
	Enabled bool `yaml:"enabled"`
	Count   int  `yaml:"count"`
}

type FixtureConfig struct {
	TimeRange       TimeRange       `yaml:"time_range"`
	Stores          []StorePool     `yaml:"stores"`
	Endpoints       []EndpointPool  `yaml:"endpoints"`
	Users           []UserPool      `yaml:"users"`
	IPAddresses     []IPPool        `yaml:"ip_addresses"`
	Devices         []DevicePool    `yaml:"devices"`
	QueryGeneration QueryGeneration `yaml:"query_generation"`
}

type TimeRange struct {
	Start         string `yaml:"start"`
	DurationHours int    `yaml:"duration_hours"`
}

type StorePool struct {
	ID string `yaml:"id"`
}

type EndpointPool struct {
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
}

type UserPool struct {
	UserID int64  `yaml:"user_id"`
	Email  string `yaml:"email"`
}

type IPPool struct {
	Address string `yaml:"address"`
}

type DevicePool struct {
	DeviceType string `yaml:"device_type"`
	UserAgent  string `yaml:"user_agent"`
}

// QueryGeneration controls probabilistic query-string injection, with
// template pools keyed by event action.
type QueryGeneration struct {
	Enabled     bool                `yaml:"enabled"`
	Probability float64             `yaml:"probability"`
	Templates   map[string][]string `yaml:"templates"`
}

// Assertion is one abuse hypothesis: a graph query whose record count
// must satisfy the expected_result_count expression.
type Assertion struct {
	Name                string         `yaml:"name"`
	Query               string         `yaml:"query"`
	Parameters          map[string]any `yaml:"parameters"`
	ExpectedResultCount any            `yaml:"expected_result_count"`
	Description         string         `yaml:"description"`
}

// Load reads and validates the named scenario document from dir.
// An unknown name yields a *NotFoundError listing the alternatives.
func Load(dir, name string) (*Document, error) {
	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name, Available: List(dir)}
		}
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid scenario document %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario document %s: %w", path, err)
	}
	return &doc, nil
}

// List returns the scenario names available in dir, sorted.
func List(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".yaml")
		if stem == "blueprint" {
			continue
		}
		names = append(names, stem)
	}
	sort.Strings(names)
	return names
}

// Validate checks the document's required keys.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing required key: name")
	}
	for gi, group := range d.Scenarios {
		for ei, tmpl := range group.Events {
			if tmpl.Action == "" {
				return fmt.Errorf("scenario %q event %d: missing required key: action", groupName(group, gi), ei)
			}
			if tmpl.Path == "" {
				return fmt.Errorf("scenario %q event %d: missing required key: path", groupName(group, gi), ei)
			}
			if tmpl.ClientIP == "" {
				return fmt.Errorf("scenario %q event %d: missing required key: client_ip", groupName(group, gi), ei)
			}
		}
	}
	for i, a := range d.AbuseAssertions {
		if a.Name == "" {
			return fmt.Errorf("abuse_assertions[%d]: missing required key: name", i)
		}
	}
	return nil
}

func groupName(g Group, idx int) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("scenario %d", idx+1)
}
