package scenario

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelgraph/sentinelgraph/internal/model"
)

const defaultJitterSeconds = 5

// FixtureBuilder instantiates a scenario document into concrete events
// against the document's base timestamp, optionally diluted with noise
// traffic drawn from the fixture pools.
type FixtureBuilder struct {
	doc *Document
	rng *rand.Rand
}

// NewFixtureBuilder creates a builder seeded for reproducible fixtures.
func NewFixtureBuilder(doc *Document, seed int64) *FixtureBuilder {
	return &FixtureBuilder{
		doc: doc,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Build generates the fixture: one event per template plus configured
// noise events, sorted ascending by timestamp.
func (b *FixtureBuilder) Build() ([]model.Event, error) {
	if len(b.doc.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario %q: no scenarios defined", b.doc.Name)
	}

	base, err := b.baseTime()
	if err != nil {
		return nil, err
	}
	jitter := b.doc.GeneratorConfig.TimestampGeneration.JitterSeconds
	if jitter == 0 {
		jitter = defaultJitterSeconds
	}

	var events []model.Event
	for _, group := range b.doc.Scenarios {
		for _, tmpl := range group.Events {
			events = append(events, b.instantiate(group, tmpl, base, jitter))
		}
	}

	noise, err := b.noiseEvents(base)
	if err != nil {
		return nil, err
	}
	events = append(events, noise...)

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (b *FixtureBuilder) baseTime() (time.Time, error) {
	start := b.doc.FixtureConfig.TimeRange.Start
	if start == "" {
		return time.Now().UTC(), nil
	}
	base, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, fmt.Errorf("scenario %q: invalid time_range.start %q: %w", b.doc.Name, start, err)
	}
	return base, nil
}

// offsetTime applies the template's minute offset plus random jitter
// in [-jitterSeconds, +jitterSeconds].
func (b *FixtureBuilder) offsetTime(base time.Time, offsetMinutes, jitterSeconds int) time.Time {
	ts := base.Add(time.Duration(offsetMinutes) * time.Minute)
	if jitterSeconds > 0 {
		ts = ts.Add(time.Duration(b.rng.Intn(2*jitterSeconds+1)-jitterSeconds) * time.Second)
	}
	return ts
}

func (b *FixtureBuilder) instantiate(group Group, tmpl EventTemplate, base time.Time, jitter int) model.Event {
	return model.Event{
		EventID:     b.newID(),
		Action:      tmpl.Action,
		Status:      tmpl.Status,
		Timestamp:   b.offsetTime(base, tmpl.TimestampOffsetMinutes, jitter),
		ClientIP:    tmpl.ClientIP,
		UserAgent:   tmpl.UserAgent,
		DeviceType:  tmpl.DeviceType,
		Path:        tmpl.Path,
		Query:       b.queryString(tmpl.Action, tmpl.Query),
		SessionID:   group.SessionID,
		UserID:      tmpl.UserID,
		Email:       tmpl.Email,
		StoreID:     tmpl.StoreID,
		AuthTokenID: group.AuthTokenID,
		Data:        tmpl.Data,
	}
}

// queryString returns the template's own query when set, otherwise
// rolls against the query_generation config for a pooled template.
func (b *FixtureBuilder) queryString(action, existing string) string {
	if existing != "" {
		return existing
	}
	qg := b.doc.FixtureConfig.QueryGeneration
	if !qg.Enabled {
		return ""
	}
	if b.rng.Float64() > qg.Probability {
		return ""
	}
	pool := qg.Templates[action]
	if len(pool) == 0 {
		return ""
	}
	return pool[b.rng.Intn(len(pool))]
}

// noiseEvents generates uncorrelated legitimate traffic from the
// fixture pools to dilute the abuse signal.
func (b *FixtureBuilder) noiseEvents(base time.Time) ([]model.Event, error) {
	cfg := b.doc.GeneratorConfig.NoiseEvents
	if !cfg.Enabled || cfg.Count == 0 {
		return nil, nil
	}

	fc := b.doc.FixtureConfig
	if len(fc.Stores) == 0 || len(fc.Endpoints) == 0 || len(fc.Users) == 0 ||
		len(fc.IPAddresses) == 0 || len(fc.Devices) == 0 {
		return nil, fmt.Errorf("scenario %q: noise_events enabled but fixture_config pools are incomplete", b.doc.Name)
	}

	durationHours := fc.TimeRange.DurationHours
	if durationHours == 0 {
		durationHours = 2
	}

	events := make([]model.Event, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		store := fc.Stores[b.rng.Intn(len(fc.Stores))]
		endpoint := fc.Endpoints[b.rng.Intn(len(fc.Endpoints))]
		user := fc.Users[b.rng.Intn(len(fc.Users))]
		ip := fc.IPAddresses[b.rng.Intn(len(fc.IPAddresses))]
		device := fc.Devices[b.rng.Intn(len(fc.Devices))]

		events = append(events, model.Event{
			EventID:    b.newID(),
			Action:     endpoint.Action,
			Timestamp:  b.offsetTime(base, b.rng.Intn(durationHours*60+1), defaultJitterSeconds),
			ClientIP:   ip.Address,
			UserAgent:  device.UserAgent,
			DeviceType: device.DeviceType,
			Path:       strings.ReplaceAll(endpoint.Path, "{store}", store.ID),
			Query:      b.queryString(endpoint.Action, ""),
			SessionID:  b.newID(),
			UserID:     user.UserID,
			Email:      user.Email,
			StoreID:    store.ID,
		})
	}
	return events, nil
}

func (b *FixtureBuilder) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
