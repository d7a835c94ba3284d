package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelgraph/sentinelgraph/internal/logging"
	"github.com/sentinelgraph/sentinelgraph/internal/metrics"
	"github.com/sentinelgraph/sentinelgraph/internal/model"
)

// DefaultBatchSize bounds write-transaction size when none is configured.
const DefaultBatchSize = 100

// BatchError reports a failed load batch together with how many events
// were durably committed before it. Entity upserts from committed
// batches are not rolled back.
type BatchError struct {
	Batch     int
	Committed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d events committed: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// loadBatchQuery realizes one batch of events as graph state. Event
// nodes are upserted by event_id so reloading a corpus is idempotent;
// entity nodes merge on their natural keys with min/max watermark
// updates; relationship merges keep re-runs duplicate-free.
const loadBatchQuery = `
UNWIND $events AS event

MERGE (e:Event {event_id: event.event_id})
ON CREATE SET
    e.action = event.action,
    e.status = event.status,
    e.timestamp = datetime(event.timestamp),
    e.client_ip = event.client_ip,
    e.user_agent = event.user_agent,
    e.device_type = event.device_type,
    e.path = event.path,
    e.query = event.query,
    e.session_id = event.session_id,
    e.user_id = event.user_id,
    e.email = event.email,
    e.store_id = event.store_id,
    e.auth_token_id = event.auth_token_id,
    e.data = event.data,
    e.archived = coalesce(event.archived, false)

MERGE (ip:IPAddress {address: event.client_ip})
ON CREATE SET
    ip.first_seen = datetime(event.timestamp),
    ip.last_seen = datetime(event.timestamp)
ON MATCH SET
    ip.first_seen = CASE WHEN ip.first_seen <= datetime(event.timestamp)
                         THEN ip.first_seen ELSE datetime(event.timestamp) END,
    ip.last_seen = CASE WHEN ip.last_seen >= datetime(event.timestamp)
                        THEN ip.last_seen ELSE datetime(event.timestamp) END
MERGE (e)-[:ORIGINATED_FROM {timestamp: datetime(event.timestamp)}]->(ip)

FOREACH (_ IN CASE WHEN event.session_id IS NOT NULL THEN [1] ELSE [] END |
    MERGE (s:Session {session_id: event.session_id})
    ON CREATE SET
        s.created_at = datetime(event.timestamp),
        s.last_activity = datetime(event.timestamp)
    ON MATCH SET
        s.created_at = CASE WHEN s.created_at <= datetime(event.timestamp)
                            THEN s.created_at ELSE datetime(event.timestamp) END,
        s.last_activity = CASE WHEN s.last_activity >= datetime(event.timestamp)
                               THEN s.last_activity ELSE datetime(event.timestamp) END
    MERGE (e)-[:IN_SESSION {timestamp: datetime(event.timestamp)}]->(s)
)

FOREACH (_ IN CASE WHEN event.user_id IS NOT NULL THEN [1] ELSE [] END |
    MERGE (u:User {user_id: event.user_id})
    ON CREATE SET u.created_at = datetime(event.timestamp)
    MERGE (e)-[:PERFORMED_BY {timestamp: datetime(event.timestamp)}]->(u)
)

FOREACH (_ IN CASE WHEN event.store_id IS NOT NULL THEN [1] ELSE [] END |
    MERGE (st:Store {store_id: event.store_id})
    ON CREATE SET st.created_at = datetime(event.timestamp)
    MERGE (e)-[:TARGETED_STORE {
        timestamp: datetime(event.timestamp),
        path: event.path,
        query: coalesce(event.query, "")
    }]->(st)
)

RETURN count(e) AS events_created
`

// deriveNextEventsQuery links temporally adjacent events of each
// session with NEXT_EVENT edges carrying the millisecond delta. The
// session_id equality guard keeps cross-session pairs out even if the
// collect returns events from more than one session. MERGE by endpoint
// pair makes the pass idempotent.
const deriveNextEventsQuery = `
MATCH (s:Session)<-[:IN_SESSION]-(e:Event)
WITH s, e
ORDER BY e.timestamp
WITH s, collect(e) AS events
UNWIND range(0, size(events)-2) AS i
WITH events[i] AS curr, events[i+1] AS next
WHERE curr.session_id = next.session_id
WITH curr, next,
    duration.between(curr.timestamp, next.timestamp).milliseconds AS delta
MERGE (curr)-[r:NEXT_EVENT]->(next)
ON CREATE SET r.time_delta_ms = delta
RETURN count(r) AS relationships_created
`

// Loader realizes ordered event batches as graph state.
type Loader struct {
	runner    Runner
	batchSize int
	log       *logging.Logger
}

// NewLoader creates a Loader writing through runner in batches of
// batchSize (DefaultBatchSize when <= 0).
func NewLoader(runner Runner, batchSize int, log *logging.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{runner: runner, batchSize: batchSize, log: log}
}

// LoadResult summarizes a completed load.
type LoadResult struct {
	EventsCreated int
	Batches       int
	Elapsed       time.Duration
}

// Rate returns the load throughput in events per second.
func (r *LoadResult) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.EventsCreated) / r.Elapsed.Seconds()
}

// Load writes events in fixed-size batches. Each batch is one write
// transaction; on a batch failure the load aborts with a *BatchError
// reporting the events committed by earlier batches.
func (l *Loader) Load(ctx context.Context, events []model.Event) (*LoadResult, error) {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, err
		}
	}

	result := &LoadResult{}
	start := time.Now()

	for i := 0; i < len(events); i += l.batchSize {
		end := min(i+l.batchSize, len(events))
		batch := make([]map[string]any, 0, end-i)
		for _, ev := range events[i:end] {
			batch = append(batch, eventParams(ev))
		}

		batchStart := time.Now()
		records, err := l.runner.Run(ctx, loadBatchQuery, map[string]any{"events": batch})
		metrics.BatchDuration.Observe(time.Since(batchStart).Seconds())
		if err != nil {
			metrics.BatchesTotal.WithLabelValues("error").Inc()
			result.Elapsed = time.Since(start)
			return result, &BatchError{Batch: result.Batches, Committed: result.EventsCreated, Err: err}
		}

		created := intValue(records, "events_created")
		result.EventsCreated += created
		result.Batches++
		metrics.BatchesTotal.WithLabelValues("ok").Inc()
		metrics.EventsLoaded.Add(float64(created))

		if result.Batches%10 == 0 {
			elapsed := time.Since(start)
			l.log.Info("load progress",
				"events", result.EventsCreated,
				"total", len(events),
				"rate_per_sec", float64(result.EventsCreated)/elapsed.Seconds())
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// DeriveNextEvents runs the temporal pass. It must only run after every
// batch of a load is committed, since it needs complete per-session
// event sets. Returns the number of NEXT_EVENT edges created.
func (l *Loader) DeriveNextEvents(ctx context.Context) (int, error) {
	records, err := l.runner.Run(ctx, deriveNextEventsQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to derive temporal relationships: %w", err)
	}
	created := intValue(records, "relationships_created")
	metrics.NextEventEdges.Add(float64(created))
	return created, nil
}

// Statistics are the node and relationship totals currently in the graph.
type Statistics struct {
	Events        int
	IPAddresses   int
	Sessions      int
	Users         int
	Stores        int
	Relationships int
}

// Statistics counts nodes per label and total relationships.
func (l *Loader) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	counts := []struct {
		dst   *int
		query string
	}{
		{&stats.Events, `MATCH (e:Event) RETURN count(e) AS count`},
		{&stats.IPAddresses, `MATCH (ip:IPAddress) RETURN count(ip) AS count`},
		{&stats.Sessions, `MATCH (s:Session) RETURN count(s) AS count`},
		{&stats.Users, `MATCH (u:User) RETURN count(u) AS count`},
		{&stats.Stores, `MATCH (st:Store) RETURN count(st) AS count`},
		{&stats.Relationships, `MATCH ()-[r]->() RETURN count(r) AS count`},
	}
	for _, c := range counts {
		records, err := l.runner.Run(ctx, c.query, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to collect statistics: %w", err)
		}
		*c.dst = intValue(records, "count")
	}
	return stats, nil
}

// eventParams converts an event to query parameters, omitting absent
// optional fields entirely so the FOREACH guards and SET clauses see
// null rather than empty strings.
func eventParams(ev model.Event) map[string]any {
	p := map[string]any{
		"event_id":  ev.EventID,
		"action":    ev.Action,
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"client_ip": ev.ClientIP,
		"path":      ev.Path,
		"archived":  ev.Archived,
	}
	setIf := func(key, val string) {
		if val != "" {
			p[key] = val
		}
	}
	setIf("status", ev.Status)
	setIf("user_agent", ev.UserAgent)
	setIf("device_type", ev.DeviceType)
	setIf("query", ev.Query)
	setIf("session_id", ev.SessionID)
	setIf("email", ev.Email)
	setIf("store_id", ev.StoreID)
	setIf("auth_token_id", ev.AuthTokenID)
	setIf("data", ev.Data)
	if ev.UserID != 0 {
		p["user_id"] = ev.UserID
	}
	return p
}

// intValue extracts an integer column from the first record, tolerating
// the numeric types different runners hand back.
func intValue(records []Record, key string) int {
	if len(records) == 0 {
		return 0
	}
	switch v := records[0][key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
