package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sentinelgraph/sentinelgraph/internal/logging"
)

// ErrConnect marks connectivity failures so operators know to check
// infrastructure rather than scenario content.
var ErrConnect = errors.New("graph store unreachable")

// Record is one row returned by a graph query, keyed by return alias.
type Record = map[string]any

// Runner executes a query against the graph and returns its records.
// The loader and assertion engine depend on this interface so they can
// be exercised without a live database.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// Config holds the connection parameters for the graph store.
type Config struct {
	URI      string
	Username string
	Password string
}

// Store is an explicitly constructed Neo4j handle. Lifecycle is owned
// by the caller; there is no package-level connection.
type Store struct {
	drv neo4j.DriverWithContext
	log *logging.Logger
}

// dialTimeout bounds the connectivity round trip so an unreachable
// store fails fast instead of hanging the whole command.
const dialTimeout = 10 * time.Second

// Dial opens a driver and verifies connectivity with a round trip.
func Dial(ctx context.Context, cfg Config, log *logging.Logger) (*Store, error) {
	drv, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	s := &Store{drv: drv, log: log}
	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if _, err := s.Run(pingCtx, "RETURN 1", nil); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("%w at %s: %v", ErrConnect, cfg.URI, err)
	}
	s.log.Debug("graph store connected", "uri", cfg.URI)
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.drv.Close(ctx)
}

// Run executes one query in a managed write transaction and collects
// every returned record.
func (s *Store) Run(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	sess := s.drv.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer sess.Close(ctx)

	out, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var records []Record
		for res.Next(ctx) {
			records = append(records, res.Record().AsMap())
		}
		return records, res.Err()
	})
	if err != nil {
		return nil, err
	}
	records, _ := out.([]Record)
	return records, nil
}

// EnsureSchema creates the uniqueness constraints for every entity
// natural key. Safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE CONSTRAINT event_id IF NOT EXISTS FOR (e:Event) REQUIRE e.event_id IS UNIQUE`,
		`CREATE CONSTRAINT ip_address IF NOT EXISTS FOR (ip:IPAddress) REQUIRE ip.address IS UNIQUE`,
		`CREATE CONSTRAINT session_id IF NOT EXISTS FOR (s:Session) REQUIRE s.session_id IS UNIQUE`,
		`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE`,
		`CREATE CONSTRAINT store_id IF NOT EXISTS FOR (st:Store) REQUIRE st.store_id IS UNIQUE`,
	}
	for _, stmt := range stmts {
		if _, err := s.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
