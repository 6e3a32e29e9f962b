// Package sqlitestore persists snapshots to a local SQLite database so risk
// history survives restarts and can be inspected offline.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// DefaultPruneInterval is how often the retention loop deletes expired rows.
const DefaultPruneInterval = time.Hour

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	row_id       TEXT PRIMARY KEY,
	snapshot_id  TEXT NOT NULL,
	risk_level   TEXT NOT NULL,
	flood_pct    REAL NOT NULL,
	rainfall_mmh REAL NOT NULL,
	payload      TEXT NOT NULL,
	produced_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_produced_at ON snapshots(produced_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_snapshot_id ON snapshots(snapshot_id);
`

// Store writes snapshots to SQLite. It implements pipeline.SnapshotSink.
// SQLite allows one writer at a time: MaxOpenConns(1) plus a write mutex
// serialize the tick path against the retention pruner.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *observability.Metrics

	writeMu sync.Mutex
}

// Open opens (creating if needed) the database at path with WAL mode and
// applies the schema.
func Open(path string, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	dsn := path + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger, metrics: metrics}, nil
}

// StoreSnapshot inserts one snapshot row. The full snapshot rides as a JSON
// payload next to the indexed columns used for querying.
func (s *Store) StoreSnapshot(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.metrics.SnapshotsStored.WithLabelValues("sqlite", "error").Inc()
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (row_id, snapshot_id, risk_level, flood_pct, rainfall_mmh, payload, produced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		snap.ID,
		snap.RiskLevel.String(),
		snap.FloodPercent,
		snap.Observation.RainfallMmPerHour,
		string(payload),
		snap.ProducedAt.UTC(),
	)
	if err != nil {
		s.metrics.SnapshotsStored.WithLabelValues("sqlite", "error").Inc()
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}

	s.metrics.SnapshotsStored.WithLabelValues("sqlite", "ok").Inc()
	return nil
}

// PruneOlderThan deletes rows produced before the cutoff and returns how many
// were removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE produced_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned snapshot rows", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

// RunRetention prunes rows older than retention every interval until ctx is
// cancelled. Run on its own goroutine; writes are serialized against the tick
// path by the store's write mutex. A nil clock falls back to the real clock.
func (s *Store) RunRetention(ctx context.Context, interval, retention time.Duration, clock clockwork.Clock) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.PruneOlderThan(ctx, clock.Now().Add(-retention)); err != nil {
				s.logger.Warn("snapshot retention prune failed", "error", err)
			}
		}
	}
}

// RecentSnapshots returns up to limit snapshots, newest first, decoded from
// their stored payloads.
func (s *Store) RecentSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM snapshots ORDER BY produced_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		var snap domain.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot payload: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
