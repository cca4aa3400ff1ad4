// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/fermata/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrUnavailable wraps storage write failures. The in-memory model stays
// authoritative for the rest of the process; durability resumes on the
// next successful write.
var ErrUnavailable = errors.New("store: persistence unavailable")

// Store wraps SQLite access for learner data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS item_stats (
			mode TEXT NOT NULL,
			item TEXT NOT NULL,
			trial_count INTEGER NOT NULL,
			automaticity REAL NOT NULL,
			last_seen TEXT NOT NULL,
			PRIMARY KEY (mode, item)
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			id INTEGER PRIMARY KEY,
			mode TEXT NOT NULL,
			item TEXT NOT NULL,
			correct INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS baselines (
			mode TEXT PRIMARY KEY,
			baseline_ms INTEGER NOT NULL,
			calibrated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scopes (
			mode TEXT PRIMARY KEY,
			group_indices TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trials_mode_item ON trials(mode, item);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func writeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// RecordTrial durably persists an updated item stat together with the
// trial that produced it, in one transaction.
func (s *Store) RecordTrial(ctx context.Context, mode string, stat model.ItemStat, correct bool, latencyMs int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return writeErr(err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO item_stats (mode, item, trial_count, automaticity, last_seen)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (mode, item) DO UPDATE SET
			trial_count = excluded.trial_count,
			automaticity = excluded.automaticity,
			last_seen = excluded.last_seen`,
		mode, stat.Item, stat.TrialCount, stat.Automaticity, stat.LastSeen.Format(time.RFC3339Nano),
	); err != nil {
		return writeErr(err)
	}

	correctInt := 0
	if correct {
		correctInt = 1
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO trials (mode, item, correct, latency_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		mode, stat.Item, correctInt, latencyMs, stat.LastSeen.Format(time.RFC3339Nano),
	); err != nil {
		return writeErr(err)
	}

	if err = tx.Commit(); err != nil {
		return writeErr(err)
	}
	return nil
}

// LoadItemStats returns all persisted item stats for a mode.
func (s *Store) LoadItemStats(ctx context.Context, mode string) (map[string]model.ItemStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item, trial_count, automaticity, last_seen FROM item_stats WHERE mode = ?`, mode)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	stats := map[string]model.ItemStat{}
	for rows.Next() {
		var stat model.ItemStat
		var lastSeen string
		if err := rows.Scan(&stat.Item, &stat.TrialCount, &stat.Automaticity, &lastSeen); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, lastSeen)
		if err != nil {
			return nil, err
		}
		stat.LastSeen = parsed
		stats[stat.Item] = stat
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveBaseline replaces the motor baseline for a mode.
func (s *Store) SaveBaseline(ctx context.Context, mode string, baselineMs int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baselines (mode, baseline_ms, calibrated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (mode) DO UPDATE SET
			baseline_ms = excluded.baseline_ms,
			calibrated_at = excluded.calibrated_at`,
		mode, baselineMs, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return writeErr(err)
	}
	return nil
}

// LoadBaseline returns the stored motor baseline for a mode, if any.
func (s *Store) LoadBaseline(ctx context.Context, mode string) (int64, bool, error) {
	var baselineMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT baseline_ms FROM baselines WHERE mode = ?`, mode).Scan(&baselineMs)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return baselineMs, true, nil
}

// DeleteBaseline removes the stored baseline, forcing recalibration.
func (s *Store) DeleteBaseline(ctx context.Context, mode string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM baselines WHERE mode = ?`, mode); err != nil {
		return writeErr(err)
	}
	return nil
}

// SaveScope replaces the enabled group indices for a mode.
func (s *Store) SaveScope(ctx context.Context, mode string, indices []int) error {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scopes (mode, group_indices)
		 VALUES (?, ?)
		 ON CONFLICT (mode) DO UPDATE SET group_indices = excluded.group_indices`,
		mode, strings.Join(parts, ","))
	if err != nil {
		return writeErr(err)
	}
	return nil
}

// LoadScope returns the enabled group indices for a mode, if stored.
func (s *Store) LoadScope(ctx context.Context, mode string) ([]int, bool, error) {
	var joined string
	err := s.db.QueryRowContext(ctx,
		`SELECT group_indices FROM scopes WHERE mode = ?`, mode).Scan(&joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if joined == "" {
		return []int{}, true, nil
	}
	parts := strings.Split(joined, ",")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, false, fmt.Errorf("malformed scope entry for %s: %w", mode, err)
		}
		indices = append(indices, idx)
	}
	return indices, true, nil
}

// InsertRound stores a completed practice round.
func (s *Store) InsertRound(ctx context.Context, stats model.RoundStats) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (mode, started_at, ended_at, correct, incorrect, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		stats.Mode,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Correct,
		stats.Incorrect,
		stats.DurationMs,
	)
	if err != nil {
		return 0, writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, writeErr(err)
	}
	return id, nil
}

// ListRounds returns round aggregates filtered by stats config.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, correct, incorrect, duration_ms
		FROM rounds
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt string
		if err := rows.Scan(&agg.RoundID, &endedAt, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// ClearMode removes all learner data for a mode. This is the only path
// that resets automaticity.
func (s *Store) ClearMode(ctx context.Context, mode string) error {
	for _, table := range []string{"item_stats", "trials", "baselines", "scopes", "rounds"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE mode = ?", table)
		if _, err := s.db.ExecContext(ctx, query, mode); err != nil {
			return writeErr(err)
		}
	}
	return nil
}
