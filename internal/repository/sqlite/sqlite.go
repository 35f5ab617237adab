package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sdnview/internal/domain"
	"sdnview/internal/identity"

	_ "modernc.org/sqlite"
)

const routerCounterKey = "router_counter"

// Repository implements identity.Store and repository.RunHistory using SQLite
type Repository struct {
	db *sql.DB
}

var _ identity.Store = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS router_identities (
		dpid TEXT PRIMARY KEY,
		label TEXT NOT NULL UNIQUE,
		seq INTEGER NOT NULL,
		assigned_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reconcile_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		registered INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		host_failures INTEGER NOT NULL DEFAULT 0,
		pairs_added INTEGER NOT NULL DEFAULT 0,
		pairs_present INTEGER NOT NULL DEFAULT 0,
		pair_failures INTEGER NOT NULL DEFAULT 0,
		policy_skipped INTEGER NOT NULL DEFAULT 0,
		writes INTEGER NOT NULL DEFAULT 0,
		errors JSON
	);

	CREATE INDEX IF NOT EXISTS idx_router_identities_seq ON router_identities(seq);
	CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started ON reconcile_runs(started_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}

// LoadRouterLabels returns every persisted router label and the counter
func (r *Repository) LoadRouterLabels(ctx context.Context) ([]domain.RouterLabel, int, error) {
	seq, err := r.counter(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT dpid, label, seq, assigned_at
		FROM router_identities
		ORDER BY seq
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query router identities: %w", err)
	}
	defer rows.Close()

	var labels []domain.RouterLabel
	for rows.Next() {
		var row labelRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan router identity: %w", err)
		}
		labels = append(labels, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating router identities: %w", err)
	}

	return labels, seq, nil
}

// SaveRouterLabel inserts a label and advances the counter in one
// transaction. A taken datapath or label yields identity.ErrLabelConflict.
func (r *Repository) SaveRouterLabel(ctx context.Context, label domain.RouterLabel) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO router_identities (dpid, label, seq, assigned_at)
		VALUES (?, ?, ?, ?)
	`, labelInsertArgs(label)...)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("router %s as %s: %w", label.DatapathID, label.Label, identity.ErrLabelConflict)
		}
		return fmt.Errorf("failed to insert router identity: %w", err)
	}

	current, err := r.counter(ctx, tx)
	if err != nil {
		return err
	}
	if label.Seq > current {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, routerCounterKey, strconv.Itoa(label.Seq))
		if err != nil {
			return fmt.Errorf("failed to advance router counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit router identity: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) counter(ctx context.Context, q queryer) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, routerCounterKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query router counter: %w", err)
	}
	seq, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt router counter %q: %w", value, err)
	}
	return seq, nil
}

// RecordRun stores the summary of a reconciliation pass
func (r *Repository) RecordRun(ctx context.Context, run domain.ReconcileRun) error {
	args, err := runInsertArgs(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs (
			id, started_at, finished_at, registered, unchanged, host_failures,
			pairs_added, pairs_present, pair_failures, policy_skipped, writes, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert reconcile run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, registered, unchanged, host_failures,
			pairs_added, pairs_present, pair_failures, policy_skipped, writes, errors
		FROM reconcile_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.ReconcileRun{}
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan reconcile run: %w", err)
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconcile runs: %w", err)
	}
	return runs, nil
}

func isConstraintError(err error) bool {
	return strings.Contains(err.Error(), "constraint failed")
}
