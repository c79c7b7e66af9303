// Package archive keeps the results of every analysis run in a libsql
// (SQLite) database so runs can be compared later.
//
// Each CLI invocation opens one run, identified by a random UUID. Step
// records stream in while the sequence runs; aggregated tables are stored
// once per experiment and once for the whole folder.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/ironsheep/droplet-freeze/internal/nm"
)

// OverallScope is the table scope used for the folder-wide evaluation.
const OverallScope = "*"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	root        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	status      TEXT NOT NULL DEFAULT 'running'
);
CREATE TABLE IF NOT EXISTS step_records (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	experiment  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	temperature REAL NOT NULL,
	frozen      INTEGER NOT NULL,
	radii       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS table_rows (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	scope           TEXT NOT NULL,
	seq             INTEGER NOT NULL,
	temperature     REAL NOT NULL,
	frozen          INTEGER NOT NULL,
	radii           TEXT NOT NULL,
	already_frozen  INTEGER NOT NULL,
	frozen_fraction REAL NOT NULL,
	nm              REAL NOT NULL
);
`

// Run is one row of the runs table.
type Run struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}

// Archive is a handle on the results database.
type Archive struct {
	db *sql.DB
}

// Open connects to dsn, e.g. "file:results.db", and creates the tables if
// needed.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping archive: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) migrate(ctx context.Context) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create archive schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// StartRun registers a new run for root and returns its ID.
func (a *Archive) StartRun(ctx context.Context, root string) (string, error) {
	id := uuid.New().String()
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)`,
		id, root, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final status of a run, e.g. "done" or "aborted".
func (a *Archive) FinishRun(ctx context.Context, runID, status string) error {
	res, err := a.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// Runs lists every run, newest first.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, root, started_at, finished_at, status FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Root, &started, &finished, &r.Status); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			t, _ := time.Parse(time.RFC3339, finished.String)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ClearSteps removes the step records of one experiment of a run.
func (a *Archive) ClearSteps(ctx context.Context, runID, experiment string) error {
	_, err := a.db.ExecContext(ctx,
		`DELETE FROM step_records WHERE run_id = ? AND experiment = ?`, runID, experiment)
	if err != nil {
		return fmt.Errorf("failed to clear step records: %w", err)
	}
	return nil
}

// AddStep appends a step record.
func (a *Archive) AddStep(ctx context.Context, runID, experiment string, rec nm.FrameStepRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO step_records (run_id, experiment, seq, temperature, frozen, radii)
		VALUES (?, ?, (SELECT COUNT(*) FROM step_records WHERE run_id = ? AND experiment = ?), ?, ?, ?)`,
		runID, experiment, runID, experiment, rec.Temperature, rec.Frozen, nm.FormatRadiusList(rec.Radii))
	if err != nil {
		return fmt.Errorf("failed to store step record: %w", err)
	}
	return nil
}

// Steps returns the step records of one experiment of a run in the order
// they were added.
func (a *Archive) Steps(ctx context.Context, runID, experiment string) ([]nm.FrameStepRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT temperature, frozen, radii FROM step_records
		WHERE run_id = ? AND experiment = ? ORDER BY seq`, runID, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to read step records: %w", err)
	}
	defer rows.Close()

	var records []nm.FrameStepRecord
	for rows.Next() {
		var (
			rec   nm.FrameStepRecord
			radii string
		)
		if err := rows.Scan(&rec.Temperature, &rec.Frozen, &radii); err != nil {
			return nil, err
		}
		rec.Radii, _ = nm.ParseRadiusList(radii)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveTable replaces the stored table of scope in a run. Use the
// experiment name as scope, or OverallScope for the folder evaluation.
func (a *Archive) SaveTable(ctx context.Context, runID, scope string, table *nm.ExperimentTable) error {
	if table == nil {
		return errors.New("nil table")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE run_id = ? AND scope = ?`, runID, scope); err != nil {
		return fmt.Errorf("failed to clear table: %w", err)
	}
	for i, row := range table.Rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO table_rows (run_id, scope, seq, temperature, frozen, radii, already_frozen, frozen_fraction, nm)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, scope, i, row.Temperature, row.Frozen, nm.FormatRadiusList(row.Radii),
			row.Cumulative, row.FrozenFraction, row.Nm)
		if err != nil {
			return fmt.Errorf("failed to store table row: %w", err)
		}
	}
	return tx.Commit()
}

// Table reads back a stored table.
func (a *Archive) Table(ctx context.Context, runID, scope string) (*nm.ExperimentTable, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT temperature, frozen, radii, already_frozen, frozen_fraction, nm FROM table_rows
		WHERE run_id = ? AND scope = ? ORDER BY seq`, runID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer rows.Close()

	table := &nm.ExperimentTable{}
	for rows.Next() {
		var (
			row   nm.Row
			radii string
		)
		if err := rows.Scan(&row.Temperature, &row.Frozen, &radii, &row.Cumulative, &row.FrozenFraction, &row.Nm); err != nil {
			return nil, err
		}
		row.Radii, _ = nm.ParseRadiusList(radii)
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}
