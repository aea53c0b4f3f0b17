// Package anglesdb persists pipeline runs in SQLite: one row per run, one
// per trial and one per joint angle sample. The schema is managed by
// embedded golang-migrate migrations.
package anglesdb

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/export"
	"github.com/banshee-data/swing.kinematics/internal/kinematics"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/timeutil"
	"github.com/banshee-data/swing.kinematics/internal/trial"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or trial does not exist.
var ErrNotFound = errors.New("not found")

// DB is the joint angle store.
type DB struct {
	*sql.DB
}

// Open opens or creates the database at path with foreign keys enforced.
// Call MigrateUp before use.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open angles database: %w", err)
	}
	return &DB{db}, nil
}

// Run is one invocation of the pipeline.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time // zero while the run is open
	FailedTrials int
	ConfigJSON   string
}

// TrialRecord is a stored trial.
type TrialRecord struct {
	SessionSwing string
	Metadata     trial.Metadata
	Samples      int
}

// StartRun records a new run and returns its identifier.
func (db *DB) StartRun(clock timeutil.Clock, configJSON string) (string, error) {
	if configJSON == "" {
		configJSON = "{}"
	}
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO runs (run_id, started_at, config_json) VALUES (?, ?, ?)`,
		id, clock.Now().UnixNano(), configJSON)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	monitoring.Debugf("started run %s", id)
	return id, nil
}

// FinishRun stamps the end of a run with the number of trials that failed.
func (db *DB) FinishRun(clock timeutil.Clock, runID string, failedTrials int) error {
	res, err := db.Exec(`UPDATE runs SET finished_at = ?, failed_trials = ? WHERE run_id = ?`,
		clock.Now().UnixNano(), failedTrials, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns a stored run.
func (db *DB) GetRun(runID string) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := db.QueryRow(`SELECT run_id, started_at, finished_at, failed_trials, config_json FROM runs WHERE run_id = ?`, runID).
		Scan(&r.ID, &started, &finished, &r.FailedTrials, &r.ConfigJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	return &r, nil
}

// ListRuns returns every stored run, oldest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, started_at, finished_at, failed_trials, config_json FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.FailedTrials, &r.ConfigJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64).UTC()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordResult stores a trial and all of its joint angle samples in one
// transaction. Undefined angles are stored as NULL.
func (db *DB) RecordResult(runID string, res *kinematics.Result) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	md := res.Metadata
	_, err = tx.Exec(`
		INSERT INTO trials (run_id, session_swing, user_id, session_id, height, weight, batter_hand, swing, exit_velocity_mph, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, res.SessionSwing, md.UserID, md.SessionID, md.Height, md.Weight, string(md.BatterHand), md.Swing, md.ExitVelocity, len(res.Time))
	if err != nil {
		return fmt.Errorf("failed to insert trial %s: %w", res.SessionSwing, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO joint_angles (run_id, session_swing, column_name, sample, time, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare angle insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range res.Joints {
		for axis, col := range j.Columns {
			for i, a := range j.Angles {
				var value interface{}
				if !math.IsNaN(a[axis]) {
					value = a[axis]
				}
				if _, err := stmt.Exec(runID, res.SessionSwing, col, i, res.Time[i], value); err != nil {
					return fmt.Errorf("failed to insert %s sample %d: %w", col, i, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trial %s: %w", res.SessionSwing, err)
	}
	return nil
}

// ListTrials returns the trials of a run ordered by session swing.
func (db *DB) ListTrials(runID string) ([]TrialRecord, error) {
	rows, err := db.Query(`
		SELECT session_swing, user_id, session_id, height, weight, batter_hand, swing, exit_velocity_mph, sample_count
		FROM trials WHERE run_id = ? ORDER BY session_swing
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	defer rows.Close()

	var out []TrialRecord
	for rows.Next() {
		var (
			t    TrialRecord
			hand string
		)
		md := &t.Metadata
		if err := rows.Scan(&t.SessionSwing, &md.UserID, &md.SessionID, &md.Height, &md.Weight, &hand, &md.Swing, &md.ExitVelocity, &t.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		md.BatterHand = body.Side(hand)
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadJointAngles returns the time stamps and values of one angle column of
// a stored trial in sample order. NULL values come back as NaN.
func (db *DB) LoadJointAngles(runID, sessionSwing, column string) (times, values []float64, err error) {
	rows, err := db.Query(`
		SELECT time, value FROM joint_angles
		WHERE run_id = ? AND session_swing = ? AND column_name = ?
		ORDER BY sample
	`, runID, sessionSwing, column)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load joint angles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t float64
			v sql.NullFloat64
		)
		if err := rows.Scan(&t, &v); err != nil {
			return nil, nil, fmt.Errorf("failed to scan joint angle: %w", err)
		}
		times = append(times, t)
		if v.Valid {
			values = append(values, v.Float64)
		} else {
			values = append(values, math.NaN())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(times) == 0 {
		return nil, nil, fmt.Errorf("%s %s %s: %w", runID, sessionSwing, column, ErrNotFound)
	}
	return times, values, nil
}

// angleColumns returns the stored angle columns of a trial in insertion order.
func (db *DB) angleColumns(runID, sessionSwing string) ([]string, error) {
	rows, err := db.Query(`
		SELECT column_name FROM joint_angles
		WHERE run_id = ? AND session_swing = ?
		GROUP BY column_name ORDER BY MIN(rowid)
	`, runID, sessionSwing)
	if err != nil {
		return nil, fmt.Errorf("failed to list angle columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// LoadTable rebuilds the joint angle table of a stored run. Column order
// follows the first trial; trials are in session swing order.
func (db *DB) LoadTable(runID string) (*export.Table, error) {
	if _, err := db.GetRun(runID); err != nil {
		return nil, err
	}
	trials, err := db.ListTrials(runID)
	if err != nil {
		return nil, err
	}

	table := &export.Table{}
	trialCols := make([][]string, len(trials))
	for n, tr := range trials {
		if trialCols[n], err = db.angleColumns(runID, tr.SessionSwing); err != nil {
			return nil, err
		}
		for _, c := range trialCols[n] {
			if table.ColumnIndex(c) < 0 {
				table.Columns = append(table.Columns, c)
			}
		}
	}

	for n, tr := range trials {
		first := len(table.Rows)
		for i := 0; i < tr.Samples; i++ {
			values := make([]float64, len(table.Columns))
			for k := range values {
				values[k] = math.NaN()
			}
			table.Rows = append(table.Rows, export.Row{SessionSwing: tr.SessionSwing, Values: values})
		}
		for _, c := range trialCols[n] {
			times, values, err := db.LoadJointAngles(runID, tr.SessionSwing, c)
			if err != nil {
				return nil, err
			}
			if len(values) != tr.Samples {
				return nil, fmt.Errorf("trial %s column %s: %d samples stored, want %d", tr.SessionSwing, c, len(values), tr.Samples)
			}
			k := table.ColumnIndex(c)
			for i, v := range values {
				table.Rows[first+i].Time = times[i]
				table.Rows[first+i].Values[k] = v
			}
		}
	}
	return table, nil
}
