package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/openepi/rum/internal/runner"
)

// ResultStore archives run outcomes in a SQLite database.
type ResultStore struct {
	db   *sql.DB
	path string
}

// RunRecord summarizes one archived run.
type RunRecord struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Infectiousness string    `json:"infectiousness"`
	StartedAt      time.Time `json:"started_at"`
	Outcomes       int       `json:"outcomes"`
}

// Open opens (or creates) the archive at path.
func Open(path string) (*ResultStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing archive schema: %w", err)
	}

	return &ResultStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts one run and all its outcome rows in a single
// transaction. It returns the archived run id.
func (s *ResultStore) RecordRun(ctx context.Context, name, infectiousness string, rows []runner.Row) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting archive transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (name, infectiousness, started_at) VALUES (?, ?, ?)`,
		name, infectiousness, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("recording run %q: %w", name, err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (
			run_id, scenario, source,
			transmission_averted, marginal_impact,
			symptom_isolation_success, contact_isolation_success,
			primary_tested, adherence_symptom_isolation,
			proportion_contacts_reached, proportion_contacts_reached_compliant,
			transmission_pre_symptom, transmission_pre_contact
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		o := row.Outcome
		if _, err := stmt.ExecContext(ctx,
			runID, row.Scenario.ID, row.Scenario.Source.String(),
			o.TransmissionAverted, o.MarginalImpact,
			o.SymptomIsolationSuccess, o.ContactIsolationSuccess,
			o.PrimaryTested, o.AdherenceSymptomIsolation,
			o.ProportionContactsReached, o.ProportionContactsReachedCompliant,
			o.TransmissionPreSymptom, o.TransmissionPreContact,
		); err != nil {
			return 0, fmt.Errorf("archiving scenario %q: %w", row.Scenario.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing archive transaction: %w", err)
	}
	return runID, nil
}

// ListRuns returns all archived runs, newest first.
func (s *ResultStore) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.infectiousness, r.started_at, COUNT(o.run_id)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing archived runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Infectiousness, &started, &rec.Outcomes); err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			rec.StartedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
