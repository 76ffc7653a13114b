// Package store provides the sqlite results archive: every run's outcome
// rows are recorded so scenario metrics can be compared across
// invocations.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the results archive.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    infectiousness TEXT NOT NULL,
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    scenario TEXT NOT NULL,
    source TEXT NOT NULL,

    transmission_averted REAL NOT NULL,
    marginal_impact REAL NOT NULL,
    symptom_isolation_success REAL NOT NULL,
    contact_isolation_success REAL NOT NULL,

    primary_tested REAL NOT NULL,
    adherence_symptom_isolation REAL NOT NULL,
    proportion_contacts_reached REAL NOT NULL,
    proportion_contacts_reached_compliant REAL NOT NULL,
    transmission_pre_symptom REAL NOT NULL,
    transmission_pre_contact REAL NOT NULL,

    PRIMARY KEY (run_id, scenario, source)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_scenario ON outcomes(scenario, source);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

// InitSchema creates the archive tables if they do not exist and records
// the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	}
	return nil
}
