// Package postgres persists pipeline run artifacts for reporting
// collaborators. Reports are stored as JSON documents keyed by run id;
// cluster labels and transition flags are stored row-per-record so reporting
// queries can join them against the source extract by URN.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"schoolscope/internal/pipeline"
	"schoolscope/ports"
)

// artifactRepository implements the ArtifactStore interface
type artifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *sqlx.DB) ports.ArtifactStore {
	return &artifactRepository{db: db}
}

// Bootstrap creates the artifact tables when they do not exist
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		profile_report JSONB NOT NULL,
		imputation_report JSONB NOT NULL,
		repair_report JSONB NOT NULL,
		outlier_report JSONB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS cluster_labels (
		run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
		run_name TEXT NOT NULL,
		record_id BIGINT NOT NULL,
		raw_id INT NOT NULL,
		ordinal INT NOT NULL,
		pc1 DOUBLE PRECISION,
		pc2 DOUBLE PRECISION,
		PRIMARY KEY (run_id, run_name, record_id)
	);
	CREATE TABLE IF NOT EXISTS transition_flags (
		run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
		run_name TEXT NOT NULL,
		record_id BIGINT NOT NULL,
		distance DOUBLE PRECISION NOT NULL,
		flagged BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, run_name, record_id)
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to bootstrap artifact schema: %w", err)
	}
	return nil
}

// SaveResult writes one run's artifacts in a single transaction
func (r *artifactRepository) SaveResult(ctx context.Context, result *pipeline.Result) error {
	profileJSON, err := json.Marshal(result.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile report: %w", err)
	}
	imputationJSON, err := json.Marshal(result.Imputation)
	if err != nil {
		return fmt.Errorf("failed to marshal imputation report: %w", err)
	}
	repairJSON, err := json.Marshal(result.Repair)
	if err != nil {
		return fmt.Errorf("failed to marshal repair report: %w", err)
	}
	outlierJSON, err := json.Marshal(result.Outliers)
	if err != nil {
		return fmt.Errorf("failed to marshal outlier report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, started_at, profile_report, imputation_report, repair_report, outlier_report)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.RunID.String(), result.StartedAt.Time(), profileJSON, imputationJSON, repairJSON, outlierJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, run := range result.Clusterings {
		for i, a := range run.Assignments {
			var pc1, pc2 *float64
			if i < len(run.Projection) {
				pc1, pc2 = &run.Projection[i].X, &run.Projection[i].Y
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cluster_labels (run_id, run_name, record_id, raw_id, ordinal, pc1, pc2)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				result.RunID.String(), run.Name, int64(a.RecordID), a.RawID, a.Ordinal, pc1, pc2,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cluster label: %w", err)
			}
		}
	}

	for _, report := range result.Transitions {
		for _, flag := range report.Flags {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO transition_flags (run_id, run_name, record_id, distance, flagged)
				 VALUES ($1, $2, $3, $4, $5)`,
				result.RunID.String(), report.RunName, int64(flag.RecordID), flag.Distance, flag.Flagged,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transition flag: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	return nil
}
