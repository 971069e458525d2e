package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// JobRecord is one row of the batch_jobs table.
type JobRecord struct {
	ID         int64     // Auto-incremented primary key
	JobID      string    // Batch job UUID
	Inputs     string    // Original input paths, comma-separated
	Engine     string    // Engine variant used ("fast" or "generative")
	Device     string    // Compute backend the job ran on
	Status     string    // queued, processing, completed, completed_with_errors, failed, cancelled
	Total      int       // Number of pages in the job
	Succeeded  int       // Pages colorized successfully
	Failed     int       // Pages that failed
	Message    string    // Final status message
	StartedAt  time.Time // When processing began
	FinishedAt time.Time // When the job reached a terminal status (zero while running)
}

// ItemRecord is one row of the batch_items table.
type ItemRecord struct {
	ID         int64     // Auto-incremented primary key
	JobID      string    // Owning batch job UUID
	RelPath    string    // Page path relative to its input root
	Status     string    // queued, processing, succeeded, failed, skipped
	OutPath    string    // Output file for succeeded items
	Error      string    // Failure message for failed items
	DurationMS int       // Per-page wall time in milliseconds
	CreatedAt  time.Time // Timestamp when the record was created
}

// Repository provides typed access to the job history tables.
type Repository struct {
	conn *sql.DB
}

// NewRepository creates a Repository over an open connection.
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{conn: conn}
}

// InsertJob records a new job at processing start.
func (r *Repository) InsertJob(ctx context.Context, rec JobRecord) (int64, error) {
	if r.conn == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO batch_jobs (
			job_id, inputs, engine, device, status, total, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.conn.ExecContext(ctx, query,
		rec.JobID, rec.Inputs, rec.Engine, rec.Device, rec.Status, rec.Total,
		rec.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return result.LastInsertId()
}

// FinishJob updates a job's terminal status and counters.
func (r *Repository) FinishJob(ctx context.Context, jobID, status, message string, succeeded, failed int) error {
	if r.conn == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE batch_jobs
		SET status = ?, message = ?, succeeded = ?, failed = ?, finished_at = ?
		WHERE job_id = ?`

	_, err := r.conn.ExecContext(ctx, query,
		status, message, succeeded, failed,
		time.Now().UTC().Format(time.RFC3339), jobID)
	if err != nil {
		return fmt.Errorf("finish job %s: %w", jobID, err)
	}
	return nil
}

// InsertItem records one page outcome.
func (r *Repository) InsertItem(ctx context.Context, rec ItemRecord) (int64, error) {
	if r.conn == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO batch_items (
			job_id, rel_path, status, out_path, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.conn.ExecContext(ctx, query,
		rec.JobID, rec.RelPath, rec.Status, rec.OutPath, rec.Error, rec.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return result.LastInsertId()
}

// GetJob fetches one job by its UUID.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	if r.conn == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, job_id, inputs, engine, device, status, total, succeeded,
		       failed, message, started_at, COALESCE(finished_at, '')
		FROM batch_jobs WHERE job_id = ?`

	var rec JobRecord
	var started, finished string
	err := r.conn.QueryRowContext(ctx, query, jobID).Scan(
		&rec.ID, &rec.JobID, &rec.Inputs, &rec.Engine, &rec.Device,
		&rec.Status, &rec.Total, &rec.Succeeded, &rec.Failed, &rec.Message,
		&started, &finished)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339, started)
	if finished != "" {
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
	}
	return &rec, nil
}

// ListRecentJobs returns the most recent jobs, newest first.
func (r *Repository) ListRecentJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	if r.conn == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, job_id, inputs, engine, device, status, total, succeeded,
		       failed, message, started_at, COALESCE(finished_at, '')
		FROM batch_jobs ORDER BY id DESC LIMIT ?`

	rows, err := r.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var rec JobRecord
		var started, finished string
		if err := rows.Scan(
			&rec.ID, &rec.JobID, &rec.Inputs, &rec.Engine, &rec.Device,
			&rec.Status, &rec.Total, &rec.Succeeded, &rec.Failed, &rec.Message,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

// ListItems returns the item outcomes of one job in insertion order.
func (r *Repository) ListItems(ctx context.Context, jobID string) ([]ItemRecord, error) {
	if r.conn == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, job_id, rel_path, status, out_path, error, duration_ms, created_at
		FROM batch_items WHERE job_id = ? ORDER BY id`

	rows, err := r.conn.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var rec ItemRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.RelPath, &rec.Status,
			&rec.OutPath, &rec.Error, &rec.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		rec.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		items = append(items, rec)
	}
	return items, rows.Err()
}

// PruneOlderThan deletes terminal jobs (and their items, via cascade) whose
// start time is older than the cutoff. Returns the number of jobs removed.
func (r *Repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.conn == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := `
		DELETE FROM batch_jobs
		WHERE started_at < ?
		  AND status NOT IN ('queued', 'processing')`

	result, err := r.conn.ExecContext(ctx, query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return result.RowsAffected()
}
