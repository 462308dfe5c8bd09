package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// EnqueueJob adds one job to the ingest queue.
func (db *DB) EnqueueJob(ctx context.Context, jobType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	const query = `
		INSERT INTO ingest_jobs (job_type, payload, status)
		VALUES ($1, $2, $3)`

	if _, err := db.Pool.Exec(ctx, query, jobType, payloadJSON, domain.JobQueued); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	return nil
}

// ClaimJobs atomically picks up to limit queued jobs and marks them
// processing. SKIP LOCKED keeps concurrent workers from claiming the same
// rows.
func (db *DB) ClaimJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	var res []domain.Job

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		const pick = `
			SELECT id, job_type, payload, status, attempts, created_at, updated_at
			FROM ingest_jobs
			WHERE status = $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED`

		rows, err := tx.Query(ctx, pick, domain.JobQueued, limit)
		if err != nil {
			return fmt.Errorf("pick jobs: %w", err)
		}
		defer rows.Close()

		ids := make([]int64, 0, limit)

		for rows.Next() {
			var j domain.Job
			if err := rows.Scan(&j.ID, &j.JobType, &j.Payload, &j.Status, &j.Attempts, &j.CreatedAt, &j.UpdatedAt); err != nil {
				return fmt.Errorf("scan job: %w", err)
			}

			j.Status = domain.JobProcessing
			res = append(res, j)
			ids = append(ids, j.ID)
		}

		if err := rows.Err(); err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		const mark = `
			UPDATE ingest_jobs
			SET status = $1, updated_at = now()
			WHERE id = ANY($2)`

		if _, err := tx.Exec(ctx, mark, domain.JobProcessing, ids); err != nil {
			return fmt.Errorf("mark jobs processing: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}

	return res, nil
}

// MarkJobSuccess marks one job as completed.
func (db *DB) MarkJobSuccess(ctx context.Context, jobID int64) error {
	const query = `
		UPDATE ingest_jobs
		SET status = $1, updated_at = now()
		WHERE id = $2`

	if _, err := db.Pool.Exec(ctx, query, domain.JobSuccess, jobID); err != nil {
		return fmt.Errorf("mark job success: %w", err)
	}

	return nil
}

// MarkJobFailed marks one job as permanently failed.
func (db *DB) MarkJobFailed(ctx context.Context, jobID int64) error {
	const query = `
		UPDATE ingest_jobs
		SET status = $1, updated_at = now()
		WHERE id = $2`

	if _, err := db.Pool.Exec(ctx, query, domain.JobFailed, jobID); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}

	return nil
}

// RequeueJob returns one job to the queue with an incremented attempt count.
func (db *DB) RequeueJob(ctx context.Context, jobID int64) error {
	const query = `
		UPDATE ingest_jobs
		SET status = $1, attempts = attempts + 1, updated_at = now()
		WHERE id = $2`

	if _, err := db.Pool.Exec(ctx, query, domain.JobQueued, jobID); err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}

	return nil
}

// CountJobsByStatus returns the number of jobs per status, for backlog
// metrics.
func (db *DB) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	const query = `
		SELECT status, count(*)
		FROM ingest_jobs
		GROUP BY status`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	defer rows.Close()

	res := make(map[string]int)

	for rows.Next() {
		var (
			status string
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job count: %w", err)
		}

		res[status] = count
	}

	return res, rows.Err()
}
