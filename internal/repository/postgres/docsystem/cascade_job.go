package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	"motion/internal/repository/postgres"
)

const cascadeJobColumns = `id, root_id, user_id, archived, status, attempts, last_error, claimed_at, created_at`

// PostgresCascadeJobQueue implements CascadeJobQueue on a table. Claims use
// FOR UPDATE SKIP LOCKED so concurrent workers, including workers in other
// processes, never lease the same job twice.
type PostgresCascadeJobQueue struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewCascadeJobQueue creates a new cascade job queue
func NewCascadeJobQueue(config *postgres.RepositoryConfig) docsysRepo.CascadeJobQueue {
	return &PostgresCascadeJobQueue{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Enqueue persists a pending job
func (q *PostgresCascadeJobQueue) Enqueue(ctx context.Context, job *models.CascadeJob) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (root_id, user_id, archived, status, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		RETURNING id, created_at
	`, q.tables.CascadeJobs)

	job.Status = models.CascadeJobPending
	executor := postgres.GetExecutor(ctx, q.pool)
	err := executor.QueryRow(ctx, query, job.RootID, job.UserID, job.Archived, job.Status).
		Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue cascade job: %w", err)
	}

	return nil
}

// Claim leases up to limit pending jobs, oldest first. Only the oldest
// pending job of each user is claimable, so one user's sweeps never overlap.
func (q *PostgresCascadeJobQueue) Claim(ctx context.Context, limit int, lease time.Duration) ([]models.CascadeJob, error) {
	query := claimQuery(q.tables.CascadeJobs)

	executor := postgres.GetExecutor(ctx, q.pool)
	rows, err := executor.Query(ctx, query, models.CascadeJobPending, lease.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("claim cascade jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.CascadeJob{}
	for rows.Next() {
		var job models.CascadeJob
		err := rows.Scan(
			&job.ID,
			&job.RootID,
			&job.UserID,
			&job.Archived,
			&job.Status,
			&job.Attempts,
			&job.LastError,
			&job.ClaimedAt,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cascade job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cascade jobs: %w", err)
	}

	return jobs, nil
}

// claimQuery leases the oldest pending job of each user whose lease is free.
// created_at is set with clock_timestamp() on enqueue, so a job committed
// later never sorts ahead of one already visible.
func claimQuery(table string) string {
	return fmt.Sprintf(`
		UPDATE %[1]s SET claimed_at = NOW(), attempts = attempts + 1
		WHERE id IN (
			SELECT j.id FROM %[1]s j
			WHERE j.status = $1
			  AND (j.claimed_at IS NULL OR j.claimed_at < NOW() - make_interval(secs => $2))
			  AND NOT EXISTS (
				SELECT 1 FROM %[1]s older
				WHERE older.user_id = j.user_id
				  AND older.status = $1
				  AND (older.created_at, older.id) < (j.created_at, j.id)
			  )
			ORDER BY j.created_at, j.id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %[2]s
	`, table, cascadeJobColumns)
}

// Complete removes a finished job
func (q *PostgresCascadeJobQueue) Complete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, q.tables.CascadeJobs)

	executor := postgres.GetExecutor(ctx, q.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("complete cascade job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cascade job %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Release returns a job to the queue, or parks it as failed once attempts run out
func (q *PostgresCascadeJobQueue) Release(ctx context.Context, id string, cause error, maxAttempts int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET claimed_at = NULL,
		    last_error = $2,
		    status = CASE WHEN attempts >= $3 THEN $4 ELSE status END
		WHERE id = $1
	`, q.tables.CascadeJobs)

	var lastError *string
	if cause != nil {
		msg := cause.Error()
		lastError = &msg
	}

	executor := postgres.GetExecutor(ctx, q.pool)
	tag, err := executor.Exec(ctx, query, id, lastError, maxAttempts, models.CascadeJobFailed)
	if err != nil {
		return fmt.Errorf("release cascade job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cascade job %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
