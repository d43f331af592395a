package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
)

type jobRow struct {
	job models.CascadeJob
	seq int64
}

// CascadeJobQueue implements CascadeJobQueue on a Store
type CascadeJobQueue struct {
	store *Store
	now   func() time.Time
}

// NewCascadeJobQueue creates a new in-memory cascade job queue
func NewCascadeJobQueue(store *Store) docsysRepo.CascadeJobQueue {
	return &CascadeJobQueue{store: store, now: time.Now}
}

// Enqueue persists a pending job
func (q *CascadeJobQueue) Enqueue(ctx context.Context, job *models.CascadeJob) error {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	job.ID = uuid.NewString()
	job.Status = models.CascadeJobPending
	job.CreatedAt = q.now().UTC()
	q.store.jobSeq++
	q.store.jobs[job.ID] = &jobRow{job: *job, seq: q.store.jobSeq}
	return nil
}

// Claim leases up to limit pending jobs, oldest first. Only the oldest
// pending job of each user is claimable, so one user's sweeps never overlap.
func (q *CascadeJobQueue) Claim(ctx context.Context, limit int, lease time.Duration) ([]models.CascadeJob, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	oldest := make(map[string]*jobRow)
	for _, row := range q.store.jobs {
		if row.job.Status != models.CascadeJobPending {
			continue
		}
		if cur, ok := oldest[row.job.UserID]; !ok || row.seq < cur.seq {
			oldest[row.job.UserID] = row
		}
	}

	now := q.now().UTC()
	var candidates []*jobRow
	for _, row := range oldest {
		if row.job.ClaimedAt != nil && now.Sub(*row.job.ClaimedAt) < lease {
			continue
		}
		candidates = append(candidates, row)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].seq < candidates[j].seq
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	jobs := make([]models.CascadeJob, 0, len(candidates))
	for _, row := range candidates {
		claimedAt := now
		row.job.ClaimedAt = &claimedAt
		row.job.Attempts++
		jobs = append(jobs, row.job)
	}
	return jobs, nil
}

// Complete removes a finished job
func (q *CascadeJobQueue) Complete(ctx context.Context, id string) error {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	if _, ok := q.store.jobs[id]; !ok {
		return fmt.Errorf("cascade job %s: %w", id, domain.ErrNotFound)
	}
	delete(q.store.jobs, id)
	return nil
}

// Release returns a job to the queue, or parks it as failed once attempts run out
func (q *CascadeJobQueue) Release(ctx context.Context, id string, cause error, maxAttempts int) error {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	row, ok := q.store.jobs[id]
	if !ok {
		return fmt.Errorf("cascade job %s: %w", id, domain.ErrNotFound)
	}

	row.job.ClaimedAt = nil
	if cause != nil {
		msg := cause.Error()
		row.job.LastError = &msg
	}
	if row.job.Attempts >= maxAttempts {
		row.job.Status = models.CascadeJobFailed
	}
	return nil
}

// Jobs returns a snapshot of every queued job, including failed ones
func (s *Store) Jobs() []models.CascadeJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]models.CascadeJob, 0, len(s.jobs))
	for _, row := range s.jobs {
		jobs = append(jobs, row.job)
	}
	return jobs
}
