package docsystem

import (
	"context"
	"time"

	"motion/internal/domain/models/docsystem"
)

// CascadeJobQueue is the durable queue behind archive/restore sweeps.
type CascadeJobQueue interface {
	// Enqueue persists a pending job. Participates in the context transaction if any.
	Enqueue(ctx context.Context, job *docsystem.CascadeJob) error

	// Claim leases up to limit pending jobs. Jobs of one user are claimed one
	// at a time in enqueue order. Jobs claimed longer than lease ago are
	// considered abandoned and may be claimed again.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]docsystem.CascadeJob, error)

	// Complete removes a finished job
	Complete(ctx context.Context, id string) error

	// Release returns a job to the queue with its error recorded. When the job has
	// reached maxAttempts it is parked as failed instead.
	Release(ctx context.Context, id string, cause error, maxAttempts int) error
}
