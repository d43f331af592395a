package docsystem

import "time"

// CascadeJobStatus is the lifecycle state of a queued cascade sweep
type CascadeJobStatus string

const (
	CascadeJobPending CascadeJobStatus = "pending"
	CascadeJobFailed  CascadeJobStatus = "failed" // Gave up after max attempts
)

// CascadeJob propagates IsArchived from RootID to every descendant of RootID.
// Jobs are durable and processed at least once.
type CascadeJob struct {
	ID        string           `json:"id" db:"id"`
	RootID    string           `json:"root_id" db:"root_id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Archived  bool             `json:"archived" db:"archived"`
	Status    CascadeJobStatus `json:"status" db:"status"`
	Attempts  int              `json:"attempts" db:"attempts"`
	LastError *string          `json:"last_error,omitempty" db:"last_error"`
	ClaimedAt *time.Time       `json:"claimed_at,omitempty" db:"claimed_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
