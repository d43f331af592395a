package docsystem

import (
	"context"
	"time"

	"motion/internal/domain/models/docsystem"
)

// ObjectStorage stores cover-image blobs. The document store only ever holds
// the URL; Delete is best effort.
type ObjectStorage interface {
	Delete(ctx context.Context, url string) error
}

// DocumentCache is a read-through cache for single documents keyed by ID.
//
// Every ID has a generation that Invalidate bumps. Get returns the current
// generation along with the document, or with nil on a miss; after loading the
// document from the store the caller hands that generation back to Set. An
// entry written under an older generation is never returned, so a load that
// raced an invalidation cannot resurrect the old value.
type DocumentCache interface {
	Get(ctx context.Context, id string) (*docsystem.Document, int64, error)
	Set(ctx context.Context, doc *docsystem.Document, generation int64) error
	Invalidate(ctx context.Context, ids ...string) error
}

// CascadeNotifier wakes cascade workers after a job is enqueued.
type CascadeNotifier interface {
	Notify()
}

// CascadeOptions tunes the cascade worker
type CascadeOptions struct {
	Workers      int
	PollInterval time.Duration
	MaxAttempts  int           // Job attempts before it is parked as failed
	Lease        time.Duration // Claimed jobs older than this are reclaimed
	RetryDelay   time.Duration // Base backoff between descendant patch retries
}
