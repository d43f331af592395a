package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"motion/internal/config"
	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
)

const descendantPatchAttempts = 3

// CascadeWorker drains the cascade job queue. Each job sweeps the subtree
// under its root breadth-first and sets IsArchived on every descendant.
// Descendant patches are idempotent, so a job may safely run more than once.
type CascadeWorker struct {
	docRepo  docsysRepo.DocumentRepository
	queue    docsysRepo.CascadeJobQueue
	cache    docsysSvc.DocumentCache
	opts     docsysSvc.CascadeOptions
	maxDepth int
	wake     chan struct{}
	logger   *slog.Logger
}

// NewCascadeWorker creates a cascade worker. Zero-valued options fall back to defaults.
func NewCascadeWorker(
	docRepo docsysRepo.DocumentRepository,
	queue docsysRepo.CascadeJobQueue,
	cache docsysSvc.DocumentCache,
	opts docsysSvc.CascadeOptions,
	logger *slog.Logger,
) *CascadeWorker {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.Lease <= 0 {
		opts.Lease = 5 * time.Minute
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}

	return &CascadeWorker{
		docRepo:  docRepo,
		queue:    queue,
		cache:    cache,
		opts:     opts,
		maxDepth: config.MaxTreeDepth,
		wake:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// Notify wakes the dispatcher. Never blocks; wakeups coalesce.
func (w *CascadeWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run dispatches claimed jobs to a pool of workers until ctx is cancelled.
// Jobs still in flight at shutdown keep their lease and are reclaimed later.
func (w *CascadeWorker) Run(ctx context.Context) error {
	w.logger.Info("cascade worker started",
		"workers", w.opts.Workers,
		"poll_interval", w.opts.PollInterval,
	)

	jobs := make(chan models.CascadeJob)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return w.dispatch(gctx, jobs)
	})

	for i := 0; i < w.opts.Workers; i++ {
		g.Go(func() error {
			for job := range jobs {
				w.process(gctx, job)
			}
			return nil
		})
	}

	err := g.Wait()
	w.logger.Info("cascade worker stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Drain processes claimable jobs on the calling goroutine until the queue is
// empty. Jobs that keep failing are parked once they reach MaxAttempts, so
// Drain always terminates.
func (w *CascadeWorker) Drain(ctx context.Context) error {
	for {
		batch, err := w.queue.Claim(ctx, w.opts.Workers, w.opts.Lease)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, job := range batch {
			w.process(ctx, job)
		}
	}
}

func (w *CascadeWorker) dispatch(ctx context.Context, jobs chan<- models.CascadeJob) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		for {
			batch, err := w.queue.Claim(ctx, w.opts.Workers, w.opts.Lease)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("failed to claim cascade jobs", "error", err)
				break
			}
			if len(batch) == 0 {
				break
			}
			for _, job := range batch {
				select {
				case jobs <- job:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

// process runs one job and records the outcome on the queue
func (w *CascadeWorker) process(ctx context.Context, job models.CascadeJob) {
	logger := w.logger.With(
		"job_id", job.ID,
		"root_id", job.RootID,
		"archived", job.Archived,
		"attempt", job.Attempts,
	)

	patched, err := w.sweep(ctx, job)
	if err != nil {
		logger.Warn("cascade incomplete, releasing job", "patched", patched, "error", err)
		if err := w.queue.Release(ctx, job.ID, err, w.opts.MaxAttempts); err != nil {
			logger.Error("failed to release cascade job", "error", err)
		}
		if job.Attempts >= w.opts.MaxAttempts {
			logger.Error("cascade job gave up", "attempts", job.Attempts)
		}
		return
	}

	if err := w.queue.Complete(ctx, job.ID); err != nil {
		logger.Error("failed to complete cascade job", "error", err)
		return
	}
	logger.Debug("cascade complete", "patched", patched)
}

type sweepNode struct {
	id    string
	depth int
}

// sweep walks the subtree under job.RootID and patches every descendant.
// A failing descendant does not stop the walk; the job reports an error so
// that it is retried. The sweep stops as soon as the root no longer matches
// the job's target: the archive or restore that flipped it queued its own job.
func (w *CascadeWorker) sweep(ctx context.Context, job models.CascadeJob) (int, error) {
	if stale, err := w.superseded(ctx, job); err != nil || stale {
		return 0, err
	}

	visited := map[string]bool{job.RootID: true}
	queue := []sweepNode{{id: job.RootID}}
	patched := 0
	failed := 0
	var lastErr error

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if node.depth >= w.maxDepth {
			w.logger.Warn("cascade depth bound reached", "job_id", job.ID, "document_id", node.id)
			continue
		}

		parentID := node.id
		var children []models.Document
		err := w.retry(ctx, func() error {
			var err error
			children, err = w.docRepo.ListChildren(ctx, job.UserID, &parentID, nil)
			return err
		})
		if err != nil {
			failed++
			lastErr = fmt.Errorf("list children of %s: %w", node.id, err)
			continue
		}

		for i := range children {
			child := &children[i]
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true

			if child.IsArchived != job.Archived {
				stale, err := w.superseded(ctx, job)
				if err != nil {
					return patched, err
				}
				if stale {
					return patched, nil
				}
			}

			changed, err := w.patchDescendant(ctx, child, job.Archived)
			if err != nil {
				failed++
				lastErr = fmt.Errorf("patch %s: %w", child.ID, err)
			} else if changed {
				patched++
			}
			queue = append(queue, sweepNode{id: child.ID, depth: node.depth + 1})
		}
	}

	if failed > 0 {
		return patched, fmt.Errorf("%d descendant(s) failed: %w", failed, lastErr)
	}
	return patched, nil
}

// superseded reports whether the root's archive state differs from the job's
// target. A deleted root does not supersede the job.
func (w *CascadeWorker) superseded(ctx context.Context, job models.CascadeJob) (bool, error) {
	root, err := w.docRepo.GetByID(ctx, job.RootID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load root: %w", err)
	}
	if root.IsArchived != job.Archived {
		w.logger.Debug("cascade job superseded", "job_id", job.ID, "root_id", job.RootID)
		return true, nil
	}
	return false, nil
}

// patchDescendant sets IsArchived on one document. Documents already at the
// target value and documents deleted mid-sweep are skipped.
func (w *CascadeWorker) patchDescendant(ctx context.Context, doc *models.Document, archived bool) (bool, error) {
	if doc.IsArchived == archived {
		return false, nil
	}

	err := w.retry(ctx, func() error {
		_, err := w.docRepo.Patch(ctx, doc.ID, &models.DocumentPatch{IsArchived: &archived})
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := w.cache.Invalidate(ctx, doc.ID); err != nil {
		w.logger.Warn("document cache invalidation failed", "id", doc.ID, "error", err)
	}
	return true, nil
}

func (w *CascadeWorker) retry(ctx context.Context, fn retry.RetryableFunc) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(descendantPatchAttempts),
		retry.Delay(w.opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, domain.ErrNotFound)
		}),
	)
}
