// Package memory provides in-process implementations of the repository
// interfaces. They back local development (STORAGE_BACKEND=memory) and the
// service and handler tests.
package memory

import (
	"context"
	"sync"

	"motion/internal/domain/repositories"
)

// Store is the shared state behind the in-memory repositories. A single
// mutex guards everything, which also makes ExecTx trivially atomic per call.
type Store struct {
	mu        sync.Mutex
	documents map[string]*documentRow
	jobs      map[string]*jobRow
	seq       int64
	jobSeq    int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		documents: make(map[string]*documentRow),
		jobs:      make(map[string]*jobRow),
	}
}

// TransactionManager runs fn directly. Writes are not rolled back on error;
// the in-memory backend is for development and tests only.
type TransactionManager struct{}

// NewTransactionManager creates a new pass-through transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// ExecTx executes fn
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
