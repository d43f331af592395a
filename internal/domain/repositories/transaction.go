package repositories

import "context"

// TxFn is a function that runs within a transaction. Repositories called with
// the ctx passed to fn join the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a group of repository calls atomically. Archive and
// restore use it to commit the root patch together with its cascade job.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
