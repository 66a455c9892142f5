// Package storage holds the transaction boundary shared by the repositories:
// an in-memory store guarded by one RW lock with an undo log, and a pgx pool
// whose transactions travel in the context.
package storage

import "context"

// TxManager runs fn inside one atomic unit. Nested calls join the outer unit.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
