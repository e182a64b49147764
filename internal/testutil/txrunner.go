package testutil

import (
	"context"
)

// PassthroughTxRunner satisfies the transaction runner contract of the
// service layer without a database: the function runs directly on the given
// context. In-memory stores are mutated immediately, so tests asserting on
// rollback behavior use stores wired to fail instead.
type PassthroughTxRunner struct{}

func NewPassthroughTxRunner() *PassthroughTxRunner {
	return &PassthroughTxRunner{}
}

func (r *PassthroughTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
