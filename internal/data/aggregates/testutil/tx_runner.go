package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/aggregates"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
)

// InjectedTxRunner injects failures at the transaction boundary. With DB set
// the body runs inside a real transaction, so FailCommit proves that the
// body's writes are rolled back; without DB the body gets no transaction.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	db := r.DB
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if fn == nil {
		r.count(&r.CommitCalls)
		return nil
	}

	if db == nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.count(&r.RollbackCalls)
			return err
		}
		if failCommit != nil {
			r.count(&r.RollbackCalls)
			return failCommit
		}
		r.count(&r.CommitCalls)
		return nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		// returning an error makes gorm roll back
		return failCommit
	})
	if err != nil {
		r.count(&r.RollbackCalls)
		return err
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
