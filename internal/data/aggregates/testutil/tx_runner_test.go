package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
)

func TestInjectedTxRunnerWithoutDB(t *testing.T) {
	beginErr := errors.New("no connection")
	commitErr := errors.New("commit failed")
	bodyErr := errors.New("body failed")

	cases := []struct {
		name      string
		runner    *InjectedTxRunner
		body      error
		wantErr   error
		wantRan   bool
		wantCalls [3]int // begin, commit, rollback
	}{
		{"commit", &InjectedTxRunner{}, nil, nil, true, [3]int{1, 1, 0}},
		{"begin fails", &InjectedTxRunner{FailBegin: beginErr}, nil, beginErr, false, [3]int{1, 0, 0}},
		{"commit fails", &InjectedTxRunner{FailCommit: commitErr}, nil, commitErr, true, [3]int{1, 0, 1}},
		{"body fails", &InjectedTxRunner{FailCommit: commitErr}, bodyErr, bodyErr, true, [3]int{1, 0, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			err := tc.runner.InTx(context.Background(), func(dbc dbctx.Context) error {
				ran = true
				if dbc.Tx != nil {
					t.Fatalf("no DB configured, body must not get a tx")
				}
				return tc.body
			})
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("err: want=%v got=%v", tc.wantErr, err)
			}
			if ran != tc.wantRan {
				t.Fatalf("body ran: want=%v got=%v", tc.wantRan, ran)
			}
			got := [3]int{tc.runner.BeginCalls, tc.runner.CommitCalls, tc.runner.RollbackCalls}
			if got != tc.wantCalls {
				t.Fatalf("begin/commit/rollback: want=%v got=%v", tc.wantCalls, got)
			}
		})
	}
}
