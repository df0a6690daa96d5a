package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestHooksRecorderKeepsCallOrder(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("SecretSanta.Start", "conflict", 10*time.Millisecond)
	h.IncConflict("SecretSanta.Start")
	h.ObserveOperation("SecretSanta.Cancel", "success", time.Millisecond)
	h.IncRetry("SecretSanta.Cancel")

	calls := h.Calls()
	want := []HookKind{HookOperation, HookConflict, HookOperation, HookRetry}
	if len(calls) != len(want) {
		t.Fatalf("calls: want=%d got=%d", len(want), len(calls))
	}
	for i, k := range want {
		if calls[i].Kind != k {
			t.Fatalf("call %d: want=%s got=%s", i, k, calls[i].Kind)
		}
	}
	if got := h.Statuses("SecretSanta.Start"); len(got) != 1 || got[0] != "conflict" {
		t.Fatalf("start statuses: %+v", got)
	}
	if got := h.Count(HookConflict, ""); got != 1 {
		t.Fatalf("conflicts: want=1 got=%d", got)
	}
	if got := h.Count(HookRetry, "SecretSanta.Start"); got != 0 {
		t.Fatalf("start retries: want=0 got=%d", got)
	}
}

func TestHooksRecorderConcurrentUse(t *testing.T) {
	h := &HooksRecorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.IncConflict("SecretSanta.Start")
		}()
	}
	wg.Wait()
	if got := h.Count(HookConflict, "SecretSanta.Start"); got != 20 {
		t.Fatalf("conflicts: want=20 got=%d", got)
	}
}
