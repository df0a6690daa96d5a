package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/wishlist-backend/internal/data/aggregates"
)

type HookKind string

const (
	HookOperation HookKind = "operation"
	HookConflict  HookKind = "conflict"
	HookRetry     HookKind = "retry"
)

type HookCall struct {
	Kind     HookKind
	Name     string
	Status   string
	Duration time.Duration
}

// HooksRecorder keeps every aggregate hook call in call order.
type HooksRecorder struct {
	mu    sync.Mutex
	calls []HookCall
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) record(c HookCall) {
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
}

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.record(HookCall{Kind: HookOperation, Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) { h.record(HookCall{Kind: HookConflict, Name: name}) }

func (h *HooksRecorder) IncRetry(name string) { h.record(HookCall{Kind: HookRetry, Name: name}) }

func (h *HooksRecorder) Calls() []HookCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HookCall(nil), h.calls...)
}

// Count returns how many calls of kind were recorded; an empty name matches all.
func (h *HooksRecorder) Count(kind HookKind, name string) int {
	n := 0
	for _, c := range h.Calls() {
		if c.Kind == kind && (name == "" || c.Name == name) {
			n++
		}
	}
	return n
}

// Statuses returns the outcome of every operation named name.
func (h *HooksRecorder) Statuses(name string) []string {
	var out []string
	for _, c := range h.Calls() {
		if c.Kind == HookOperation && c.Name == name {
			out = append(out, c.Status)
		}
	}
	return out
}
