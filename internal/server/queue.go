package server

import (
	"sort"
	"sync"
)

// Rebuild triggers.
const (
	TriggerInitial  = "initial"
	TriggerContent  = "content"
	TriggerConfig   = "config"
	TriggerSchedule = "schedule"
)

// rebuildQueue coalesces rebuild requests. While a build runs, further
// requests merge into a single follow-up build.
type rebuildQueue struct {
	mu       sync.Mutex
	triggers map[string]struct{}
	signal   chan struct{}
}

func newRebuildQueue() *rebuildQueue {
	return &rebuildQueue{triggers: map[string]struct{}{}, signal: make(chan struct{}, 1)}
}

func (q *rebuildQueue) request(triggers ...string) {
	q.mu.Lock()
	for _, t := range triggers {
		q.triggers[t] = struct{}{}
	}
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// take drains the pending triggers in sorted order.
func (q *rebuildQueue) take() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.triggers))
	for t := range q.triggers {
		out = append(out, t)
	}
	q.triggers = map[string]struct{}{}
	sort.Strings(out)
	return out
}
