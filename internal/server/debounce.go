package server

import (
	"sync"
	"time"
)

// DefaultDebounce is how long the watcher waits for file events to settle.
const DefaultDebounce = 300 * time.Millisecond

// debouncer collects triggers and fires once after a quiet period.
type debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  map[string]struct{}
	fire     func(triggers []string)
	disabled bool
}

func newDebouncer(delay time.Duration, fire func(triggers []string)) *debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debouncer{delay: delay, fire: fire, pending: map[string]struct{}{}}
}

// trigger restarts the quiet period and remembers why it was requested.
func (d *debouncer) trigger(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled {
		return
	}
	d.pending[reason] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	if d.disabled || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	triggers := make([]string, 0, len(d.pending))
	for t := range d.pending {
		triggers = append(triggers, t)
	}
	d.pending = map[string]struct{}{}
	d.mu.Unlock()
	d.fire(triggers)
}

// stop cancels any pending fire.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
