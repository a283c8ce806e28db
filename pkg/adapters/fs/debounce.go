package fs

import (
	"sync"
	"time"

	"github.com/aretw0/kiln/pkg/core"
)

// debouncer delays each key's event until no newer event for the same key
// arrived for delay. Only the latest event of a burst is delivered.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

func (d *debouncer) add(key string, event core.Event, fn func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[key]; ok && p.timer.Stop() {
		d.wg.Done()
	}

	p := &pendingEvent{}
	d.wg.Add(1)
	// The callback takes d.mu first, so it cannot observe p before it is stored.
	p.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.pending[key] == p {
			delete(d.pending, key)
		}
		d.mu.Unlock()

		fn(event)
	})
	d.pending[key] = p
}

// stopAndWait drops pending events, refuses new ones and waits up to timeout
// for callbacks already running. It reports whether they all finished.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
