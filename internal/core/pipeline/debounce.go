package pipeline

import (
	"sync"
	"time"

	"github.com/romdo/go-debounce"
)

// DebouncedQuery commits the latest query once input has been quiet for the
// configured wait. A new Set before the wait elapses restarts the wait.
// With a zero wait every Set commits synchronously.
type DebouncedQuery struct {
	commit func(query string)

	// commitMu serializes commits so the last query set is the last committed
	commitMu sync.Mutex

	mu        sync.Mutex
	pending   string
	searching bool
	closed    bool
	debounced func()
	cancel    func()
}

// NewDebouncedQuery creates a debouncer that calls commit with the settled query
func NewDebouncedQuery(wait time.Duration, commit func(query string)) *DebouncedQuery {
	d := &DebouncedQuery{commit: commit}
	if wait > 0 {
		d.debounced, d.cancel = debounce.New(wait, d.fire)
	}
	return d
}

// Set records query and arms (or re-arms) the pending commit
func (d *DebouncedQuery) Set(query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = query

	if d.debounced == nil {
		d.mu.Unlock()
		d.commitMu.Lock()
		defer d.commitMu.Unlock()
		d.commit(query)
		return
	}

	d.searching = true
	d.mu.Unlock()
	d.debounced()
}

// Flush commits the pending query now, if there is one
func (d *DebouncedQuery) Flush() {
	d.fire()
}

// Pending returns the most recently set query, committed or not
func (d *DebouncedQuery) Pending() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Searching reports whether a commit is waiting for the quiet period
func (d *DebouncedQuery) Searching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.searching
}

// Close drops any pending commit. Later calls to Set are ignored.
func (d *DebouncedQuery) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.searching = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}
}

func (d *DebouncedQuery) fire() {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if d.closed || !d.searching {
		d.mu.Unlock()
		return
	}
	query := d.pending
	d.searching = false
	d.mu.Unlock()

	d.commit(query)
}
