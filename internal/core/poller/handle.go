package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// Handle controls one running poll
type Handle struct {
	id        string
	url       string
	timeout   time.Duration
	interval  time.Duration
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	onFinish  func(h *Handle, state domain.PollState, elapsed time.Duration)

	mu         sync.Mutex
	state      domain.PollState
	attempts   int
	err        error
	finishedAt time.Time
}

func newHandle(rawURL string, timeout, interval time.Duration, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:        uuid.NewString(),
		url:       rawURL,
		timeout:   timeout,
		interval:  interval,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     domain.PollStatePolling,
	}
}

// ID returns the poll's unique identifier
func (h *Handle) ID() string {
	return h.id
}

// URL returns the polled URL without cache-busting parameters
func (h *Handle) URL() string {
	return h.url
}

// Done is closed when the poll leaves the polling state
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the poll's outcome once Done is closed: nil when resolved,
// otherwise the timeout or cancellation error. It returns nil while polling.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the poll finishes or ctx is done. Giving up on the wait
// does not abort the poll.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort cancels a running poll. Its outcome becomes domain.ErrImagePollCancelled
// immediately and no further attempts start. Abort after the poll finished
// is a no-op.
func (h *Handle) Abort() {
	h.finish(domain.PollStateCancelled, domain.ErrImagePollCancelled)
}

// State returns the current state
func (h *Handle) State() domain.PollState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Attempts returns how many load attempts have started
func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Snapshot returns the poll's externally visible record
func (h *Handle) Snapshot() domain.ImagePoll {
	h.mu.Lock()
	defer h.mu.Unlock()

	poll := domain.ImagePoll{
		ID:        h.id,
		URL:       h.url,
		State:     h.state,
		Attempts:  h.attempts,
		StartedAt: h.startedAt,
	}
	if h.err != nil {
		poll.Error = h.err.Error()
	}
	if !h.finishedAt.IsZero() {
		finished := h.finishedAt
		poll.FinishedAt = &finished
	}
	return poll
}

// beginAttempt counts an attempt unless the poll already finished
func (h *Handle) beginAttempt() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.IsTerminal() {
		return h.attempts, false
	}
	h.attempts++
	return h.attempts, true
}

// finish moves the poll to a terminal state once; later calls are ignored
func (h *Handle) finish(state domain.PollState, err error) bool {
	h.mu.Lock()
	if h.state.IsTerminal() {
		h.mu.Unlock()
		return false
	}
	h.state = state
	h.err = err
	h.finishedAt = time.Now()
	elapsed := h.finishedAt.Sub(h.startedAt)
	h.mu.Unlock()

	h.cancel()
	if h.onFinish != nil {
		h.onFinish(h, state, elapsed)
	}
	close(h.done)
	return true
}
