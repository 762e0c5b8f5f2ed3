// Package poller waits for generated images to become servable.
//
// Image files are written after the response that announces their path, so a
// client that renders the path immediately can hit a missing file. A poll
// retries a cheap load of the URL on a fixed interval until it succeeds, a
// wall-clock timeout elapses, or the poll is aborted.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

const (
	// DefaultTimeout bounds a poll by elapsed time
	DefaultTimeout = 10 * time.Second

	// DefaultInterval is the delay between a failed attempt and the next one
	DefaultInterval = 300 * time.Millisecond

	// CacheBustParam is appended to every attempt's URL
	CacheBustParam = "_cb"
)

// Config configures a Poller
type Config struct {
	Probe    driven.ImageProbe
	Timeout  time.Duration
	Interval time.Duration

	// Observer receives attempt and outcome events, optional
	Observer driven.PollObserver

	Logger *slog.Logger
}

// Poller starts availability polls. It holds no per-poll state; concurrent
// polls never share timers or flags.
type Poller struct {
	probe    driven.ImageProbe
	timeout  time.Duration
	interval time.Duration
	observer driven.PollObserver
	logger   *slog.Logger
}

// New creates a Poller
func New(cfg Config) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		probe:    cfg.Probe,
		timeout:  timeout,
		interval: interval,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// Option overrides a poller default for one poll
type Option func(*pollOptions)

type pollOptions struct {
	timeout  time.Duration
	interval time.Duration
}

// WithTimeout sets the poll's wall-clock timeout
func WithTimeout(d time.Duration) Option {
	return func(o *pollOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithInterval sets the delay between attempts
func WithInterval(d time.Duration) Option {
	return func(o *pollOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Poll blocks until rawURL loads, the timeout elapses, or ctx is done.
// It returns nil on success, an error matching domain.ErrImagePollTimeout on
// timeout, and domain.ErrImagePollCancelled when ctx ends first.
func (p *Poller) Poll(ctx context.Context, rawURL string, opts ...Option) error {
	h := p.start(ctx, rawURL, opts...)
	<-h.Done()
	return h.Err()
}

// Start begins a poll in the background and returns its handle.
// The poll runs until it resolves, times out, or Abort is called.
func (p *Poller) Start(rawURL string, opts ...Option) *Handle {
	return p.start(context.Background(), rawURL, opts...)
}

func (p *Poller) start(parent context.Context, rawURL string, opts ...Option) *Handle {
	o := pollOptions{timeout: p.timeout, interval: p.interval}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(parent)
	h := newHandle(rawURL, o.timeout, o.interval, cancel)
	h.onFinish = p.finished

	go p.run(ctx, h)
	return h
}

func (p *Poller) run(ctx context.Context, h *Handle) {
	// the first attempt runs immediately; later ones are gated on elapsed time
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if time.Since(h.startedAt) >= h.timeout {
			return 0, true
		}
		return h.interval, false
	})

	var lastErr error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt, ok := h.beginAttempt()
		if !ok {
			return nil
		}
		if p.observer != nil {
			p.observer.ObserveAttempt()
		}

		if err := p.probe.Probe(ctx, bustCache(h.url, attempt)); err != nil {
			lastErr = err
			p.logger.Debug("image not yet available",
				"url", h.url,
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})

	switch {
	case ctx.Err() != nil:
		h.finish(domain.PollStateCancelled, domain.ErrImagePollCancelled)
	case err == nil:
		h.finish(domain.PollStateResolved, nil)
	default:
		elapsed := time.Since(h.startedAt)
		p.logger.Warn("image poll timed out",
			"url", h.url,
			"timeout", h.timeout,
			"elapsed", elapsed,
			"attempts", h.Attempts(),
			"last_error", lastErr)
		h.finish(domain.PollStateTimedOut, &domain.ImagePollTimeoutError{
			URL:      h.url,
			Timeout:  h.timeout,
			Elapsed:  elapsed,
			Attempts: h.Attempts(),
		})
	}
}

func (p *Poller) finished(h *Handle, state domain.PollState, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveOutcome(state, elapsed)
	}
	p.logger.Debug("image poll finished",
		"url", h.url,
		"state", state,
		"attempts", h.Attempts(),
		"elapsed", elapsed)
}

// bustCache appends a unique query parameter so no attempt is served from a cache
func bustCache(rawURL string, attempt int) string {
	token := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), attempt)

	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + CacheBustParam + "=" + token
	}
	q := u.Query()
	q.Set(CacheBustParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}
