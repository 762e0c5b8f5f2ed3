package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Task results reported to the TaskObserver
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultRetry   = "retry"
)

const (
	defaultDownloadTimeout = 30 * time.Second
	defaultMaxImageBytes   = 20 << 20
	sniffLen               = 3072
	lockTTL                = 2 * time.Minute
)

// errLockHeld is returned when another worker is writing the same path
var errLockHeld = errors.New("image path locked by another worker")

// TaskObserver receives one event per processed task (metrics)
type TaskObserver interface {
	ObserveTask(taskType domain.TaskType, result string)
}

// Worker processes tasks from the task queue.
// It downloads generated images and stores them at their announced path,
// which is what an availability poll waits for.
type Worker struct {
	taskQueue driven.TaskQueue
	files     driven.ImageFileStore
	lock      driven.DistributedLock
	observer  TaskObserver
	client    *resty.Client
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	maxImageBytes  int64

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue       driven.TaskQueue
	Files           driven.ImageFileStore
	Lock            driven.DistributedLock // optional
	Observer        TaskObserver           // optional
	Logger          *slog.Logger
	Concurrency     int           // Number of concurrent task processors
	DequeueTimeout  int           // Seconds to wait for a task before checking again
	DownloadTimeout time.Duration // Per-download limit
	MaxImageBytes   int64         // Downloads larger than this fail
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = defaultDownloadTimeout
	}

	maxImageBytes := cfg.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}

	client := resty.New().
		SetTimeout(downloadTimeout).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "image/*")

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		files:          cfg.Files,
		lock:           cfg.Lock,
		observer:       cfg.Observer,
		client:         client,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		maxImageBytes:  maxImageBytes,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.files == nil {
		w.mu.Unlock()
		return fmt.Errorf("%w: worker has no image file store", domain.ErrInvalidInput)
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done == nil {
		return
	}
	<-done
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			case <-w.stopCh:
			}
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "attempt", task.Attempts)
	logger.Info("processing task")

	startTime := time.Now()
	var (
		result string
		err    error
	)

	switch task.Type {
	case domain.TaskTypeWriteImage:
		result, err = w.handleWriteImage(ctx, task, logger)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		w.observe(task.Type, failureResult(task))
		return
	}

	logger.Info("task completed", "duration", duration, "result", result)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
	w.observe(task.Type, result)
}

// failureResult reports whether a failed task will be tried again.
// Attempts was incremented when the task was dequeued.
func failureResult(task *domain.Task) string {
	if task.CanRetry() {
		return ResultRetry
	}
	return string(domain.TaskStatusFailed)
}

func (w *Worker) observe(taskType domain.TaskType, result string) {
	if w.observer != nil {
		w.observer.ObserveTask(taskType, result)
	}
}

// handleWriteImage handles a write_image task.
// A path that already holds a file is left untouched.
func (w *Worker) handleWriteImage(ctx context.Context, task *domain.Task, logger *slog.Logger) (string, error) {
	sourceURL := task.PayloadValue("source_url")
	path := task.PayloadValue("path")
	if sourceURL == "" || path == "" {
		return "", fmt.Errorf("%w: write_image needs source_url and path", domain.ErrInvalidInput)
	}

	exists, err := w.files.Exists(ctx, path)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", path, err)
	}
	if exists {
		return ResultSkipped, nil
	}

	if w.lock != nil {
		name := "image:" + path
		acquired, err := w.lock.Acquire(ctx, name, lockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire lock: %w", err)
		}
		if !acquired {
			return "", errLockHeld
		}
		defer func() {
			if err := w.lock.Release(context.WithoutCancel(ctx), name); err != nil {
				logger.Warn("failed to release image lock", "path", path, "error", err)
			}
		}()
	}

	n, err := w.download(ctx, sourceURL, path)
	if err != nil {
		return "", err
	}

	logger.Info("image stored",
		"image_id", task.PayloadValue("image_id"),
		"path", path,
		"bytes", n,
	)
	return ResultOK, nil
}

// download fetches sourceURL and writes it to path once the leading bytes
// sniff as an image.
func (w *Worker) download(ctx context.Context, sourceURL, path string) (int64, error) {
	resp, err := w.client.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return 0, fmt.Errorf("download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("download image: unexpected status %d", resp.StatusCode())
	}

	limited := io.LimitReader(body, w.maxImageBytes+1)
	head := make([]byte, sniffLen)
	read, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read image: %w", err)
	}
	head = head[:read]

	mtype := mimetype.Detect(head)
	if !isImage(mtype) {
		return 0, fmt.Errorf("%w: source is %s, not an image", domain.ErrInvalidInput, mtype.String())
	}

	r := &boundedReader{r: io.MultiReader(bytes.NewReader(head), limited), max: w.maxImageBytes}
	n, err := w.files.Write(ctx, path, r)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

func isImage(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

// boundedReader fails once more than max bytes have been read
type boundedReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read += int64(n)
	if b.read > b.max {
		return n, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, b.max)
	}
	return n, err
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	LockHealth  bool   `json:"lock_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running:    running,
		LockHealth: true,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	if w.lock != nil {
		if err := w.lock.Ping(ctx); err != nil {
			health.LockHealth = false
			if health.Error == "" {
				health.Error = err.Error()
			}
		}
	}

	return health
}
