package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/custodia-labs/metatext-core/internal/adapters/driven/filestore"
	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven/mocks"
)

// mockTaskQueue implements driven.TaskQueue for testing
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	acked        []string
	nacked       []string
	dequeueDelay time.Duration
	dequeueFn    func() (*domain.Task, error)
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks: make([]*domain.Task, 0),
	}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	if m.dequeueFn != nil {
		return m.dequeueFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	task.MarkProcessing()
	return task, nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.dequeueDelay > 0 {
		select {
		case <-time.After(m.dequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Dequeue(ctx)
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, taskID)
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{PendingCount: int64(len(m.tasks))}, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error {
	return nil
}

func (m *mockTaskQueue) counts() (acked, nacked int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acked), len(m.nacked)
}

// mockLock implements driven.DistributedLock
type mockLock struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
	pingErr  error
}

func newMockLock() *mockLock {
	return &mockLock{held: make(map[string]bool)}
}

func (m *mockLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	return true, nil
}

func (m *mockLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
	m.released = append(m.released, name)
	return nil
}

func (m *mockLock) Ping(ctx context.Context) error {
	return m.pingErr
}

// mockObserver records task results
type mockObserver struct {
	mu      sync.Mutex
	results []string
}

func (m *mockObserver) ObserveTask(taskType domain.TaskType, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

var (
	_ driven.TaskQueue       = (*mockTaskQueue)(nil)
	_ driven.DistributedLock = (*mockLock)(nil)
	_ TaskObserver           = (*mockObserver)(nil)
)

// pngBytes returns a PNG signature followed by n bytes of padding
func pngBytes(n int) []byte {
	header := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	return append(header, bytes.Repeat([]byte{0}, n)...)
}

func serveBytes(t *testing.T, status int, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeTask(url, path string) *domain.Task {
	task := domain.NewWriteImageTask(42, url, path)
	task.MarkProcessing()
	return task
}

func TestNewWorker(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:      newMockTaskQueue(),
		Files:          mocks.NewMockImageFileStore(),
		Logger:         slog.Default(),
		Concurrency:    2,
		DequeueTimeout: 7,
		MaxImageBytes:  4096,
	})

	if w == nil {
		t.Fatal("expected non-nil worker")
	}
	if w.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 7 {
		t.Errorf("expected dequeue timeout 7, got %d", w.dequeueTimeout)
	}
	if w.maxImageBytes != 4096 {
		t.Errorf("expected max image bytes 4096, got %d", w.maxImageBytes)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newMockTaskQueue()})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.maxImageBytes != defaultMaxImageBytes {
		t.Errorf("expected default max image bytes, got %d", w.maxImageBytes)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartWithoutFileStore(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newMockTaskQueue()})

	err := w.Start(context.Background())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if w.Health(context.Background()).Running {
		t.Error("worker should not be running")
	}
}

func TestWorker_StartStop(t *testing.T) {
	queue := newMockTaskQueue()
	queue.dequeueDelay = 100 * time.Millisecond

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Files:          mocks.NewMockImageFileStore(),
		Concurrency:    1,
		DequeueTimeout: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()
	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}

	// Stop again should be no-op
	w.Stop()
}

func TestWorker_ProcessesQueuedTask(t *testing.T) {
	srv, _ := serveBytes(t, http.StatusOK, pngBytes(64))
	queue := newMockTaskQueue()
	queue.dequeueDelay = 10 * time.Millisecond
	files := mocks.NewMockImageFileStore()
	observer := &mockObserver{}

	w := NewWorker(WorkerConfig{
		TaskQueue:   queue,
		Files:       files,
		Observer:    observer,
		Concurrency: 2,
	})

	ctx := context.Background()
	_ = queue.Enqueue(ctx, domain.NewWriteImageTask(1, srv.URL+"/a.png", "/images/chunk-1/a.png"))

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if acked, _ := queue.counts(); acked == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	exists, _ := files.Exists(ctx, "/images/chunk-1/a.png")
	if !exists {
		t.Fatal("expected image to be written")
	}
}

func TestWorker_Health(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:   newMockTaskQueue(),
		Files:       mocks.NewMockImageFileStore(),
		Lock:        newMockLock(),
		Concurrency: 1,
	})

	health := w.Health(context.Background())
	if health.Running {
		t.Error("expected not running")
	}
	if !health.QueueHealth {
		t.Error("expected queue to be healthy")
	}
	if !health.LockHealth {
		t.Error("expected lock to be healthy")
	}
}

func TestWorker_Health_QueueError(t *testing.T) {
	queue := newMockTaskQueue()
	queue.pingFn = func() error {
		return errors.New("connection failed")
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue})

	health := w.Health(context.Background())
	if health.QueueHealth {
		t.Error("expected queue to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}

func TestWorker_Health_LockError(t *testing.T) {
	lock := newMockLock()
	lock.pingErr = errors.New("redis down")

	w := NewWorker(WorkerConfig{TaskQueue: newMockTaskQueue(), Lock: lock})

	health := w.Health(context.Background())
	if health.LockHealth {
		t.Error("expected lock to be unhealthy")
	}
	if health.Error != "redis down" {
		t.Errorf("expected lock error, got %q", health.Error)
	}
}

func TestWorker_ProcessTask_UnknownType(t *testing.T) {
	queue := newMockTaskQueue()
	observer := &mockObserver{}

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Files:     mocks.NewMockImageFileStore(),
		Observer:  observer,
	})

	task := &domain.Task{ID: "task-123", Type: domain.TaskType("unknown_type"), Attempts: 1, MaxAttempts: 3}
	w.processTask(context.Background(), task, slog.Default())

	if _, nacked := queue.counts(); nacked != 1 {
		t.Errorf("expected 1 nack for unknown type, got %d", nacked)
	}
	if len(observer.results) != 1 || observer.results[0] != ResultRetry {
		t.Errorf("expected retry result, got %v", observer.results)
	}
}

func TestWorker_WriteImage_MissingPayload(t *testing.T) {
	queue := newMockTaskQueue()
	w := NewWorker(WorkerConfig{TaskQueue: queue, Files: mocks.NewMockImageFileStore()})

	task := domain.NewTask(domain.TaskTypeWriteImage, map[string]string{"image_id": "1"})
	w.processTask(context.Background(), task, slog.Default())

	if _, nacked := queue.counts(); nacked != 1 {
		t.Errorf("expected 1 nack for missing payload, got %d", nacked)
	}
}

func TestWorker_WriteImage_Success(t *testing.T) {
	body := pngBytes(5000)
	srv, _ := serveBytes(t, http.StatusOK, body)
	queue := newMockTaskQueue()
	files := mocks.NewMockImageFileStore()
	lock := newMockLock()
	observer := &mockObserver{}

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Files:     files,
		Lock:      lock,
		Observer:  observer,
	})

	ctx := context.Background()
	w.processTask(ctx, writeTask(srv.URL, "/images/chunk-7/x.png"), slog.Default())

	if acked, nacked := queue.counts(); acked != 1 || nacked != 0 {
		t.Fatalf("expected ack only, got acked=%d nacked=%d", acked, nacked)
	}

	rc, err := files.Open(ctx, "/images/chunk-7/x.png")
	if err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, body) {
		t.Errorf("stored %d bytes, want %d", len(got), len(body))
	}

	if len(lock.released) != 1 || lock.released[0] != "image:/images/chunk-7/x.png" {
		t.Errorf("expected lock release, got %v", lock.released)
	}
	if len(observer.results) != 1 || observer.results[0] != ResultOK {
		t.Errorf("expected ok result, got %v", observer.results)
	}
}

func TestWorker_WriteImage_AlreadyStored(t *testing.T) {
	srv, hits := serveBytes(t, http.StatusOK, pngBytes(16))
	queue := newMockTaskQueue()
	files := mocks.NewMockImageFileStore()
	observer := &mockObserver{}

	ctx := context.Background()
	_, _ = files.Write(ctx, "/images/chunk-1/done.png", bytes.NewReader(pngBytes(16)))

	w := NewWorker(WorkerConfig{TaskQueue: queue, Files: files, Observer: observer})
	w.processTask(ctx, writeTask(srv.URL, "/images/chunk-1/done.png"), slog.Default())

	if acked, _ := queue.counts(); acked != 1 {
		t.Errorf("expected ack, got %d", acked)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("source should not be downloaded again")
	}
	if len(observer.results) != 1 || observer.results[0] != ResultSkipped {
		t.Errorf("expected skipped result, got %v", observer.results)
	}
}

func TestWorker_WriteImage_LockHeld(t *testing.T) {
	srv, hits := serveBytes(t, http.StatusOK, pngBytes(16))
	queue := newMockTaskQueue()
	lock := newMockLock()
	lock.held["image:/images/chunk-1/busy.png"] = true

	w := NewWorker(WorkerConfig{TaskQueue: queue, Files: mocks.NewMockImageFileStore(), Lock: lock})
	w.processTask(context.Background(), writeTask(srv.URL, "/images/chunk-1/busy.png"), slog.Default())

	if _, nacked := queue.counts(); nacked != 1 {
		t.Errorf("expected nack while lock is held, got %d", nacked)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("source should not be fetched without the lock")
	}
}

func TestWorker_WriteImage_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     []byte
		maxBytes int64
	}{
		{name: "not found", status: http.StatusNotFound, body: []byte("missing")},
		{name: "not an image", status: http.StatusOK, body: []byte("<html><body>error</body></html>")},
		{name: "too large", status: http.StatusOK, body: pngBytes(8192), maxBytes: 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := serveBytes(t, tt.status, tt.body)
			queue := newMockTaskQueue()
			files := mocks.NewMockImageFileStore()
			observer := &mockObserver{}

			w := NewWorker(WorkerConfig{
				TaskQueue:     queue,
				Files:         files,
				Observer:      observer,
				MaxImageBytes: tt.maxBytes,
			})

			ctx := context.Background()
			w.processTask(ctx, writeTask(srv.URL, "/images/chunk-2/bad.png"), slog.Default())

			if acked, nacked := queue.counts(); acked != 0 || nacked != 1 {
				t.Errorf("expected nack only, got acked=%d nacked=%d", acked, nacked)
			}
			if exists, _ := files.Exists(ctx, "/images/chunk-2/bad.png"); exists {
				t.Error("rejected image must not be stored")
			}
		})
	}
}

func TestWorker_WriteImage_LastAttemptReportsFailed(t *testing.T) {
	srv, _ := serveBytes(t, http.StatusBadGateway, nil)
	observer := &mockObserver{}

	w := NewWorker(WorkerConfig{
		TaskQueue: newMockTaskQueue(),
		Files:     mocks.NewMockImageFileStore(),
		Observer:  observer,
	})

	task := writeTask(srv.URL, "/images/chunk-3/last.png")
	task.Attempts = task.MaxAttempts
	w.processTask(context.Background(), task, slog.Default())

	if len(observer.results) != 1 || observer.results[0] != string(domain.TaskStatusFailed) {
		t.Errorf("expected failed result, got %v", observer.results)
	}
}

func TestWorker_WriteImage_FileStore(t *testing.T) {
	srv, _ := serveBytes(t, http.StatusOK, pngBytes(128))
	queue := newMockTaskQueue()
	files := filestore.New(afero.NewMemMapFs())

	w := NewWorker(WorkerConfig{TaskQueue: queue, Files: files})

	ctx := context.Background()
	w.processTask(ctx, writeTask(srv.URL, "/images/chunk-9/real.png"), slog.Default())

	if acked, _ := queue.counts(); acked != 1 {
		t.Fatalf("expected ack, got %d", acked)
	}
	exists, err := files.Exists(ctx, "/images/chunk-9/real.png")
	if err != nil || !exists {
		t.Fatalf("expected file on disk, exists=%v err=%v", exists, err)
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	queue := newMockTaskQueue()
	queue.dequeueDelay = 500 * time.Millisecond

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Files:          mocks.NewMockImageFileStore(),
		Concurrency:    1,
		DequeueTimeout: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("worker did not stop after context cancellation")
		w.Stop()
	}
}

func TestWorker_DequeueErrorBackoffStops(t *testing.T) {
	queue := newMockTaskQueue()
	queue.dequeueFn = func() (*domain.Task, error) {
		return nil, errors.New("queue unavailable")
	}

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Files:     mocks.NewMockImageFileStore(),
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("stop should interrupt the dequeue error backoff")
	}
}
