package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure mocks implement their ports
var (
	_ driven.ImageStore     = (*MockImageStore)(nil)
	_ driven.ImageGenerator = (*MockImageGenerator)(nil)
	_ driven.ImageProbe     = (*MockImageProbe)(nil)
	_ driven.ImageFileStore = (*MockImageFileStore)(nil)
	_ driven.PollObserver   = (*MockPollObserver)(nil)
)

// MockImageStore is a mock implementation of ImageStore for testing
type MockImageStore struct {
	mu     sync.RWMutex
	images map[int64]*domain.AiImage
	nextID int64
}

// NewMockImageStore creates a new MockImageStore
func NewMockImageStore() *MockImageStore {
	return &MockImageStore{
		images: make(map[int64]*domain.AiImage),
	}
}

func (m *MockImageStore) Save(ctx context.Context, image *domain.AiImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if image.ID == 0 {
		m.nextID++
		image.ID = m.nextID
	} else if image.ID > m.nextID {
		m.nextID = image.ID
	}
	m.images[image.ID] = image
	return nil
}

func (m *MockImageStore) Get(ctx context.Context, id int64) (*domain.AiImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	image, ok := m.images[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return image, nil
}

func (m *MockImageStore) ListByChunk(ctx context.Context, chunkID int64) ([]*domain.AiImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.AiImage
	for _, image := range m.images {
		if image.ChunkID == chunkID {
			result = append(result, image)
		}
	}
	return result, nil
}

func (m *MockImageStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, id)
	return nil
}

// MockImageGenerator returns a fixed source URL for every prompt
type MockImageGenerator struct {
	mu      sync.Mutex
	Prompts []string
	Err     error
}

// NewMockImageGenerator creates a new MockImageGenerator
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{}
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Prompts = append(m.Prompts, prompt)
	return &domain.GeneratedImage{
		SourceURL: fmt.Sprintf("https://generator.test/out/%d.png", len(m.Prompts)),
		Format:    "png",
	}, nil
}

func (m *MockImageGenerator) Model() string {
	return "mock-image-model"
}

// MockImageProbe reports every URL as available once SetReady(true) is called
type MockImageProbe struct {
	mu     sync.Mutex
	ready  bool
	Probes int
}

// NewMockImageProbe creates a probe that fails until SetReady(true)
func NewMockImageProbe() *MockImageProbe {
	return &MockImageProbe{}
}

func (m *MockImageProbe) Probe(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Probes++
	if !m.ready {
		return domain.ErrImageNotReady
	}
	return nil
}

// SetReady switches the probe result
func (m *MockImageProbe) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// MockImageFileStore keeps files in memory
type MockImageFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockImageFileStore creates a new MockImageFileStore
func NewMockImageFileStore() *MockImageFileStore {
	return &MockImageFileStore{
		files: make(map[string][]byte),
	}
}

func (m *MockImageFileStore) Write(ctx context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return int64(len(data)), nil
}

func (m *MockImageFileStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MockImageFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// MockPollObserver counts poll events
type MockPollObserver struct {
	mu       sync.Mutex
	Attempts int
	Outcomes map[domain.PollState]int
}

// NewMockPollObserver creates a new MockPollObserver
func NewMockPollObserver() *MockPollObserver {
	return &MockPollObserver{Outcomes: make(map[domain.PollState]int)}
}

func (m *MockPollObserver) ObserveAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts++
}

func (m *MockPollObserver) ObserveOutcome(state domain.PollState, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes[state]++
}

// Snapshot returns the attempt count and a copy of the outcome counts
func (m *MockPollObserver) Snapshot() (int, map[domain.PollState]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Attempts, maps.Clone(m.Outcomes)
}
