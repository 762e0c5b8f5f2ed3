package driven

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// ImageStore handles generated image records (PostgreSQL)
type ImageStore interface {
	// Save creates an image record and assigns its ID
	Save(ctx context.Context, image *domain.AiImage) error

	// Get retrieves an image by ID
	Get(ctx context.Context, id int64) (*domain.AiImage, error)

	// ListByChunk retrieves all images of a chunk. Order is not guaranteed.
	ListByChunk(ctx context.Context, chunkID int64) ([]*domain.AiImage, error)

	// Delete removes an image record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id int64) error
}

// ImageGenerator creates images from prompts (OpenAI-compatible images API)
type ImageGenerator interface {
	// Generate requests an image and returns where its bytes can be fetched
	Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error)

	// Model returns the model name in use
	Model() string
}

// ImageProbe performs one availability check of an image URL.
// A nil error means the URL served a decodable image.
type ImageProbe interface {
	Probe(ctx context.Context, url string) error
}

// ImageFileStore stores image files under server-relative paths
type ImageFileStore interface {
	// Write stores r at path, replacing any existing file
	Write(ctx context.Context, path string, r io.Reader) (int64, error)

	// Exists reports whether a file is stored at path
	Exists(ctx context.Context, path string) (bool, error)

	// Open returns a reader for the file at path
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// PollObserver receives availability poll events (metrics)
type PollObserver interface {
	// ObserveAttempt is called once per load attempt
	ObserveAttempt()

	// ObserveOutcome is called once when a poll reaches a terminal state
	ObserveOutcome(state domain.PollState, elapsed time.Duration)
}
