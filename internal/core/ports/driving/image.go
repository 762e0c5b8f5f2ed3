package driving

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// GenerateImageRequest asks for a new image for a chunk
type GenerateImageRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

// ImageService generates chunk images and tracks when they become servable
type ImageService interface {
	// Generate creates an image for a chunk and starts polling for its file
	Generate(ctx context.Context, userID string, chunkID int64, req GenerateImageRequest) (*domain.ImageGeneration, error)

	// GetPoll returns the state of an availability poll
	GetPoll(ctx context.Context, userID, pollID string) (*domain.ImagePoll, error)

	// CancelPoll aborts an availability poll
	CancelPoll(ctx context.Context, userID, pollID string) (*domain.ImagePoll, error)

	// ListImages returns all images of a chunk, newest first
	ListImages(ctx context.Context, userID string, chunkID int64) ([]*domain.AiImage, error)

	// LatestImage returns the most recently created image of a chunk
	LatestImage(ctx context.Context, userID string, chunkID int64) (*domain.AiImage, error)

	// Close aborts all running polls
	Close()
}
