package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/poller"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

// Ensure imageService implements ImageService
var _ driving.ImageService = (*imageService)(nil)

const defaultMaxPolls = 4096

// ImageServiceConfig configures the image service
type ImageServiceConfig struct {
	MetatextStore driven.MetatextStore
	ChunkStore    driven.ChunkStore
	ImageStore    driven.ImageStore
	Generator     driven.ImageGenerator
	TaskQueue     driven.TaskQueue
	Poller        *poller.Poller

	// PublicBaseURL is prepended to image paths to build the URL clients load
	PublicBaseURL string

	// MaxPolls bounds the number of polls kept for status lookups.
	// Evicting a running poll aborts it.
	MaxPolls int

	Logger *slog.Logger
}

type pollEntry struct {
	handle  *poller.Handle
	userID  string
	imageID int64
	chunkID int64
}

func (e *pollEntry) snapshot() *domain.ImagePoll {
	poll := e.handle.Snapshot()
	poll.ImageID = e.imageID
	poll.ChunkID = e.chunkID
	return &poll
}

// imageService implements the ImageService interface
type imageService struct {
	metatexts     driven.MetatextStore
	chunks        driven.ChunkStore
	images        driven.ImageStore
	generator     driven.ImageGenerator
	queue         driven.TaskQueue
	poller        *poller.Poller
	publicBaseURL string
	logger        *slog.Logger

	polls *lru.Cache[string, *pollEntry]
}

// NewImageService creates a new ImageService
func NewImageService(cfg ImageServiceConfig) (driving.ImageService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	polls, err := lru.NewWithEvict(maxPolls, func(id string, entry *pollEntry) {
		entry.handle.Abort()
	})
	if err != nil {
		return nil, fmt.Errorf("create poll cache: %w", err)
	}

	return &imageService{
		metatexts:     cfg.MetatextStore,
		chunks:        cfg.ChunkStore,
		images:        cfg.ImageStore,
		generator:     cfg.Generator,
		queue:         cfg.TaskQueue,
		poller:        cfg.Poller,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger,
		polls:         polls,
	}, nil
}

// Generate creates an image for a chunk and starts polling for its file.
// The image record and its path are returned before the file exists; the
// returned poll reports when the path becomes servable.
func (s *imageService) Generate(ctx context.Context, userID string, chunkID int64, req driving.GenerateImageRequest) (*domain.ImageGeneration, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	if _, err := s.ownedChunk(ctx, userID, chunkID); err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	format := generated.Format
	if format == "" {
		format = "png"
	}
	image := &domain.AiImage{
		ChunkID:   chunkID,
		Prompt:    prompt,
		Path:      fmt.Sprintf("/images/chunk-%d/%s.%s", chunkID, uuid.NewString(), format),
		CreatedAt: time.Now(),
	}
	if err := s.images.Save(ctx, image); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	task := domain.NewWriteImageTask(image.ID, generated.SourceURL, image.Path)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// no file will ever be written for this record
		if delErr := s.images.Delete(context.WithoutCancel(ctx), image.ID); delErr != nil {
			s.logger.Error("failed to remove unqueued image",
				"image_id", image.ID,
				"error", delErr)
		}
		return nil, fmt.Errorf("enqueue image write: %w", err)
	}

	entry := &pollEntry{
		handle:  s.poller.Start(s.publicURL(image.Path)),
		userID:  userID,
		imageID: image.ID,
		chunkID: chunkID,
	}
	s.polls.Add(entry.handle.ID(), entry)

	s.logger.Info("image generation accepted",
		"chunk_id", chunkID,
		"image_id", image.ID,
		"task_id", task.ID,
		"poll_id", entry.handle.ID(),
		"model", s.generator.Model())

	return &domain.ImageGeneration{
		Image: image,
		Poll:  entry.snapshot(),
	}, nil
}

// GetPoll returns the state of an availability poll
func (s *imageService) GetPoll(ctx context.Context, userID, pollID string) (*domain.ImagePoll, error) {
	entry, err := s.pollEntry(userID, pollID)
	if err != nil {
		return nil, err
	}
	return entry.snapshot(), nil
}

// CancelPoll aborts an availability poll. Cancelling a finished poll is a no-op.
func (s *imageService) CancelPoll(ctx context.Context, userID, pollID string) (*domain.ImagePoll, error) {
	entry, err := s.pollEntry(userID, pollID)
	if err != nil {
		return nil, err
	}
	entry.handle.Abort()
	return entry.snapshot(), nil
}

// ListImages returns all images of a chunk, newest first
func (s *imageService) ListImages(ctx context.Context, userID string, chunkID int64) ([]*domain.AiImage, error) {
	if _, err := s.ownedChunk(ctx, userID, chunkID); err != nil {
		return nil, err
	}

	images, err := s.images.ListByChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(images, func(a, b *domain.AiImage) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case b.ID > a.ID:
			return 1
		case b.ID < a.ID:
			return -1
		}
		return 0
	})
	if images == nil {
		images = []*domain.AiImage{}
	}
	return images, nil
}

// LatestImage returns the most recently created image of a chunk
func (s *imageService) LatestImage(ctx context.Context, userID string, chunkID int64) (*domain.AiImage, error) {
	if _, err := s.ownedChunk(ctx, userID, chunkID); err != nil {
		return nil, err
	}

	images, err := s.images.ListByChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}

	latest := domain.LatestImage(images)
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

// Close aborts all running polls
func (s *imageService) Close() {
	s.polls.Purge()
}

func (s *imageService) pollEntry(userID, pollID string) (*pollEntry, error) {
	entry, ok := s.polls.Get(pollID)
	if !ok || entry.userID != userID {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (s *imageService) publicURL(path string) string {
	return s.publicBaseURL + path
}

func (s *imageService) ownedChunk(ctx context.Context, userID string, chunkID int64) (*domain.Chunk, error) {
	chunk, err := s.chunks.Get(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	metatext, err := s.metatexts.Get(ctx, chunk.MetatextID)
	if err != nil {
		return nil, err
	}
	if metatext.OwnerID != userID {
		return nil, domain.ErrNotFound
	}
	return chunk, nil
}
