package services

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

// Ensure metatextService implements MetatextService
var _ driving.MetatextService = (*metatextService)(nil)

// metatextService implements the MetatextService interface
type metatextService struct {
	metatextStore driven.MetatextStore
	chunkStore    driven.ChunkStore
}

// NewMetatextService creates a new MetatextService
func NewMetatextService(
	metatextStore driven.MetatextStore,
	chunkStore driven.ChunkStore,
) driving.MetatextService {
	return &metatextService{
		metatextStore: metatextStore,
		chunkStore:    chunkStore,
	}
}

// Get retrieves a metatext the user owns
func (s *metatextService) Get(ctx context.Context, userID string, id int64) (*domain.Metatext, error) {
	metatext, err := s.metatextStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if metatext.OwnerID != userID {
		return nil, domain.ErrNotFound
	}
	return metatext, nil
}

// GetWithChunks retrieves a metatext with its chunks
func (s *metatextService) GetWithChunks(ctx context.Context, userID string, id int64) (*domain.MetatextWithChunks, error) {
	metatext, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.ListByMetatext(ctx, id)
	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []*domain.Chunk{}
	}

	return &domain.MetatextWithChunks{
		Metatext: metatext,
		Chunks:   chunks,
	}, nil
}

// List retrieves all metatexts the user owns
func (s *metatextService) List(ctx context.Context, userID string) ([]*domain.Metatext, error) {
	metatexts, err := s.metatextStore.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if metatexts == nil {
		metatexts = []*domain.Metatext{}
	}
	return metatexts, nil
}
