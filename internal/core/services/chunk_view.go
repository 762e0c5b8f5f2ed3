package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/pipeline"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

// Ensure chunkViewService implements ChunkViewService
var _ driving.ChunkViewService = (*chunkViewService)(nil)

const (
	defaultMaxViews = 1024
	viewSaveTimeout = 5 * time.Second
	// maxViewRebuilds bounds how often one request replays on a rebuilt view
	maxViewRebuilds = 3
)

// ChunkViewConfig configures the chunk view service
type ChunkViewConfig struct {
	MetatextStore   driven.MetatextStore
	ChunkStore      driven.ChunkStore
	ViewStateStore  driven.ViewStateStore
	NavigationStore driven.NavigationStore

	MinQueryLength  int
	Debounce        time.Duration
	ChunksPerPage   int
	SearchCacheSize int

	// MaxViews bounds the number of live views kept in memory
	MaxViews int

	Logger *slog.Logger
}

type viewKey struct {
	userID     string
	metatextID int64
}

// chunkViewService keeps one live ChunkDisplay per user and metatext.
// Settings survive eviction and restarts through the ViewStateStore.
type chunkViewService struct {
	metatexts  driven.MetatextStore
	chunks     driven.ChunkStore
	viewStates driven.ViewStateStore
	navigation driven.NavigationStore
	displayCfg pipeline.Config
	logger     *slog.Logger

	// mu serializes view creation so concurrent first reads build one display
	mu    sync.Mutex
	views *lru.Cache[viewKey, *pipeline.ChunkDisplay]
}

// NewChunkViewService creates a new ChunkViewService
func NewChunkViewService(cfg ChunkViewConfig) (driving.ChunkViewService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxViews := cfg.MaxViews
	if maxViews <= 0 {
		maxViews = defaultMaxViews
	}

	views, err := lru.NewWithEvict(maxViews, func(key viewKey, display *pipeline.ChunkDisplay) {
		display.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}

	return &chunkViewService{
		metatexts:  cfg.MetatextStore,
		chunks:     cfg.ChunkStore,
		viewStates: cfg.ViewStateStore,
		navigation: cfg.NavigationStore,
		displayCfg: pipeline.Config{
			MinQueryLength:  cfg.MinQueryLength,
			Debounce:        cfg.Debounce,
			ChunksPerPage:   cfg.ChunksPerPage,
			SearchCacheSize: cfg.SearchCacheSize,
			Logger:          logger,
		},
		logger: logger,
		views:  views,
	}, nil
}

// GetWindow returns the current page window, applying a pending navigation request
func (s *chunkViewService) GetWindow(ctx context.Context, userID string, metatextID int64) (*domain.PageWindow, error) {
	display, err := s.view(ctx, userID, metatextID)
	if err != nil {
		return nil, err
	}

	req, err := s.navigation.Take(ctx, userID, metatextID)
	if err != nil {
		return nil, fmt.Errorf("take navigation request: %w", err)
	}

	return s.apply(ctx, userID, metatextID, display, func(d *pipeline.ChunkDisplay) domain.PageWindow {
		if req != nil {
			window, _ := d.GoToChunkByID(req.ChunkID)
			return window
		}
		return d.Window()
	})
}

// UpdateView applies partial view changes
func (s *chunkViewService) UpdateView(ctx context.Context, userID string, metatextID int64, update domain.ViewUpdate) (*domain.PageWindow, error) {
	if update.Page != nil && *update.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidInput)
	}
	if update.ChunksPerPage != nil && *update.ChunksPerPage < 1 {
		return nil, fmt.Errorf("%w: chunks_per_page must be at least 1", domain.ErrInvalidInput)
	}

	display, err := s.view(ctx, userID, metatextID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, metatextID, display, func(d *pipeline.ChunkDisplay) domain.PageWindow {
		if update.OnlyFavorites != nil {
			d.SetShowOnlyFavorites(*update.OnlyFavorites)
		}
		if update.ChunksPerPage != nil {
			d.SetChunksPerPage(*update.ChunksPerPage)
		}
		if update.Page != nil {
			d.SetCurrentPage(*update.Page)
		}
		if update.Query != nil {
			d.SetQuery(*update.Query)
			// a debounced query commits later; persist what the user typed now
			s.saveSettings(userID, metatextID, d)
		}
		return d.Window()
	})
}

// GoToChunk moves to the page holding chunkID
func (s *chunkViewService) GoToChunk(ctx context.Context, userID string, metatextID, chunkID int64) (*domain.PageWindow, error) {
	display, err := s.view(ctx, userID, metatextID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, metatextID, display, func(d *pipeline.ChunkDisplay) domain.PageWindow {
		window, ok := d.GoToChunkByID(chunkID)
		if !ok && !d.Closed() {
			s.logger.Debug("chunk not in filtered view",
				"user_id", userID,
				"metatext_id", metatextID,
				"chunk_id", chunkID)
		}
		return window
	})
}

// RequestNavigation records a one-shot navigation request
func (s *chunkViewService) RequestNavigation(ctx context.Context, userID string, metatextID, chunkID int64) error {
	if err := s.authorize(ctx, userID, metatextID); err != nil {
		return err
	}

	chunk, err := s.chunks.Get(ctx, chunkID)
	if err != nil {
		return err
	}
	if chunk.MetatextID != metatextID {
		return fmt.Errorf("%w: chunk %d is not part of metatext %d", domain.ErrInvalidInput, chunkID, metatextID)
	}

	return s.navigation.Put(ctx, &domain.NavigationRequest{
		UserID:      userID,
		MetatextID:  metatextID,
		ChunkID:     chunkID,
		RequestedAt: time.Now(),
	})
}

// SetFavorite marks or unmarks a chunk as favorite
func (s *chunkViewService) SetFavorite(ctx context.Context, userID string, chunkID int64, favorite bool) error {
	chunk, err := s.ownedChunk(ctx, userID, chunkID)
	if err != nil {
		return err
	}
	if err := s.chunks.SetFavorite(ctx, chunkID, userID, favorite); err != nil {
		return err
	}
	return s.Invalidate(ctx, chunk.MetatextID)
}

// SetBookmark places or removes the user's bookmark on a chunk
func (s *chunkViewService) SetBookmark(ctx context.Context, userID string, chunkID int64, bookmarked bool) error {
	chunk, err := s.ownedChunk(ctx, userID, chunkID)
	if err != nil {
		return err
	}
	if bookmarked {
		err = s.chunks.SetBookmark(ctx, chunkID, userID)
	} else {
		err = s.chunks.ClearBookmark(ctx, chunkID, userID)
	}
	if err != nil {
		return err
	}
	return s.Invalidate(ctx, chunk.MetatextID)
}

// GoToBookmark navigates to the user's bookmarked chunk
func (s *chunkViewService) GoToBookmark(ctx context.Context, userID string, metatextID int64) (*domain.PageWindow, error) {
	display, err := s.view(ctx, userID, metatextID)
	if err != nil {
		return nil, err
	}

	chunk, err := s.chunks.GetBookmark(ctx, metatextID, userID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, metatextID, display, func(d *pipeline.ChunkDisplay) domain.PageWindow {
		window, _ := d.GoToChunkByID(chunk.ID)
		return window
	})
}

// Invalidate reloads the chunks of every live view of a metatext
func (s *chunkViewService) Invalidate(ctx context.Context, metatextID int64) error {
	var displays []*pipeline.ChunkDisplay
	for _, key := range s.views.Keys() {
		if key.metatextID != metatextID {
			continue
		}
		if display, ok := s.views.Peek(key); ok {
			displays = append(displays, display)
		}
	}
	if len(displays) == 0 {
		return nil
	}

	chunks, err := s.chunks.ListByMetatext(ctx, metatextID)
	if err != nil {
		return fmt.Errorf("reload chunks: %w", err)
	}
	for _, display := range displays {
		display.SetChunks(chunks)
	}
	return nil
}

// Close releases every live view
func (s *chunkViewService) Close() {
	s.views.Purge()
}

// apply runs fn against a live display. A display evicted while fn ran has
// ignored fn's changes, so fn is replayed on a rebuilt display.
func (s *chunkViewService) apply(ctx context.Context, userID string, metatextID int64, display *pipeline.ChunkDisplay, fn func(*pipeline.ChunkDisplay) domain.PageWindow) (*domain.PageWindow, error) {
	for attempt := 1; ; attempt++ {
		window := fn(display)
		if !display.Closed() || attempt == maxViewRebuilds {
			return &window, nil
		}

		s.logger.Debug("view evicted during request, rebuilding",
			"user_id", userID,
			"metatext_id", metatextID,
			"attempt", attempt)

		var err error
		display, err = s.view(ctx, userID, metatextID)
		if err != nil {
			return nil, err
		}
	}
}

// view returns the live display for a user and metatext, building it from
// storage on first use
func (s *chunkViewService) view(ctx context.Context, userID string, metatextID int64) (*pipeline.ChunkDisplay, error) {
	key := viewKey{userID: userID, metatextID: metatextID}
	if display, ok := s.views.Get(key); ok {
		return display, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if display, ok := s.views.Get(key); ok {
		return display, nil
	}

	if err := s.authorize(ctx, userID, metatextID); err != nil {
		return nil, err
	}

	chunks, err := s.chunks.ListByMetatext(ctx, metatextID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	state, err := s.viewStates.Get(ctx, userID, metatextID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to load view state, using defaults",
				"user_id", userID,
				"metatext_id", metatextID,
				"error", err)
		}
		state = domain.NewViewState(userID, metatextID, s.displayCfg.ChunksPerPage)
	}

	display := pipeline.NewChunkDisplay(s.displayCfg)
	display.SetChunks(chunks)
	display.Restore(pipeline.Settings{
		Query:         state.Query,
		OnlyFavorites: state.OnlyFavorites,
		CurrentPage:   state.CurrentPage,
		ChunksPerPage: state.ChunksPerPage,
	})
	display.Subscribe(func(domain.PageWindow) {
		s.saveSettings(userID, metatextID, display)
	})

	s.views.Add(key, display)
	return display, nil
}

// saveSettings persists a display's settings. It runs on commit paths that
// outlive the request, so it uses its own context.
func (s *chunkViewService) saveSettings(userID string, metatextID int64, display *pipeline.ChunkDisplay) {
	settings := display.Settings()
	state := &domain.ViewState{
		UserID:        userID,
		MetatextID:    metatextID,
		Query:         settings.Query,
		OnlyFavorites: settings.OnlyFavorites,
		CurrentPage:   settings.CurrentPage,
		ChunksPerPage: settings.ChunksPerPage,
		UpdatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), viewSaveTimeout)
	defer cancel()
	if err := s.viewStates.Save(ctx, state); err != nil {
		s.logger.Warn("failed to save view state",
			"user_id", userID,
			"metatext_id", metatextID,
			"error", err)
	}
}

// authorize checks that the metatext exists and belongs to the user
func (s *chunkViewService) authorize(ctx context.Context, userID string, metatextID int64) error {
	metatext, err := s.metatexts.Get(ctx, metatextID)
	if err != nil {
		return err
	}
	if metatext.OwnerID != userID {
		return domain.ErrNotFound
	}
	return nil
}

func (s *chunkViewService) ownedChunk(ctx context.Context, userID string, chunkID int64) (*domain.Chunk, error) {
	chunk, err := s.chunks.Get(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, chunk.MetatextID); err != nil {
		return nil, err
	}
	return chunk, nil
}
