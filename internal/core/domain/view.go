package domain

import "time"

const (
	// DefaultMinQueryLength is the shortest query that activates text filtering
	DefaultMinQueryLength = 2

	// DefaultChunksPerPage is used when no positive page size is configured
	DefaultChunksPerPage = 5

	// DefaultSearchDebounce is the quiet period before a new query is committed
	DefaultSearchDebounce = 300 * time.Millisecond
)

// ViewState is the per-user view of a metatext's chunk list.
// It replaces the client-side search, favorites and pagination stores.
type ViewState struct {
	UserID        string    `json:"user_id"`
	MetatextID    int64     `json:"metatext_id"`
	Query         string    `json:"query"`
	OnlyFavorites bool      `json:"only_favorites"`
	CurrentPage   int       `json:"current_page"`
	ChunksPerPage int       `json:"chunks_per_page"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewViewState returns the initial view state for a user and metatext
func NewViewState(userID string, metatextID int64, chunksPerPage int) *ViewState {
	if chunksPerPage <= 0 {
		chunksPerPage = DefaultChunksPerPage
	}
	return &ViewState{
		UserID:        userID,
		MetatextID:    metatextID,
		CurrentPage:   1,
		ChunksPerPage: chunksPerPage,
		UpdatedAt:     time.Now(),
	}
}

// ViewUpdate carries partial changes to a view state; nil fields are left untouched
type ViewUpdate struct {
	Query         *string `json:"query,omitempty"`
	OnlyFavorites *bool   `json:"only_favorites,omitempty"`
	Page          *int    `json:"page,omitempty" validate:"omitempty,min=1"`
	ChunksPerPage *int    `json:"chunks_per_page,omitempty" validate:"omitempty,min=1,max=500"`
}

// IsEmpty reports whether the update changes nothing
func (u ViewUpdate) IsEmpty() bool {
	return u.Query == nil && u.OnlyFavorites == nil && u.Page == nil && u.ChunksPerPage == nil
}

// PageWindow is the paginated subset of chunks to render plus pagination metadata
type PageWindow struct {
	DisplayChunks       []*Chunk `json:"display_chunks"`
	TotalFilteredChunks int      `json:"total_filtered_chunks"`
	CurrentPage         int      `json:"current_page"`
	TotalPages          int      `json:"total_pages"`
	StartIndex          int      `json:"start_index"`
	EndIndex            int      `json:"end_index"`
	ChunksPerPage       int      `json:"chunks_per_page"`
	Query               string   `json:"query"`
	OnlyFavorites       bool     `json:"only_favorites"`
	IsSearching         bool     `json:"is_searching"`

	// ScrollToChunkID is set when this window was produced by a navigation
	ScrollToChunkID *int64 `json:"scroll_to_chunk_id,omitempty"`
}

// IsEmpty reports whether the filtered set has no chunks ("no items found")
func (w *PageWindow) IsEmpty() bool {
	return w.TotalFilteredChunks == 0
}

// NavigationRequest asks the next view of a metatext to jump to a chunk.
// It is consumed exactly once.
type NavigationRequest struct {
	UserID      string    `json:"user_id"`
	MetatextID  int64     `json:"metatext_id"`
	ChunkID     int64     `json:"chunk_id"`
	RequestedAt time.Time `json:"requested_at"`
}
