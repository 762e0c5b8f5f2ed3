package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// Config configures a ChunkDisplay
type Config struct {
	// MinQueryLength is the shortest query that filters (default 2)
	MinQueryLength int

	// Debounce is the quiet period before a query is committed.
	// Zero commits immediately.
	Debounce time.Duration

	// ChunksPerPage is the initial page size (default 5)
	ChunksPerPage int

	// SearchCacheSize bounds the number of memoized query results
	SearchCacheSize int

	// Scroller is invoked after a navigation has been committed and rendered
	Scroller Scroller

	Logger *slog.Logger
}

// Settings is the user-controlled part of a display's state
type Settings struct {
	Query         string
	OnlyFavorites bool
	CurrentPage   int
	ChunksPerPage int
}

// ChunkDisplay composes search, favorites, pagination and navigation over one
// chunk collection. All recomputation and page correction happens inside one
// critical section, so Window never observes a page beyond the last page.
type ChunkDisplay struct {
	logger    *slog.Logger
	scroller  Scroller
	search    *SearchFilter
	query     *DebouncedQuery
	navigator Navigator

	mu            sync.RWMutex
	paginator     *Paginator
	activeQuery   string
	onlyFavorites bool
	filtered      []*domain.Chunk
	window        domain.PageWindow
	subscribers   map[int]func(domain.PageWindow)
	nextSub       int
	closed        bool
}

// NewChunkDisplay creates an empty display
func NewChunkDisplay(cfg Config) *ChunkDisplay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &ChunkDisplay{
		logger:      logger,
		scroller:    cfg.Scroller,
		search:      NewSearchFilter(cfg.MinQueryLength, cfg.SearchCacheSize),
		paginator:   NewPaginator(cfg.ChunksPerPage),
		subscribers: make(map[int]func(domain.PageWindow)),
	}
	d.query = NewDebouncedQuery(cfg.Debounce, d.commitQuery)

	d.mu.Lock()
	d.recomputeLocked()
	d.mu.Unlock()
	return d
}

// SetChunks replaces the chunk collection. The collection is read, never mutated.
func (d *ChunkDisplay) SetChunks(chunks []*domain.Chunk) {
	d.update(func() {
		d.search.SetChunks(chunks)
	})
}

// SetQuery sets the search query; it takes effect after the debounce period
func (d *ChunkDisplay) SetQuery(query string) {
	d.query.Set(query)
}

// SetShowOnlyFavorites toggles the favorites filter
func (d *ChunkDisplay) SetShowOnlyFavorites(only bool) {
	d.update(func() {
		d.onlyFavorites = only
	})
}

// SetCurrentPage requests a page; out-of-range pages are clamped
func (d *ChunkDisplay) SetCurrentPage(page int) {
	d.update(func() {
		d.paginator.SetPage(page)
	})
}

// SetChunksPerPage changes the page size and recomputes immediately
func (d *ChunkDisplay) SetChunksPerPage(perPage int) {
	d.update(func() {
		d.paginator.SetPerPage(perPage)
	})
}

// Restore applies saved settings synchronously, bypassing the debounce
func (d *ChunkDisplay) Restore(s Settings) {
	d.update(func() {
		d.activeQuery = s.Query
		d.onlyFavorites = s.OnlyFavorites
		d.paginator.SetPerPage(s.ChunksPerPage)
		d.paginator.SetPage(s.CurrentPage)
	})
}

// Settings returns the current settings. Query is the latest query set,
// which may not have been committed yet.
func (d *ChunkDisplay) Settings() Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := d.activeQuery
	if d.query.Searching() {
		query = d.query.Pending()
	}
	return Settings{
		Query:         query,
		OnlyFavorites: d.onlyFavorites,
		CurrentPage:   d.paginator.CurrentPage(),
		ChunksPerPage: d.paginator.PerPage(),
	}
}

// RequestNavigateToChunk queues a one-shot navigation and services it
func (d *ChunkDisplay) RequestNavigateToChunk(chunkID int64) {
	d.navigator.Request(chunkID)
	d.consumeNavigation()
}

// GoToChunkByID moves to the page holding chunkID in the filtered list and then
// scrolls it into view. It returns the committed window; ok is false, and
// nothing changes, when the chunk is not part of the current filtered view
// or the display is closed.
func (d *ChunkDisplay) GoToChunkByID(chunkID int64) (window domain.PageWindow, ok bool) {
	d.mu.Lock()
	if d.closed {
		window = d.window
		d.mu.Unlock()
		return window, false
	}
	page, found := Locate(d.filtered, chunkID, d.paginator.PerPage())
	if !found {
		window = d.window
		d.mu.Unlock()
		d.logger.Debug("navigation target not in filtered view", "chunk_id", chunkID)
		window.IsSearching = d.query.Searching()
		return window, false
	}
	d.paginator.SetPage(page)
	d.recomputeLocked()
	window = d.window
	window.ScrollToChunkID = &chunkID
	subs := d.subscribersLocked()
	d.mu.Unlock()

	window.IsSearching = d.query.Searching()

	// render first, then scroll: the chunk's node only exists after the new page renders
	for _, fn := range subs {
		fn(window)
	}
	if d.scroller != nil {
		d.scroller.ScrollIntoView(chunkID)
	}
	return window, true
}

// Window returns the current page window
func (d *ChunkDisplay) Window() domain.PageWindow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	window := d.window
	window.IsSearching = d.query.Searching()
	return window
}

// Subscribe registers fn to receive every recomputed window.
// The returned function unregisters it.
func (d *ChunkDisplay) Subscribe(fn func(domain.PageWindow)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subscribers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subscribers, id)
	}
}

// Closed reports whether Close has been called. A closed display keeps
// returning its last window and ignores every change.
func (d *ChunkDisplay) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close cancels any pending query commit and drops subscribers
func (d *ChunkDisplay) Close() {
	d.query.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.subscribers = make(map[int]func(domain.PageWindow))
}

func (d *ChunkDisplay) commitQuery(query string) {
	d.update(func() {
		d.activeQuery = query
	})
}

func (d *ChunkDisplay) consumeNavigation() {
	chunkID, ok := d.navigator.Take()
	if !ok {
		return
	}
	d.GoToChunkByID(chunkID)
}

// update applies mutate and recomputes under the lock, then notifies subscribers
func (d *ChunkDisplay) update(mutate func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	mutate()
	d.recomputeLocked()
	window := d.window
	subs := d.subscribersLocked()
	d.mu.Unlock()

	window.IsSearching = d.query.Searching()
	for _, fn := range subs {
		fn(window)
	}
}

func (d *ChunkDisplay) recomputeLocked() {
	searched := d.search.Filter(d.activeQuery)
	d.filtered = FilterFavorites(searched, d.onlyFavorites)

	window := d.paginator.Apply(d.filtered)
	window.Query = d.activeQuery
	window.OnlyFavorites = d.onlyFavorites
	d.window = window
}

func (d *ChunkDisplay) subscribersLocked() []func(domain.PageWindow) {
	subs := make([]func(domain.PageWindow), 0, len(d.subscribers))
	for i := 0; i < d.nextSub; i++ {
		if fn, ok := d.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}
