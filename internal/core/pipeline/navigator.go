package pipeline

import (
	"sync"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// Scroller brings a rendered chunk into view
type Scroller interface {
	ScrollIntoView(chunkID int64)
}

// ScrollerFunc adapts a function to Scroller
type ScrollerFunc func(chunkID int64)

// ScrollIntoView calls f(chunkID)
func (f ScrollerFunc) ScrollIntoView(chunkID int64) {
	f(chunkID)
}

// TargetPage returns the 1-based page holding the item at index
func TargetPage(index, perPage int) int {
	return index/normalizePerPage(perPage) + 1
}

// Locate finds the page of chunkID within the filtered, unpaginated list.
// ok is false when the chunk is not in the list.
func Locate(filtered []*domain.Chunk, chunkID int64, perPage int) (page int, ok bool) {
	for i, chunk := range filtered {
		if chunk != nil && chunk.ID == chunkID {
			return TargetPage(i, perPage), true
		}
	}
	return 0, false
}

// Navigator holds at most one pending "go to chunk" request.
// A request is handed out by Take exactly once.
type Navigator struct {
	mu      sync.Mutex
	pending *int64
}

// Request replaces any pending request with chunkID
func (n *Navigator) Request(chunkID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = &chunkID
}

// Take returns and clears the pending request
func (n *Navigator) Take() (int64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return 0, false
	}
	id := *n.pending
	n.pending = nil
	return id, true
}

// Pending reports the pending request without clearing it
func (n *Navigator) Pending() (int64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return 0, false
	}
	return *n.pending, true
}
