package pipeline

import (
	"strings"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

const defaultSearchCacheSize = 64

// QueryActive reports whether query is long enough to filter by.
// Shorter non-empty queries behave like an empty one.
func QueryActive(query string, minLength int) bool {
	if minLength < 1 {
		minLength = 1
	}
	return utf8.RuneCountInString(query) >= minLength
}

// FilterByQuery returns the chunks whose text contains query, ignoring case,
// in their original order. When the query is inactive the input slice itself
// is returned so callers can compare results by identity.
func FilterByQuery(chunks []*domain.Chunk, query string, minLength int) []*domain.Chunk {
	if !QueryActive(query, minLength) {
		return chunks
	}

	needle := strings.ToLower(query)
	matches := make([]*domain.Chunk, 0, len(chunks)/4)
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if strings.Contains(strings.ToLower(chunk.Text), needle) {
			matches = append(matches, chunk)
		}
	}
	return matches
}

// SearchFilter memoizes FilterByQuery results for one chunk set.
// Replacing the chunk set drops every memoized result.
type SearchFilter struct {
	minLength int

	mu     sync.RWMutex
	chunks []*domain.Chunk
	cache  *lru.Cache[string, []*domain.Chunk]
}

// NewSearchFilter creates a SearchFilter. Non-positive sizes use the defaults.
func NewSearchFilter(minLength, cacheSize int) *SearchFilter {
	if minLength < 1 {
		minLength = domain.DefaultMinQueryLength
	}
	if cacheSize <= 0 {
		cacheSize = defaultSearchCacheSize
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[string, []*domain.Chunk](cacheSize)
	return &SearchFilter{
		minLength: minLength,
		cache:     cache,
	}
}

// MinLength returns the minimum active query length
func (f *SearchFilter) MinLength() int {
	return f.minLength
}

// SetChunks replaces the chunk set
func (f *SearchFilter) SetChunks(chunks []*domain.Chunk) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = chunks
	f.cache.Purge()
}

// Chunks returns the current chunk set
func (f *SearchFilter) Chunks() []*domain.Chunk {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.chunks
}

// Filter returns the chunks matching query
func (f *SearchFilter) Filter(query string) []*domain.Chunk {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !QueryActive(query, f.minLength) {
		return f.chunks
	}

	key := strings.ToLower(query)
	if cached, ok := f.cache.Get(key); ok {
		return cached
	}
	matches := FilterByQuery(f.chunks, query, f.minLength)
	f.cache.Add(key, matches)
	return matches
}
