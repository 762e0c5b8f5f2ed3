package pipeline

import "github.com/custodia-labs/metatext-core/internal/core/domain"

// FilterFavorites narrows chunks to favorited ones when onlyFavorites is set.
// Otherwise the input slice is returned unchanged.
func FilterFavorites(chunks []*domain.Chunk, onlyFavorites bool) []*domain.Chunk {
	if !onlyFavorites {
		return chunks
	}

	favorites := make([]*domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.IsFavorited() {
			favorites = append(favorites, chunk)
		}
	}
	return favorites
}
