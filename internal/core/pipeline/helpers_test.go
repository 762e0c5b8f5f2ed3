package pipeline

import (
	"fmt"
	"reflect"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

func makeChunks(n int) []*domain.Chunk {
	chunks := make([]*domain.Chunk, n)
	for i := range chunks {
		chunks[i] = &domain.Chunk{
			ID:         int64(i + 1),
			MetatextID: 1,
			Text:       fmt.Sprintf("chunk number %d", i+1),
			Position:   i,
		}
	}
	return chunks
}

func favorite(chunks []*domain.Chunk, ids ...int64) {
	user := "user-1"
	for _, c := range chunks {
		for _, id := range ids {
			if c.ID == id {
				c.FavoritedByUserID = &user
			}
		}
	}
}

func ids(chunks []*domain.Chunk) []int64 {
	out := make([]int64, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func sameSlice(a, b []*domain.Chunk) bool {
	return len(a) == len(b) && reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
