package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{12, 5, 3},
		{23, 5, 5},
		{10, 0, 2}, // falls back to the default page size
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.perPage), "total=%d perPage=%d", tt.total, tt.perPage)
	}
}

func TestPaginate_Window(t *testing.T) {
	chunks := makeChunks(12)

	w := Paginate(chunks, 5, 3)
	assert.Equal(t, 3, w.CurrentPage)
	assert.Equal(t, 3, w.TotalPages)
	assert.Equal(t, 10, w.StartIndex)
	assert.Equal(t, 12, w.EndIndex)
	assert.Equal(t, 12, w.TotalFilteredChunks)
	assert.Equal(t, []int64{11, 12}, ids(w.DisplayChunks))
}

func TestPaginate_ClampsOutOfRangePage(t *testing.T) {
	chunks := makeChunks(4)

	w := Paginate(chunks, 5, 3)
	assert.Equal(t, 1, w.CurrentPage)
	assert.Equal(t, 1, w.TotalPages)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(w.DisplayChunks))

	w = Paginate(chunks, 5, -4)
	assert.Equal(t, 1, w.CurrentPage)
}

func TestPaginate_Empty(t *testing.T) {
	w := Paginate(nil, 5, 2)
	assert.Equal(t, 1, w.CurrentPage)
	assert.Equal(t, 1, w.TotalPages)
	assert.Equal(t, 0, w.StartIndex)
	assert.Equal(t, 0, w.EndIndex)
	require.NotNil(t, w.DisplayChunks)
	assert.Empty(t, w.DisplayChunks)
	assert.True(t, w.IsEmpty())
}

func TestPaginate_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(60)
		perPage := rng.Intn(12) + 1
		chunks := makeChunks(n)

		var rebuilt []*domain.Chunk
		totalPages := TotalPages(n, perPage)
		for page := 1; page <= totalPages; page++ {
			w := Paginate(chunks, perPage, page)
			require.Equal(t, page, w.CurrentPage)
			rebuilt = append(rebuilt, w.DisplayChunks...)
		}
		require.Equal(t, ids(chunks), ids(rebuilt), "n=%d perPage=%d", n, perPage)
	}
}

func TestPaginator_ShrinkingInputClampsToLastPage(t *testing.T) {
	p := NewPaginator(5)
	p.SetPage(3)

	w := p.Apply(makeChunks(12))
	assert.Equal(t, 3, w.CurrentPage)

	w = p.Apply(makeChunks(7))
	assert.Equal(t, 2, w.CurrentPage)
	assert.Equal(t, 2, p.CurrentPage())
	assert.Equal(t, []int64{6, 7}, ids(w.DisplayChunks))
}

func TestPaginator_ChangingPageSizeRecomputes(t *testing.T) {
	p := NewPaginator(5)
	p.SetPage(4)
	w := p.Apply(makeChunks(20))
	assert.Equal(t, 4, w.CurrentPage)

	p.SetPerPage(10)
	w = p.Apply(makeChunks(20))
	assert.Equal(t, 2, w.TotalPages)
	assert.Equal(t, 2, w.CurrentPage)
	assert.Len(t, w.DisplayChunks, 10)
}

func TestPaginator_InvariantUnderRandomResizing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := NewPaginator(4)
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			p.SetPage(rng.Intn(30) - 5)
		case 1:
			p.SetPerPage(rng.Intn(10))
		}
		w := p.Apply(makeChunks(rng.Intn(80)))
		require.GreaterOrEqual(t, w.CurrentPage, 1)
		require.LessOrEqual(t, w.CurrentPage, w.TotalPages)
		if w.TotalFilteredChunks > 0 {
			require.NotEmpty(t, w.DisplayChunks)
		}
	}
}
