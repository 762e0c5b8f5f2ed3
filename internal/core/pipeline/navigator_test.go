package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	chunks := makeChunks(23)

	page, ok := Locate(chunks, chunks[12].ID, 5)
	assert.True(t, ok)
	assert.Equal(t, 3, page)

	page, ok = Locate(chunks, chunks[0].ID, 5)
	assert.True(t, ok)
	assert.Equal(t, 1, page)

	page, ok = Locate(chunks, chunks[22].ID, 5)
	assert.True(t, ok)
	assert.Equal(t, 5, page)

	_, ok = Locate(chunks, 999, 5)
	assert.False(t, ok)
}

func TestTargetPage(t *testing.T) {
	assert.Equal(t, 1, TargetPage(0, 5))
	assert.Equal(t, 1, TargetPage(4, 5))
	assert.Equal(t, 2, TargetPage(5, 5))
	assert.Equal(t, 3, TargetPage(12, 5))
}

func TestNavigator_OneShot(t *testing.T) {
	var n Navigator

	_, ok := n.Take()
	assert.False(t, ok)

	n.Request(4)
	n.Request(9)

	id, ok := n.Pending()
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)

	id, ok = n.Take()
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)

	_, ok = n.Take()
	assert.False(t, ok, "request must be cleared after it is taken")
}
