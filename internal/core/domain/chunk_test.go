package domain

import (
	"testing"
	"time"
)

func TestChunkIsFavorited(t *testing.T) {
	user := "user-1"
	empty := ""

	tests := []struct {
		name     string
		chunk    *Chunk
		expected bool
	}{
		{"nil chunk", nil, false},
		{"no favorite", &Chunk{}, false},
		{"empty user", &Chunk{FavoritedByUserID: &empty}, false},
		{"favorited", &Chunk{FavoritedByUserID: &user}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.chunk.IsFavorited() != tt.expected {
				t.Errorf("expected IsFavorited() = %v", tt.expected)
			}
		})
	}
}

func TestChunkIsBookmarkedBy(t *testing.T) {
	owner := "user-1"
	chunk := &Chunk{BookmarkedByUserID: &owner}

	if !chunk.IsBookmarkedBy("user-1") {
		t.Error("expected chunk to be bookmarked by its owner")
	}
	if chunk.IsBookmarkedBy("user-2") {
		t.Error("expected chunk not to be bookmarked by another user")
	}
	if (&Chunk{}).IsBookmarkedBy("user-1") {
		t.Error("expected unbookmarked chunk")
	}
	var nilChunk *Chunk
	if nilChunk.IsBookmarkedBy("user-1") {
		t.Error("expected nil chunk not to be bookmarked")
	}
}

func TestLatestImage(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		images   []*AiImage
		expected int64
	}{
		{
			name:     "empty",
			images:   nil,
			expected: 0,
		},
		{
			name: "newest by created at regardless of order",
			images: []*AiImage{
				{ID: 3, CreatedAt: base},
				{ID: 1, CreatedAt: base.Add(time.Minute)},
				{ID: 2, CreatedAt: base.Add(-time.Minute)},
			},
			expected: 1,
		},
		{
			name: "ties broken by id",
			images: []*AiImage{
				{ID: 4, CreatedAt: base},
				{ID: 9, CreatedAt: base},
				{ID: 6, CreatedAt: base},
			},
			expected: 9,
		},
		{
			name: "nil entries skipped",
			images: []*AiImage{
				nil,
				{ID: 5, CreatedAt: base},
				nil,
			},
			expected: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatestImage(tt.images)
			if tt.expected == 0 {
				if got != nil {
					t.Errorf("expected nil, got image %d", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.expected {
				t.Errorf("expected image %d, got %+v", tt.expected, got)
			}
		})
	}
}

func TestChunkLatestImage(t *testing.T) {
	var nilChunk *Chunk
	if nilChunk.LatestImage() != nil {
		t.Error("expected nil for nil chunk")
	}

	chunk := &Chunk{Images: []*AiImage{
		{ID: 1, CreatedAt: time.Unix(100, 0)},
		{ID: 2, CreatedAt: time.Unix(200, 0)},
	}}
	if img := chunk.LatestImage(); img == nil || img.ID != 2 {
		t.Errorf("expected image 2, got %+v", img)
	}
}
