package domain

import "time"

// Chunk is a contiguous span of a source document's text assigned to a metatext.
// Position defines canonical ordering and is unique within a metatext.
type Chunk struct {
	ID         int64  `json:"id"`
	MetatextID int64  `json:"metatext_id"`
	Text       string `json:"text"`
	Position   int    `json:"position"`

	// FavoritedByUserID is set when a user marked the chunk as a favorite
	FavoritedByUserID *string `json:"favorited_by_user_id,omitempty"`
	// BookmarkedByUserID is set when a user bookmarked the chunk
	BookmarkedByUserID *string `json:"bookmarked_by_user_id,omitempty"`

	// AI artifacts, each owned by its tool
	Notes       string     `json:"notes,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	Images      []*AiImage `json:"images,omitempty"`
	Rewrites    []*Rewrite `json:"rewrites,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsFavorited reports whether any user favorited the chunk
func (c *Chunk) IsFavorited() bool {
	return c != nil && c.FavoritedByUserID != nil && *c.FavoritedByUserID != ""
}

// IsBookmarkedBy reports whether the given user bookmarked the chunk
func (c *Chunk) IsBookmarkedBy(userID string) bool {
	return c != nil && c.BookmarkedByUserID != nil && *c.BookmarkedByUserID == userID
}

// LatestImage returns the most recently created image, or nil.
// Ordering is by CreatedAt, then by ID; the order of Images is not trusted.
func (c *Chunk) LatestImage() *AiImage {
	if c == nil {
		return nil
	}
	return LatestImage(c.Images)
}

// LatestImage picks the newest image from an unordered collection
func LatestImage(images []*AiImage) *AiImage {
	var latest *AiImage
	for _, img := range images {
		if img == nil {
			continue
		}
		if latest == nil || img.newerThan(latest) {
			latest = img
		}
	}
	return latest
}

// Rewrite is an AI-generated alternative rendering of a chunk
type Rewrite struct {
	ID        int64     `json:"id"`
	ChunkID   int64     `json:"chunk_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
