package domain

import "time"

// AiImage is a generated image attached to a chunk.
// Path is server-relative and may not be servable yet when the record is created.
type AiImage struct {
	ID        int64     `json:"id"`
	ChunkID   int64     `json:"chunk_id"`
	Prompt    string    `json:"prompt"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *AiImage) newerThan(other *AiImage) bool {
	if !i.CreatedAt.Equal(other.CreatedAt) {
		return i.CreatedAt.After(other.CreatedAt)
	}
	return i.ID > other.ID
}

// GeneratedImage is what an image generator hands back before the file is stored
type GeneratedImage struct {
	// SourceURL is where the generated bytes can be downloaded from
	SourceURL string
	// Format is the file extension without the dot, e.g. "png"
	Format        string
	RevisedPrompt string
}

// PollState is the state of an image availability poll
type PollState string

const (
	PollStatePolling   PollState = "polling"
	PollStateResolved  PollState = "resolved"
	PollStateTimedOut  PollState = "timed_out"
	PollStateCancelled PollState = "cancelled"
)

// IsTerminal reports whether the poll has stopped scheduling attempts
func (s PollState) IsTerminal() bool {
	return s == PollStateResolved || s == PollStateTimedOut || s == PollStateCancelled
}

// ImagePoll is the externally visible record of a poll started for a generated image
type ImagePoll struct {
	ID         string     `json:"id"`
	ImageID    int64      `json:"image_id"`
	ChunkID    int64      `json:"chunk_id"`
	URL        string     `json:"url"`
	State      PollState  `json:"state"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ImageGeneration is returned when an image generation request is accepted
type ImageGeneration struct {
	Image *AiImage   `json:"image"`
	Poll  *ImagePoll `json:"poll"`
}
