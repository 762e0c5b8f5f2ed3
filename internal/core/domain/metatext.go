package domain

import "time"

// SourceDocument is an uploaded original text that metatexts are derived from
type SourceDocument struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text,omitempty"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Metatext is an annotated copy of a source document, split into ordered chunks
type Metatext struct {
	ID               int64     `json:"id"`
	SourceDocumentID int64     `json:"source_document_id"`
	Title            string    `json:"title"`
	OwnerID          string    `json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// MetatextWithChunks combines a metatext with its chunks in position order
type MetatextWithChunks struct {
	Metatext *Metatext `json:"metatext"`
	Chunks   []*Chunk  `json:"chunks"`
}
