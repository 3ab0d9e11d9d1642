package model

import "time"

type StoreEventType string

const (
	EventDocumentIngested StoreEventType = "document.ingested"
	EventDocumentRemoved  StoreEventType = "document.removed"
)

// StoreEvent describes one committed write to the document store. It is the payload
// mirrored to durable storage.
type StoreEvent struct {
	Type       StoreEventType `json:"type"`
	DocumentID string         `json:"document_id"`
	Document   *Document      `json:"document,omitempty"`
	Chunks     []Chunk        `json:"chunks,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
