package search

import (
	"context"
	"time"
)

// Document is the payload handed to the index gateway.
type Document struct {
	EntryID            string    `json:"entry_id"`
	FileName           string    `json:"file_name"`
	FilePath           string    `json:"file_path"`
	FileSize           int64     `json:"file_size"`
	PageCount          int       `json:"page_count"`
	DocumentType       string    `json:"document_type"`
	Category           string    `json:"category"`
	CategoryConfidence float64   `json:"category_confidence"`
	Text               string    `json:"text"`
	IndexedAt          time.Time `json:"indexed_at"`
}

// Service is the index gateway contract. Index returns the external index
// document reference on success.
type Service interface {
	Index(ctx context.Context, doc Document) (string, error)
	Ping(ctx context.Context) error
}

// Disabled is the index gateway used when search indexing is turned off.
// Entries still pass through the indexing stage and complete; they simply
// carry no index reference.
type Disabled struct{}

// NewDisabled constructs the no-op index gateway.
func NewDisabled() Disabled { return Disabled{} }

func (Disabled) Index(context.Context, Document) (string, error) { return "", nil }

func (Disabled) Ping(context.Context) error { return nil }
