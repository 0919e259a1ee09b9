// Package model holds the core data types shared by the metadata store,
// the ingestion pipeline, and the RAG query engine.
package model

import "time"

// Kind distinguishes the two shapes an Item can take.
type Kind string

const (
	KindMessage Kind = "message"
	KindFile    Kind = "file"
)

// Status tracks an Item through the ingestion pipeline.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Space is a user-owned, named container grouping Items by topic.
type Space struct {
	ID          string `badgerholdKey:"ID"`
	UserID      string `badgerholdIndex:"UserID"`
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ItemCount   int // derived from the Item rows at read time by the space service
}

// ItemMetadata is a tagged variant per Kind: a narrow set of known fields
// plus an overflow map for anything else, instead of an open dictionary.
type ItemMetadata struct {
	OriginalName string            // file: the name the user uploaded
	SizeBytes    int64             // file: byte length of the canonical content
	MIMEFamily   string            // file: plain | pdf | docx | image | unknown
	OCR          bool              // file: true if content came from OCR
	Extra        map[string]string // forward-compatible overflow
}

// Item is a single unit of content within a Space.
type Item struct {
	ID            string `badgerholdKey:"ID"`
	SpaceID       string `badgerholdIndex:"SpaceID"`
	Kind          Kind
	Content       string // message: the text itself; file: storage path to bytes
	Text          string // extracted/plain text used for embedding and snippets
	Metadata      ItemMetadata
	Notes         string
	CreatedAt     time.Time
	Status        Status `badgerholdIndex:"Status"`
	FailureReason string
	VectorRef     *int64 // nil until indexed
}

// QuerySource is one retrieval hit attached to a persisted Query.
type QuerySource struct {
	ItemID  string
	Kind    Kind
	Snippet string // truncated to <=240 chars for display
	Score   float32
}

// Query is an append-only record of one question asked against a Space.
type Query struct {
	ID        string `badgerholdKey:"ID"`
	SpaceID   string `badgerholdIndex:"SpaceID"`
	Question  string
	Answer    string
	Sources   []QuerySource
	CreatedAt time.Time
}
