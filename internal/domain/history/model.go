package history

import "time"

// Status is the persisted state of a conversion record. The vocabulary is part
// of the data contract: delivery from history is gated on StatusCompleted.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// IsValid reports whether the status belongs to the ledger vocabulary.
func (s Status) IsValid() bool {
	return s == StatusCompleted || s == StatusProcessing || s == StatusFailed
}

// Outcome carries the result fields written when a job finishes.
type Outcome struct {
	OutputKey       string
	ThumbnailKey    string
	Bytes           int64
	DurationSeconds float64
}

// Record is the durable summary of a past conversion.
type Record struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Platform        string    `json:"platform"`
	Status          Status    `json:"status"`
	ThumbnailKey    string    `json:"thumbnail,omitempty"`
	OutputKey       string    `json:"-"`
	DurationSeconds float64   `json:"duration_seconds"`
	Bytes           int64     `json:"bytes"`
	CreatedAt       time.Time `json:"created_at"`
}
