package upload

import (
	"context"
	"io"
)

// Origin distinguishes where a media input comes from.
type Origin string

const (
	OriginFile Origin = "file"
	OriginURL  Origin = "url"
)

// MediaInput is a single candidate source before validation.
type MediaInput struct {
	Origin Origin
	Name   string
	Size   int64
	URL    string
}

// Rejection pairs an input with every reason it was refused.
type Rejection struct {
	Input   MediaInput
	Reasons []string
}

// ValidationResult partitions a batch into accepted and rejected inputs.
// Accepted preserves submission order.
type ValidationResult struct {
	Accepted []MediaInput
	Rejected []Rejection
}

// Limits are the gate's acceptance rules.
type Limits struct {
	MaxBytes   int64
	Extensions []string
}

// StoredAsset describes a source that finished transfer into storage.
type StoredAsset struct {
	Key      string
	Name     string
	Bytes    int64
	MimeType string
}

// ProgressFunc receives transfer progress in percent, 0 through 100.
// 100 is only reported after the asset is durably stored.
type ProgressFunc func(percent int)

// Storage is the slice of object storage the transfer agent needs.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}
