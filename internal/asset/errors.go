package asset

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleResult marks a completion that belonged to a superseded generation.
	// It never reaches subscribers.
	ErrStaleResult = errors.New("stale result discarded")
	// ErrSessionInvalidated means the folder handle was revoked or vanished.
	ErrSessionInvalidated = errors.New("folder session invalidated")
	// ErrTimeout marks a request that exceeded its soft timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrCanceled marks a pending request dropped before it started.
	ErrCanceled = errors.New("request canceled")
	// ErrNotFound is returned for unknown asset IDs.
	ErrNotFound = errors.New("asset not found")
	// ErrNoFolder is returned when an operation needs a selected folder.
	ErrNoFolder = errors.New("no folder selected")
)

// ScanFailure is a non-fatal per-file error collected during a scan.
type ScanFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (f ScanFailure) Error() string {
	return fmt.Sprintf("scan %s: %s", f.Path, f.Reason)
}

func (f ScanFailure) Unwrap() error { return f.Err }

// DecodeFailure wraps an error raised while decoding source bytes.
type DecodeFailure struct {
	ID  ID
	Err error
}

func (f *DecodeFailure) Error() string {
	return fmt.Sprintf("decode %s: %v", f.ID, f.Err)
}

func (f *DecodeFailure) Unwrap() error { return f.Err }

// EncodeFailure wraps an error raised while encoding a derived image.
type EncodeFailure struct {
	ID      ID
	Variant Variant
	Err     error
}

func (f *EncodeFailure) Error() string {
	return fmt.Sprintf("encode %s %s: %v", f.ID, f.Variant, f.Err)
}

func (f *EncodeFailure) Unwrap() error { return f.Err }
