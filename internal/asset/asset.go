package asset

import (
	"crypto/md5" //nolint:gosec // MD5 used for identity derivation, not security
	"encoding/hex"
	"path/filepath"
	"time"
)

// ID is the stable identity of an asset, derived from its folder-relative path.
type ID string

// NewID derives the asset ID for a folder-relative path.
func NewID(path string) ID {
	sum := md5.Sum([]byte(filepath.ToSlash(path))) //nolint:gosec // identity hash
	return ID(hex.EncodeToString(sum[:]))
}

// Generation is the folder-session epoch. It only ever increases.
type Generation uint64

// Variant is a derived image size class.
type Variant string

const (
	// VariantThumbnail is the small grid image.
	VariantThumbnail Variant = "thumbnail"
	// VariantPreview is the large single-image view.
	VariantPreview Variant = "preview"
)

// Variants lists every variant in a fixed order.
var Variants = []Variant{VariantThumbnail, VariantPreview}

// Priority orders pending work.
type Priority int

const (
	// Background is adjacent-prefetch work.
	Background Priority = iota
	// Foreground is work for currently displayed images.
	Foreground
)

func (p Priority) String() string {
	if p == Foreground {
		return "foreground"
	}
	return "background"
}

// Flags holds the user's culling decisions.
type Flags uint8

const (
	// FlagPick marks an asset as picked.
	FlagPick Flags = 1 << iota
	// FlagReject marks an asset as rejected.
	FlagReject
)

// Has reports whether every bit of f2 is set on f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Asset is a single photo tracked by the catalog.
type Asset struct {
	ID             ID        `json:"id"`
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	ModTime        time.Time `json:"modTime"`
	Fingerprint    uint64    `json:"-"`
	Flags          Flags     `json:"flags"`
	ThumbnailReady bool      `json:"thumbnailReady"`
	PreviewReady   bool      `json:"previewReady"`
}

// Ready reports whether the variant has been produced for this asset.
func (a *Asset) Ready(v Variant) bool {
	if v == VariantPreview {
		return a.PreviewReady
	}
	return a.ThumbnailReady
}

// SetReady records whether the variant has been produced.
func (a *Asset) SetReady(v Variant, ready bool) {
	if v == VariantPreview {
		a.PreviewReady = ready
		return
	}
	a.ThumbnailReady = ready
}

// Entry is one enumerated file with the metadata used for change detection.
type Entry struct {
	ID          ID
	Path        string
	Size        int64
	ModTime     time.Time
	Fingerprint uint64
}

// NewEntry builds an Entry with its derived ID.
func NewEntry(path string, size int64, modTime time.Time) Entry {
	return Entry{ID: NewID(path), Path: path, Size: size, ModTime: modTime}
}

// Stamp is the stored metadata a scan compares against.
type Stamp struct {
	Size        int64
	ModTime     time.Time
	Fingerprint uint64
}

// Equal reports whether two stamps describe the same file state.
func (s Stamp) Equal(o Stamp) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime) && s.Fingerprint == o.Fingerprint
}

// Stamp returns the change-detection metadata of the asset.
func (a *Asset) Stamp() Stamp {
	return Stamp{Size: a.Size, ModTime: a.ModTime, Fingerprint: a.Fingerprint}
}

// ScanResult is the reconciliation diff of one scan.
// Added, Modified and Removed are disjoint.
type ScanResult struct {
	Added    []Entry
	Modified []Entry
	Removed  []Entry
	Failures []ScanFailure
	// Seen is the number of entries present in the enumeration.
	Seen int
}

// Empty reports whether the scan found no changes.
func (r ScanResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Modified) == 0 && len(r.Removed) == 0
}

// Summary is the user-facing outcome of a scan.
type Summary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
}

// Summarize counts the outcome of a scan.
func (r ScanResult) Summarize() Summary {
	return Summary{
		Added:    len(r.Added),
		Modified: len(r.Modified),
		Removed:  len(r.Removed),
		Failed:   len(r.Failures),
		Total:    r.Seen,
	}
}

// Key identifies a derived image.
type Key struct {
	ID      ID
	Variant Variant
}
