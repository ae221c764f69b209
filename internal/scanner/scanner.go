package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/folder"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

var log = logging.Component("scanner")

// DefaultClockSkew is how far in the future a modification time may be before
// it is treated as unreliable.
const DefaultClockSkew = 2 * time.Minute

// Config configures a Scanner.
type Config struct {
	// Workers bounds concurrent stat and read calls.
	Workers int
	// ClockSkew is the tolerated future offset of a modification time.
	ClockSkew time.Duration
	// VerifyContent hashes file content so that edits which keep size and
	// modification time are still detected.
	VerifyContent bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scanner reconciles a folder's current contents against known state.
type Scanner struct {
	cfg Config
}

// New creates a Scanner.
func New(cfg Config) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = DefaultClockSkew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scanner{cfg: cfg}
}

type class int

const (
	unchanged class = iota
	added
	modified
)

type outcome struct {
	entry   asset.Entry
	class   class
	failure *asset.ScanFailure
}

// Scan enumerates f and diffs it against known, keyed by folder-relative path.
// Per-file failures are collected in the result; only folder-level errors,
// such as a revoked session or a canceled context, are returned.
func (s *Scanner) Scan(ctx context.Context, f folder.Folder, known map[string]asset.Stamp) (asset.ScanResult, error) {
	start := time.Now()

	listing, err := f.List(ctx)
	if err != nil {
		return asset.ScanResult{}, err
	}

	outcomes := make([]outcome, len(listing.Paths))

	metrics.ScanWorkers.Set(float64(s.cfg.Workers))
	defer metrics.ScanWorkers.Set(0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, path := range listing.Paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stamp, isKnown := known[path]
			outcomes[i] = s.classify(gctx, f, path, stamp, isKnown)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return asset.ScanResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return asset.ScanResult{}, err
	}
	if err := f.Check(ctx); err != nil {
		return asset.ScanResult{}, err
	}

	result := asset.ScanResult{
		Seen:     len(listing.Paths),
		Failures: append([]asset.ScanFailure(nil), listing.Unreadable...),
	}

	present := make(map[string]struct{}, len(listing.Paths))
	for _, o := range outcomes {
		present[o.entry.Path] = struct{}{}
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
		}
		switch o.class {
		case added:
			result.Added = append(result.Added, o.entry)
		case modified:
			result.Modified = append(result.Modified, o.entry)
		}
	}

	for path, stamp := range known {
		if _, ok := present[path]; ok {
			continue
		}
		if underUnreadable(path, listing.Unreadable) {
			continue
		}
		result.Removed = append(result.Removed, asset.Entry{
			ID:          asset.NewID(path),
			Path:        path,
			Size:        stamp.Size,
			ModTime:     stamp.ModTime,
			Fingerprint: stamp.Fingerprint,
		})
	}

	metrics.ScanFailures.Add(float64(len(result.Failures)))
	log.Info("scanned %s in %s: %d files, %d added, %d modified, %d removed, %d failed",
		f.Root(), time.Since(start).Round(time.Millisecond), result.Seen,
		len(result.Added), len(result.Modified), len(result.Removed), len(result.Failures))
	return result, nil
}

func (s *Scanner) classify(ctx context.Context, f folder.Folder, path string, stamp asset.Stamp, isKnown bool) outcome {
	info, err := f.Stat(ctx, path)
	if err != nil {
		failure := &asset.ScanFailure{Path: path, Reason: fmt.Sprintf("stat failed: %v", err), Err: err}
		if isKnown {
			// Keep the stored metadata; the next successful stat will compare against it.
			return outcome{
				entry:   asset.Entry{ID: asset.NewID(path), Path: path, Size: stamp.Size, ModTime: stamp.ModTime, Fingerprint: stamp.Fingerprint},
				class:   modified,
				failure: failure,
			}
		}
		return outcome{entry: asset.NewEntry(path, 0, time.Time{}), class: added, failure: failure}
	}

	entry := asset.NewEntry(path, info.Size, info.ModTime)

	if !isKnown {
		o := outcome{entry: entry, class: added}
		s.fingerprint(ctx, f, &o)
		return o
	}

	if info.Size != stamp.Size || !info.ModTime.Equal(stamp.ModTime) {
		o := outcome{entry: entry, class: modified}
		s.fingerprint(ctx, f, &o)
		return o
	}

	// An untrusted mtime that still matches the stored one cannot show an
	// edit. Content is the only evidence left, so it is hashed even when no
	// fingerprint was stored yet.
	ambiguous := s.ambiguous(info.ModTime)
	if !s.cfg.VerifyContent || (stamp.Fingerprint == 0 && !ambiguous) {
		entry.Fingerprint = stamp.Fingerprint
		return outcome{entry: entry, class: unchanged}
	}

	o := outcome{entry: entry, class: unchanged}
	s.fingerprint(ctx, f, &o)
	if o.failure != nil || o.entry.Fingerprint != stamp.Fingerprint {
		o.class = modified
	}
	return o
}

// ambiguous reports whether a modification time cannot be trusted to change
// when the file does.
func (s *Scanner) ambiguous(mod time.Time) bool {
	return mod.IsZero() || mod.Unix() <= 0 || mod.After(s.cfg.Now().Add(s.cfg.ClockSkew))
}

func (s *Scanner) fingerprint(ctx context.Context, f folder.Folder, o *outcome) {
	if !s.cfg.VerifyContent {
		return
	}
	data, err := f.Read(ctx, o.entry.Path)
	if err != nil {
		o.failure = &asset.ScanFailure{Path: o.entry.Path, Reason: fmt.Sprintf("read failed: %v", err), Err: err}
		return
	}
	o.entry.Fingerprint = Fingerprint(data)
}

// Fingerprint hashes file content for change detection. It never returns zero,
// which is reserved for "not computed".
func Fingerprint(data []byte) uint64 {
	sum := xxhash.Sum64(data)
	if sum == 0 {
		return 1
	}
	return sum
}

func underUnreadable(path string, unreadable []asset.ScanFailure) bool {
	for _, u := range unreadable {
		if strings.HasPrefix(path, u.Path+"/") {
			return true
		}
	}
	return false
}
