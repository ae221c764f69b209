package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/folder"
)

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func writePhoto(t *testing.T, root, rel, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", rel, err)
	}
}

func openFolder(t *testing.T, root string) *folder.Local {
	t.Helper()
	f, err := folder.Open(context.Background(), root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return f
}

// apply folds a scan result into known, the way the catalog does.
func apply(known map[string]asset.Stamp, r asset.ScanResult) map[string]asset.Stamp {
	next := make(map[string]asset.Stamp, len(known))
	for k, v := range known {
		next[k] = v
	}
	for _, e := range append(append([]asset.Entry(nil), r.Added...), r.Modified...) {
		next[e.Path] = asset.Stamp{Size: e.Size, ModTime: e.ModTime, Fingerprint: e.Fingerprint}
	}
	for _, e := range r.Removed {
		delete(next, e.Path)
	}
	return next
}

func paths(entries []asset.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

func newScanner(verify bool) *Scanner {
	return New(Config{Workers: 4, VerifyContent: verify, Now: func() time.Time { return baseTime.Add(time.Hour) }})
}

func TestFirstScanAddsEverything(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writePhoto(t, root, fmt.Sprintf("img%d.jpg", i), "data", baseTime)
	}

	r, err := newScanner(false).Scan(context.Background(), openFolder(t, root), nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(r.Added) != 5 || len(r.Modified) != 0 || len(r.Removed) != 0 {
		t.Errorf("Expected 5 added, got %+v", r.Summarize())
	}
	if r.Seen != 5 {
		t.Errorf("Expected Seen=5, got %d", r.Seen)
	}
	for _, e := range r.Added {
		if e.ID != asset.NewID(e.Path) {
			t.Errorf("Entry %s has ID %s, want derived ID", e.Path, e.ID)
		}
	}
}

func TestRescanIsIdempotent(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writePhoto(t, root, fmt.Sprintf("dir%d/img%d.jpg", i%3, i), strings.Repeat("x", i+1), baseTime)
	}
	s := newScanner(false)
	f := openFolder(t, root)

	first, err := s.Scan(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	known := apply(nil, first)

	for i := 0; i < 2; i++ {
		r, err := s.Scan(context.Background(), f, known)
		if err != nil {
			t.Fatalf("Rescan %d: %v", i, err)
		}
		if !r.Empty() {
			t.Errorf("Rescan %d of an unchanged folder: expected empty diff, got %+v", i, r.Summarize())
		}
		known = apply(known, r)
	}
}

func TestRescanDetectsRemovedAndModified(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writePhoto(t, root, fmt.Sprintf("img%d.jpg", i), "original", baseTime)
	}
	s := newScanner(false)
	f := openFolder(t, root)

	first, err := s.Scan(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	known := apply(nil, first)

	if err := os.Remove(filepath.Join(root, "img3.jpg")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	writePhoto(t, root, "img7.jpg", "original plus more", baseTime)

	r, err := s.Scan(context.Background(), f, known)
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	if len(r.Added) != 0 {
		t.Errorf("Expected no additions, got %v", paths(r.Added))
	}
	if got := paths(r.Removed); len(got) != 1 || got[0] != "img3.jpg" {
		t.Errorf("Expected removed={img3.jpg}, got %v", got)
	}
	if got := paths(r.Modified); len(got) != 1 || got[0] != "img7.jpg" {
		t.Errorf("Expected modified={img7.jpg}, got %v", got)
	}
}

func TestDiffCoversCurrentPathSet(t *testing.T) {
	root := t.TempDir()
	known := map[string]asset.Stamp{
		"kept.jpg":    {Size: 4, ModTime: baseTime},
		"changed.jpg": {Size: 4, ModTime: baseTime},
		"gone.jpg":    {Size: 4, ModTime: baseTime},
	}
	writePhoto(t, root, "kept.jpg", "same", baseTime)
	writePhoto(t, root, "changed.jpg", "same", baseTime.Add(time.Second))
	writePhoto(t, root, "new.jpg", "new", baseTime)

	r, err := newScanner(false).Scan(context.Background(), openFolder(t, root), known)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	current := map[string]bool{"kept.jpg": true, "changed.jpg": true, "new.jpg": true}

	seen := map[string]int{}
	for _, e := range append(append([]asset.Entry(nil), r.Added...), r.Modified...) {
		seen[e.Path]++
	}
	for path := range current {
		if _, inKnown := known[path]; inKnown && seen[path] == 0 {
			seen[path]++ // unchanged
		}
	}
	for path := range current {
		if seen[path] != 1 {
			t.Errorf("Path %s classified %d times, want exactly once", path, seen[path])
		}
	}
	for _, e := range r.Removed {
		if current[e.Path] {
			t.Errorf("Removed entry %s is in the current path set", e.Path)
		}
	}
	if got := paths(r.Removed); len(got) != 1 || got[0] != "gone.jpg" {
		t.Errorf("Expected removed={gone.jpg}, got %v", got)
	}
}

func TestAmbiguousTimestampsStableAcrossRescans(t *testing.T) {
	for _, verify := range []bool{false, true} {
		t.Run(fmt.Sprintf("verify=%v", verify), func(t *testing.T) {
			root := t.TempDir()
			writePhoto(t, root, "future.jpg", "f", baseTime.Add(48*time.Hour))
			writePhoto(t, root, "epoch.jpg", "e", time.Unix(0, 0))
			writePhoto(t, root, "normal.jpg", "n", baseTime)

			s := newScanner(verify)
			f := openFolder(t, root)

			first, err := s.Scan(context.Background(), f, nil)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if len(first.Added) != 3 {
				t.Fatalf("Expected 3 added, got %v", paths(first.Added))
			}
			known := apply(nil, first)

			for i := 0; i < 2; i++ {
				r, err := s.Scan(context.Background(), f, known)
				if err != nil {
					t.Fatalf("Rescan %d: %v", i, err)
				}
				if !r.Empty() {
					t.Errorf("Rescan %d: expected empty diff, got added=%v modified=%v removed=%v",
						i, paths(r.Added), paths(r.Modified), paths(r.Removed))
				}
				known = apply(known, r)
			}
		})
	}
}

func TestAmbiguousTimestampChanges(t *testing.T) {
	root := t.TempDir()
	epoch := time.Unix(0, 0)
	writePhoto(t, root, "epoch.jpg", "AAAA", epoch)

	known := map[string]asset.Stamp{"epoch.jpg": {Size: 3, ModTime: epoch}}
	r, err := newScanner(false).Scan(context.Background(), openFolder(t, root), known)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := paths(r.Modified); len(got) != 1 {
		t.Errorf("Expected a size change to be modified, got %v", got)
	}
}

func TestAmbiguousTimestampVerifiedByContent(t *testing.T) {
	root := t.TempDir()
	epoch := time.Unix(0, 0)
	writePhoto(t, root, "epoch.jpg", "AAAA", epoch)

	s := newScanner(true)
	f := openFolder(t, root)

	// A stored record without a fingerprint is hashed once.
	known := map[string]asset.Stamp{"epoch.jpg": {Size: 4, ModTime: epoch}}
	r, err := s.Scan(context.Background(), f, known)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(r.Modified) != 1 || r.Modified[0].Fingerprint == 0 {
		t.Fatalf("Expected one modified entry with a fingerprint, got %+v", r.Modified)
	}
	known = apply(known, r)

	writePhoto(t, root, "epoch.jpg", "BBBB", epoch)
	r, err = s.Scan(context.Background(), f, known)
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if got := paths(r.Modified); len(got) != 1 {
		t.Errorf("Expected the same-size edit to be modified, got %v", got)
	}
}

func TestSameSizeSameMtimeEdit(t *testing.T) {
	root := t.TempDir()
	writePhoto(t, root, "a.jpg", "AAAA", baseTime)

	for _, tt := range []struct {
		name   string
		verify bool
		want   int
	}{
		{name: "size and mtime heuristic misses the edit", verify: false, want: 0},
		{name: "content verification catches the edit", verify: true, want: 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			writePhoto(t, root, "a.jpg", "AAAA", baseTime)
			s := newScanner(tt.verify)
			f := openFolder(t, root)

			first, err := s.Scan(context.Background(), f, nil)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			known := apply(nil, first)
			if tt.verify && known["a.jpg"].Fingerprint == 0 {
				t.Fatal("Expected a fingerprint when verification is on")
			}

			writePhoto(t, root, "a.jpg", "BBBB", baseTime)

			r, err := s.Scan(context.Background(), f, known)
			if err != nil {
				t.Fatalf("Rescan: %v", err)
			}
			if len(r.Modified) != tt.want {
				t.Errorf("Expected %d modified, got %v", tt.want, paths(r.Modified))
			}
		})
	}
}

// flakyFolder fails Stat for selected paths and can hide a subdirectory.
type flakyFolder struct {
	folder.Folder
	failStat   map[string]bool
	unreadable string
	invalid    bool
}

func (f *flakyFolder) List(ctx context.Context) (folder.Listing, error) {
	listing, err := f.Folder.List(ctx)
	if err != nil || f.unreadable == "" {
		return listing, err
	}
	var kept []string
	for _, p := range listing.Paths {
		if !strings.HasPrefix(p, f.unreadable+"/") {
			kept = append(kept, p)
		}
	}
	listing.Paths = kept
	listing.Unreadable = append(listing.Unreadable, asset.ScanFailure{Path: f.unreadable, Reason: "permission denied"})
	return listing, nil
}

func (f *flakyFolder) Stat(ctx context.Context, path string) (folder.FileInfo, error) {
	if f.failStat[path] {
		return folder.FileInfo{}, errors.New("input/output error")
	}
	return f.Folder.Stat(ctx, path)
}

func (f *flakyFolder) Check(ctx context.Context) error {
	if f.invalid {
		return asset.ErrSessionInvalidated
	}
	return f.Folder.Check(ctx)
}

func TestStatFailuresAreCollected(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 6; i++ {
		writePhoto(t, root, fmt.Sprintf("img%d.jpg", i), "data", baseTime)
	}
	known := map[string]asset.Stamp{
		"img0.jpg": {Size: 4, ModTime: baseTime},
		"img1.jpg": {Size: 4, ModTime: baseTime},
	}
	f := &flakyFolder{
		Folder:   openFolder(t, root),
		failStat: map[string]bool{"img1.jpg": true, "img4.jpg": true},
	}

	r, err := newScanner(false).Scan(context.Background(), f, known)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(r.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %v", r.Failures)
	}
	if got := paths(r.Modified); len(got) != 1 || got[0] != "img1.jpg" {
		t.Errorf("Expected known file with failed stat to be modified, got %v", got)
	}
	if len(r.Removed) != 0 {
		t.Errorf("Expected files with failed stat never to be removed, got %v", paths(r.Removed))
	}
	if len(r.Added) != 4 {
		t.Errorf("Expected 4 added (including img4 with failed stat), got %v", paths(r.Added))
	}
	summary := r.Summarize()
	if summary.Failed != 2 || summary.Total != 6 {
		t.Errorf("Expected summary to report 2 failures of 6, got %+v", summary)
	}
}

func TestUnreadableDirectoryKeepsKnownFiles(t *testing.T) {
	root := t.TempDir()
	writePhoto(t, root, "top.jpg", "t", baseTime)
	writePhoto(t, root, "locked/inner.jpg", "i", baseTime)

	known := map[string]asset.Stamp{
		"top.jpg":          {Size: 1, ModTime: baseTime},
		"locked/inner.jpg": {Size: 1, ModTime: baseTime},
	}
	f := &flakyFolder{Folder: openFolder(t, root), unreadable: "locked"}

	r, err := newScanner(false).Scan(context.Background(), f, known)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(r.Removed) != 0 {
		t.Errorf("Expected files under an unreadable directory to be kept, got removed %v", paths(r.Removed))
	}
	if len(r.Failures) != 1 || r.Failures[0].Path != "locked" {
		t.Errorf("Expected the directory failure to be reported, got %v", r.Failures)
	}
}

func TestInvalidatedSessionAbortsScan(t *testing.T) {
	root := t.TempDir()
	writePhoto(t, root, "a.jpg", "a", baseTime)
	f := &flakyFolder{Folder: openFolder(t, root), invalid: true}

	if _, err := newScanner(false).Scan(context.Background(), f, nil); !errors.Is(err, asset.ErrSessionInvalidated) {
		t.Errorf("Expected ErrSessionInvalidated, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	root := t.TempDir()
	writePhoto(t, root, "a.jpg", "a", baseTime)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newScanner(false).Scan(ctx, openFolder(t, root), nil); err == nil {
		t.Error("Expected error for a canceled context")
	}
}

func TestFingerprintNeverZero(t *testing.T) {
	if Fingerprint(nil) == 0 || Fingerprint([]byte("photo")) == 0 {
		t.Error("Fingerprint must not return zero")
	}
	if Fingerprint([]byte("a")) == Fingerprint([]byte("b")) {
		t.Error("Expected different content to hash differently")
	}
}
