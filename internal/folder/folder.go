package folder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/mediatypes"
)

// FileInfo is the change-detection metadata of one file.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Listing is the result of enumerating a folder. Directories that could not
// be read are reported in Unreadable; files beneath them are unknown.
type Listing struct {
	Paths      []string
	Unreadable []asset.ScanFailure
}

// Folder is a capability to a user-selected photo folder. Paths are
// slash-separated and relative to the folder root. Once revoked, or once the
// root disappears, every call fails with asset.ErrSessionInvalidated.
type Folder interface {
	Session() string
	Root() string
	List(ctx context.Context) (Listing, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Check(ctx context.Context) error
}

// Local is a Folder on a local or network-mounted directory.
type Local struct {
	root    string
	session string
	retry   filesystem.RetryConfig
	revoked atomic.Bool
}

var _ Folder = (*Local)(nil)

// Open returns a handle to the directory at root.
func Open(ctx context.Context, root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve folder %s: %w", root, err)
	}

	l := &Local{
		root:    abs,
		session: uuid.NewString(),
		retry:   filesystem.DefaultRetryConfig(),
	}

	info, err := filesystem.StatWithRetry(ctx, abs, l.retry)
	if err != nil {
		return nil, fmt.Errorf("open folder %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open folder %s: not a directory", abs)
	}
	return l, nil
}

// Session identifies this handle. Reopening the same directory yields a new session.
func (l *Local) Session() string { return l.session }

// Root returns the absolute directory path.
func (l *Local) Root() string { return l.root }

// Revoke invalidates the handle.
func (l *Local) Revoke() { l.revoked.Store(true) }

// Check reports whether the handle is still usable.
func (l *Local) Check(ctx context.Context) error {
	if l.revoked.Load() {
		return fmt.Errorf("%s: %w", l.root, asset.ErrSessionInvalidated)
	}
	info, err := filesystem.StatWithRetry(ctx, l.root, l.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", l.root, asset.ErrSessionInvalidated)
		}
		return fmt.Errorf("stat folder %s: %w", l.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is no longer a directory: %w", l.root, asset.ErrSessionInvalidated)
	}
	return nil
}

// List walks the folder recursively and returns every photo, skipping hidden
// files and directories.
func (l *Local) List(ctx context.Context) (Listing, error) {
	if err := l.Check(ctx); err != nil {
		return Listing{}, err
	}

	var listing Listing
	pending := []string{""}
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return Listing{}, err
		}

		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := filesystem.ReadDirWithRetry(ctx, filepath.Join(l.root, filepath.FromSlash(dir)), l.retry)
		if err != nil {
			if dir == "" {
				return Listing{}, fmt.Errorf("read folder %s: %w", l.root, err)
			}
			listing.Unreadable = append(listing.Unreadable, asset.ScanFailure{
				Path:   dir,
				Reason: "directory unreadable",
				Err:    err,
			})
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			rel := name
			if dir != "" {
				rel = dir + "/" + name
			}
			switch {
			case entry.IsDir():
				pending = append(pending, rel)
			case entry.Type().IsRegular() && mediatypes.IsPhoto(name):
				listing.Paths = append(listing.Paths, rel)
			}
		}
	}
	return listing, nil
}

// Stat returns the size and modification time of one file.
func (l *Local) Stat(ctx context.Context, path string) (FileInfo, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := filesystem.StatWithRetry(ctx, abs, l.retry)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Read returns the content of one file.
func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return filesystem.ReadFileWithRetry(ctx, abs, l.retry)
}

func (l *Local) resolve(path string) (string, error) {
	if l.revoked.Load() {
		return "", fmt.Errorf("%s: %w", l.root, asset.ErrSessionInvalidated)
	}
	native := filepath.FromSlash(path)
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("path %q escapes folder: %w", path, os.ErrInvalid)
	}
	return filepath.Join(l.root, native), nil
}
