package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/folder"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/previewcache"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/scheduler"
)

var log = logging.Component("service")

// Config configures a Service.
type Config struct {
	ThumbnailCacheSize int
	PreviewCacheSize   int
	// Workers is the decode worker count.
	Workers int
	// RequestTimeout is the soft timeout of one decode; zero disables it.
	RequestTimeout time.Duration
	Scan           scanner.Config
	Render         media.Options
	// Gate holds decode workers back under memory pressure. Optional.
	Gate scheduler.Gate
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		ThumbnailCacheSize: previewcache.DefaultThumbnailCapacity,
		PreviewCacheSize:   previewcache.DefaultPreviewCapacity,
		Workers:            4,
		RequestTimeout:     30 * time.Second,
		Scan:               scanner.Config{Workers: 8, ClockSkew: scanner.DefaultClockSkew},
		Render:             media.DefaultOptions(),
	}
}

// Service is the catalog orchestrator. Every mutation of the catalog, the
// caches and the request queue happens under mu.
//
// scanMu serializes folder lifecycle operations (select, rescan, reload).
// It is never acquired while mu is held.
type Service struct {
	mu     sync.Mutex
	scanMu sync.Mutex

	db       *database.Database
	cache    *previewcache.Cache
	catalog  *catalog.Catalog
	sched    *scheduler.Scheduler
	scanner  *scanner.Scanner
	renderer *media.Renderer
	sub      catalog.Subscriber
	open     func(ctx context.Context, path string) (folder.Folder, error)

	folder     folder.Folder
	scanCancel context.CancelFunc
	lastScan   asset.Summary
	closed     bool
}

// New creates a Service backed by db. Subscribers receive catalog events with
// the coordinating lock held and must not block.
func New(cfg Config, db *database.Database, subs ...catalog.Subscriber) (*Service, error) {
	if db == nil {
		return nil, errors.New("service: database is required")
	}

	cache, err := previewcache.New(cfg.ThumbnailCacheSize, cfg.PreviewCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create preview cache: %w", err)
	}

	s := &Service{
		db:       db,
		cache:    cache,
		scanner:  scanner.New(cfg.Scan),
		renderer: media.NewRenderer(cfg.Render),
		sub:      catalog.Subscribers(subs),
		open:     openLocal,
	}
	s.catalog = catalog.New(cache, s.sub)

	sched, err := scheduler.New(scheduler.Config{
		Workers:     cfg.Workers,
		Timeout:     cfg.RequestTimeout,
		Lock:        &s.mu,
		Generations: s.catalog,
		Sink:        sink{s},
		Gate:        cfg.Gate,
	})
	if err != nil {
		return nil, err
	}
	s.sched = sched
	s.catalog.SetRequests(sched)

	log.Info("thumbnail cache %d entries, preview cache %d entries, %d decode workers",
		cfg.ThumbnailCacheSize, cfg.PreviewCacheSize, cfg.Workers)
	return s, nil
}

func openLocal(ctx context.Context, path string) (folder.Folder, error) {
	return folder.Open(ctx, path)
}

// OpenFolder opens the directory at path and selects it.
func (s *Service) OpenFolder(ctx context.Context, path string) (asset.Summary, error) {
	f, err := s.open(ctx, path)
	if err != nil {
		return asset.Summary{}, err
	}
	return s.SelectFolder(ctx, f)
}

// SelectFolder starts a new session on f. The catalog is reset before this
// returns control to any other caller, so no result of the previous session
// can land afterwards. Persisted records of f are loaded and then reconciled
// with a scan. If another SelectFolder supersedes this one while it scans,
// it returns asset.ErrStaleResult and applies nothing.
func (s *Service) SelectFolder(ctx context.Context, f folder.Folder) (asset.Summary, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return asset.Summary{}, errors.New("service closed")
	}
	s.cancelScanLocked()
	gen := s.catalog.ResetForFolderChange(s.db.Library(f.Root()))
	s.folder = f
	s.lastScan = asset.Summary{}
	s.mu.Unlock()

	log.Info("selected folder %s (session %s, generation %d)", f.Root(), f.Session(), gen)

	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	s.mu.Lock()
	if s.catalog.Current() != gen {
		s.mu.Unlock()
		return asset.Summary{}, asset.ErrStaleResult
	}
	if _, err := s.catalog.Load(ctx); err != nil {
		s.mu.Unlock()
		return asset.Summary{}, err
	}
	s.mu.Unlock()

	summary, err := s.reconcile(ctx, "select", f, gen, false)
	if err != nil {
		return summary, err
	}

	if err := s.db.SetLastFolder(ctx, f.Root()); err != nil {
		log.Warn("failed to remember folder %s: %v", f.Root(), err)
	}
	return summary, nil
}

// RescanFolder reconciles the current folder at the current generation and
// purges persisted records of files that no longer exist.
func (s *Service) RescanFolder(ctx context.Context) (asset.Summary, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	s.mu.Lock()
	f := s.folder
	gen := s.catalog.Current()
	s.mu.Unlock()

	if f == nil {
		return asset.Summary{}, asset.ErrNoFolder
	}
	return s.reconcile(ctx, "rescan", f, gen, true)
}

// reconcile scans f against the catalog snapshot and applies the diff if gen
// is still current. Must be called with scanMu held.
func (s *Service) reconcile(ctx context.Context, kind string, f folder.Folder, gen asset.Generation, purge bool) (summary asset.Summary, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ScansTotal.WithLabelValues(kind, status).Inc()
		metrics.ScanDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	known := s.catalog.Snapshot()
	scanCtx, cancel := context.WithCancel(ctx)
	s.scanCancel = cancel
	s.mu.Unlock()
	defer cancel()

	result, scanErr := s.scanner.Scan(scanCtx, f, known)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog.Current() != gen {
		log.Debug("%s of %s superseded by generation %d", kind, f.Root(), s.catalog.Current())
		return asset.Summary{}, asset.ErrStaleResult
	}
	s.scanCancel = nil

	if scanErr != nil {
		if errors.Is(scanErr, asset.ErrSessionInvalidated) {
			s.invalidateLocked(f)
		}
		return asset.Summary{}, fmt.Errorf("%s %s: %w", kind, f.Root(), scanErr)
	}

	if err := s.catalog.Apply(ctx, result); err != nil {
		return asset.Summary{}, fmt.Errorf("apply %s of %s: %w", kind, f.Root(), err)
	}

	if purge {
		present := make(map[asset.ID]struct{}, s.catalog.Len())
		for _, a := range s.catalog.Assets() {
			present[a.ID] = struct{}{}
		}
		if _, err := s.catalog.PurgeOrphans(ctx, present); err != nil {
			return asset.Summary{}, fmt.Errorf("purge orphans of %s: %w", f.Root(), err)
		}
	}

	summary = result.Summarize()
	s.lastScan = summary
	for _, failure := range result.Failures {
		log.Warn("%v", failure)
	}
	return summary, nil
}

// LoadFromDatabase replaces the in-memory catalog with the persisted records
// of the current folder. With no folder selected it restores the last folder
// recorded in the database.
func (s *Service) LoadFromDatabase(ctx context.Context) (int, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	s.mu.Lock()
	hasFolder := s.folder != nil
	s.mu.Unlock()

	var restored folder.Folder
	if !hasFolder {
		path, err := s.db.GetLastFolder(ctx)
		if err != nil {
			return 0, fmt.Errorf("read last folder: %w", err)
		}
		if path == "" {
			return 0, asset.ErrNoFolder
		}
		// Opening touches the filesystem and may retry; keep it outside mu.
		if restored, err = s.open(ctx, path); err != nil {
			return 0, fmt.Errorf("restore folder %s: %w", path, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if restored != nil && s.folder == nil {
		s.cancelScanLocked()
		gen := s.catalog.ResetForFolderChange(s.db.Library(restored.Root()))
		s.folder = restored
		log.Info("restored folder %s (generation %d)", restored.Root(), gen)
	}
	if s.folder == nil {
		return 0, asset.ErrNoFolder
	}

	n, err := s.catalog.Load(ctx)
	if err != nil {
		return 0, err
	}
	log.Info("loaded %d assets from database", n)
	return n, nil
}

// invalidateLocked ends a session whose folder handle is no longer usable.
func (s *Service) invalidateLocked(f folder.Folder) {
	if s.folder != f {
		return
	}
	log.Warn("folder %s is no longer accessible, resetting catalog", f.Root())
	s.cancelScanLocked()
	s.catalog.ResetForFolderChange(nil)
	s.folder = nil
	s.lastScan = asset.Summary{}
}

func (s *Service) cancelScanLocked() {
	if s.scanCancel != nil {
		s.scanCancel()
		s.scanCancel = nil
	}
}

// RequestThumbnail returns the thumbnail of id, from cache or by scheduling a decode.
func (s *Service) RequestThumbnail(id asset.ID, priority asset.Priority) (*scheduler.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestLocked(id, asset.VariantThumbnail, priority)
}

// RequestPreview returns the preview of id, from cache or by scheduling a decode.
func (s *Service) RequestPreview(id asset.ID, priority asset.Priority) (*scheduler.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestLocked(id, asset.VariantPreview, priority)
}

func (s *Service) requestLocked(id asset.ID, v asset.Variant, priority asset.Priority) (*scheduler.Handle, error) {
	a, ok := s.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, asset.ErrNotFound)
	}

	key := asset.Key{ID: id, Variant: v}
	if data, ok := s.cache.Get(key); ok {
		return scheduler.Resolved(key, s.catalog.Current(), data, nil), nil
	}

	f, path, renderer := s.folder, a.Path, s.renderer
	job := func(ctx context.Context) ([]byte, error) {
		data, err := f.Read(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return renderer.Render(id, path, data, v)
	}
	return s.sched.Submit(key, priority, job), nil
}

// Prefetch schedules background previews for up to radius neighbours on each
// side of id in path order.
func (s *Service) Prefetch(id asset.ID, radius int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets := s.catalog.Assets()
	idx := -1
	for i, a := range assets {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s: %w", id, asset.ErrNotFound)
	}

	for d := 1; d <= radius; d++ {
		for _, i := range []int{idx + d, idx - d} {
			if i < 0 || i >= len(assets) {
				continue
			}
			key := asset.Key{ID: assets[i].ID, Variant: asset.VariantPreview}
			if s.cache.Has(key) {
				continue
			}
			if _, err := s.requestLocked(assets[i].ID, asset.VariantPreview, asset.Background); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetFlags records a pick or reject decision.
func (s *Service) SetFlags(ctx context.Context, id asset.ID, flags asset.Flags) (asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.SetFlags(ctx, id, flags)
}

// Assets returns the catalog ordered by path.
func (s *Service) Assets() []asset.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Assets()
}

// Asset returns one asset.
func (s *Service) Asset(id asset.ID) (asset.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(id)
}

// Folder returns the root of the selected folder, or "" if none.
func (s *Service) Folder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return ""
	}
	return s.folder.Root()
}

// Summary returns the outcome of the last completed scan.
func (s *Service) Summary() asset.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}

// Generation returns the current folder-session generation.
func (s *Service) Generation() asset.Generation {
	return s.catalog.Current()
}

// Stats implements metrics.StatsProvider.
func (s *Service) Stats() metrics.Stats {
	s.mu.Lock()
	counts := s.catalog.Counts()
	gen := s.catalog.Current()
	s.mu.Unlock()

	return metrics.Stats{
		Generation:     uint64(gen),
		TotalAssets:    counts.Total,
		Picked:         counts.Picked,
		Rejected:       counts.Rejected,
		ThumbnailCount: s.cache.Len(asset.VariantThumbnail),
		PreviewCount:   s.cache.Len(asset.VariantPreview),
	}
}

// Close stops scans and decode workers. It is safe to call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelScanLocked()
	s.mu.Unlock()

	s.sched.Close()
}

// sink applies scheduler results that passed the generation check. The
// scheduler calls Deliver with s.mu held.
type sink struct{ s *Service }

func (k sink) Deliver(r scheduler.Result) {
	s := k.s
	id, v := r.Key.ID, r.Key.Variant

	if r.Err != nil {
		s.sub.OnFailure(id, v, r.Err)
		if errors.Is(r.Err, asset.ErrSessionInvalidated) && s.folder != nil {
			s.invalidateLocked(s.folder)
		}
		return
	}

	if !s.catalog.MarkReady(id, v) {
		return
	}
	s.cache.Put(r.Key, r.Data)

	if v == asset.VariantPreview {
		s.sub.OnPreviewReady(id, r.Data)
	} else {
		s.sub.OnThumbnailReady(id, r.Data)
	}
}
