package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/metrics"
)

// Library is the persisted asset set of one folder. Every write is a single
// transaction: it either fully applies or leaves the store unchanged.
type Library struct {
	d      *Database
	folder string
}

// Library returns the store scoped to folder, usually the folder's absolute path.
func (d *Database) Library(folder string) *Library {
	return &Library{d: d, folder: folder}
}

// Folder returns the folder this library is scoped to.
func (l *Library) Folder() string { return l.folder }

// UpsertAssets inserts new entries and updates the change-detection metadata
// of existing ones. Flags of existing rows are preserved.
func (l *Library) UpsertAssets(ctx context.Context, entries []asset.Entry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { recordQuery("upsert_assets", start, err) }()

	l.d.mu.Lock()
	defer l.d.mu.Unlock()

	b, err := l.d.beginBatch(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { err = l.d.endBatch(b, err) }()

	stmt, err := b.tx.PrepareContext(ctx, `
	INSERT INTO assets (folder, id, path, size, mod_time_ns, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(folder, id) DO UPDATE SET
		path = excluded.path,
		size = excluded.size,
		mod_time_ns = excluded.mod_time_ns,
		fingerprint = excluded.fingerprint,
		updated_at = strftime('%s', 'now')
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	var rows int64
	for _, e := range entries {
		res, execErr := stmt.ExecContext(ctx, l.folder, string(e.ID), e.Path, e.Size, toNanos(e.ModTime), int64(e.Fingerprint))
		if execErr != nil {
			return fmt.Errorf("upsert %s: %w", e.Path, execErr)
		}
		n, _ := res.RowsAffected()
		rows += n
	}
	metrics.DBRowsAffected.WithLabelValues("upsert_assets").Observe(float64(rows))
	return nil
}

// DeleteAssets removes the given IDs. Unknown IDs are ignored.
func (l *Library) DeleteAssets(ctx context.Context, ids []asset.ID) (err error) {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { recordQuery("delete_assets", start, err) }()

	l.d.mu.Lock()
	defer l.d.mu.Unlock()

	b, err := l.d.beginBatch(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { err = l.d.endBatch(b, err) }()

	stmt, err := b.tx.PrepareContext(ctx, "DELETE FROM assets WHERE folder = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	var rows int64
	for _, id := range ids {
		res, execErr := stmt.ExecContext(ctx, l.folder, string(id))
		if execErr != nil {
			return fmt.Errorf("delete %s: %w", id, execErr)
		}
		n, _ := res.RowsAffected()
		rows += n
	}
	metrics.DBRowsAffected.WithLabelValues("delete_assets").Observe(float64(rows))
	return nil
}

// LoadAll returns every persisted asset of the folder ordered by path.
// Readiness flags are never persisted and are always false.
func (l *Library) LoadAll(ctx context.Context) (assets []asset.Asset, err error) {
	start := time.Now()
	defer func() { recordQuery("load_assets", start, err) }()

	l.d.mu.RLock()
	defer l.d.mu.RUnlock()

	rows, err := l.d.db.QueryContext(ctx, `
	SELECT id, path, size, mod_time_ns, fingerprint, flags
	FROM assets WHERE folder = ?
	ORDER BY path
	`, l.folder)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a           asset.Asset
			id          string
			modTime     int64
			fingerprint int64
			flags       int64
		)
		if err := rows.Scan(&id, &a.Path, &a.Size, &modTime, &fingerprint, &flags); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		a.ID = asset.ID(id)
		a.ModTime = fromNanos(modTime)
		a.Fingerprint = uint64(fingerprint)
		a.Flags = asset.Flags(flags)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// UpdateFlags stores the culling flags of one asset.
func (l *Library) UpdateFlags(ctx context.Context, id asset.ID, flags asset.Flags) (err error) {
	start := time.Now()
	defer func() { recordQuery("update_flags", start, err) }()

	l.d.mu.Lock()
	defer l.d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := l.d.db.ExecContext(ctx, `
	UPDATE assets SET flags = ?, updated_at = strftime('%s', 'now')
	WHERE folder = ? AND id = ?
	`, int64(flags), l.folder, string(id))
	if err != nil {
		return fmt.Errorf("update flags of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update flags of %s: %w", id, asset.ErrNotFound)
	}
	return nil
}

// zeroTimeNanos marks the zero time, which UnixNano cannot represent. 0 is
// left to mean the Unix epoch.
const zeroTimeNanos = math.MinInt64

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return zeroTimeNanos
	}
	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == zeroTimeNanos {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
