package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/metrics"
)

const assetColumns = `identifier, uri, COALESCE(file_path, ''), filename, kind, mime_type,
	byte_size, local_path, cloud_key, mod_time`

const upsertAssetQuery = `
	INSERT INTO assets (identifier, uri, file_path, filename, kind, mime_type, byte_size, local_path, cloud_key, mod_time, updated_at)
	VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(identifier) DO UPDATE SET
		uri = excluded.uri,
		file_path = excluded.file_path,
		filename = excluded.filename,
		kind = excluded.kind,
		mime_type = excluded.mime_type,
		byte_size = excluded.byte_size,
		local_path = CASE WHEN excluded.local_path != '' THEN excluded.local_path ELSE assets.local_path END,
		cloud_key = CASE WHEN excluded.cloud_key != '' THEN excluded.cloud_key ELSE assets.cloud_key END,
		mod_time = excluded.mod_time,
		updated_at = strftime('%s', 'now')
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*Asset, error) {
	var a Asset
	var kind string
	var modTime int64
	err := row.Scan(&a.Identifier, &a.URI, &a.FilePath, &a.Filename, &kind, &a.MimeType,
		&a.ByteSize, &a.LocalPath, &a.CloudKey, &modTime)
	if err != nil {
		return nil, err
	}
	a.Kind = mediatypes.Kind(kind)
	a.ModTime = time.Unix(modTime, 0)
	return &a, nil
}

// MaxAssetSize is the largest byte size the catalog accepts for an asset.
const MaxAssetSize = 1 << 40

// ErrInvalidAsset is returned when an asset record fails validation.
var ErrInvalidAsset = errors.New("invalid asset")

// UpsertAsset inserts or updates an asset within a transaction. An empty
// LocalPath or CloudKey keeps the stored value, so re-indexing never forgets
// a cached download or a cloud location.
func (d *Database) UpsertAsset(ctx context.Context, tx *sql.Tx, a *Asset) error {
	if a.ByteSize < 0 || a.ByteSize > MaxAssetSize {
		return fmt.Errorf("asset %s: byte size %d outside 0..%d: %w", a.Identifier, a.ByteSize, int64(MaxAssetSize), ErrInvalidAsset)
	}
	start := time.Now()
	_, err := tx.ExecContext(ctx, upsertAssetQuery,
		string(a.Identifier), a.URI, a.FilePath, a.Filename, string(a.Kind), a.MimeType,
		a.ByteSize, a.LocalPath, a.CloudKey, a.ModTime.Unix(),
	)
	recordQuery("upsert_asset", start, err)
	return err
}

// SaveAsset upserts a single asset in its own transaction.
func (d *Database) SaveAsset(ctx context.Context, a *Asset) error {
	tx, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	return d.EndBatch(tx, d.UpsertAsset(ctx, tx, a))
}

// DeleteMissingAssets removes library assets that weren't seen during
// indexing since cutoff. Cloud-backed and imported assets are kept.
func (d *Database) DeleteMissingAssets(ctx context.Context, tx *sql.Tx, cutoff time.Time) (int64, error) {
	start := time.Now()
	result, err := tx.ExecContext(ctx,
		"DELETE FROM assets WHERE updated_at < ? AND cloud_key = '' AND file_path IS NOT NULL",
		cutoff.Unix(),
	)
	recordQuery("delete_missing", start, err)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetAsset returns the catalog row for id, or assets.ErrNotFound.
func (d *Database) GetAsset(ctx context.Context, id assets.Identifier) (*Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("fetch_by_identifier", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a *Asset
	a, err = scanAsset(d.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE identifier = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assets.ErrNotFound
	}
	return a, err
}

// FindIdentifier returns the identifier of the asset whose library path,
// cached path or URI equals ref, or assets.ErrNotFound.
func (d *Database) FindIdentifier(ctx context.Context, ref string) (assets.Identifier, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("lookup_by_reference", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	err = d.db.QueryRowContext(ctx, `
		SELECT identifier FROM assets
		WHERE file_path = ? OR uri = ? OR (local_path != '' AND local_path = ?)
		ORDER BY CASE WHEN file_path = ? THEN 0 WHEN uri = ? THEN 1 ELSE 2 END
		LIMIT 1
	`, ref, ref, ref, ref, ref).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", assets.ErrNotFound
	}
	return assets.Identifier(id), err
}

// MarkLocal records that the bytes of id are now available at localPath.
func (d *Database) MarkLocal(ctx context.Context, id assets.Identifier, localPath string, size int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("mark_local", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE assets SET local_path = ?, byte_size = ?, updated_at = strftime('%s', 'now')
		WHERE identifier = ?
	`, localPath, size, string(id))
	return err
}

// ListAssets returns up to limit assets ordered by identifier, starting
// after the given identifier (keyset pagination).
func (d *Database) ListAssets(ctx context.Context, after assets.Identifier, limit int) ([]*Asset, error) {
	if limit <= 0 {
		limit = 100
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE identifier > ? ORDER BY identifier LIMIT ?",
		string(after), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetStats counts cataloged assets by kind and availability. It implements
// metrics.StatsProvider.
func (d *Database) GetStats(ctx context.Context) (metrics.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var stats metrics.Stats
	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, `
		SELECT kind, local_path != '' AS is_local, COUNT(*)
		FROM assets GROUP BY kind, is_local
	`)
	if err != nil {
		return stats, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind string
		var local bool
		var n int
		if err = rows.Scan(&kind, &local, &n); err != nil {
			return stats, err
		}
		switch {
		case kind == string(mediatypes.KindImage) && local:
			stats.LocalImages += n
		case kind == string(mediatypes.KindImage):
			stats.CloudImages += n
		case kind == string(mediatypes.KindVideo) && local:
			stats.LocalVideos += n
		case kind == string(mediatypes.KindVideo):
			stats.CloudVideos += n
		case local:
			stats.LocalOther += n
		default:
			stats.CloudOther += n
		}
	}
	err = rows.Err()
	return stats, err
}
