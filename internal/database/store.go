package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/cloud"
	"media-resolver/internal/filesystem"
	"media-resolver/internal/logging"

	"github.com/google/uuid"
)

// maxPreallocate caps the buffer reserved from a catalog size. Larger
// downloads grow the buffer as bytes arrive.
const maxPreallocate = 64 << 20

// MediaStore implements assets.MediaStore over the catalog, the local
// filesystem and an optional cloud backend. Downloads are cached under
// cacheDir and recorded in the catalog, so later reads are local.
type MediaStore struct {
	db         *Database
	downloader cloud.Downloader
	cacheDir   string
	retry      filesystem.RetryConfig
}

var _ assets.MediaStore = (*MediaStore)(nil)

// NewMediaStore creates a store. downloader may be nil when there is no
// cloud backend.
func NewMediaStore(db *Database, downloader cloud.Downloader, cacheDir string) *MediaStore {
	return &MediaStore{
		db:         db,
		downloader: downloader,
		cacheDir:   cacheDir,
		retry:      filesystem.DefaultRetryConfig(),
	}
}

func (s *MediaStore) LookupByReference(ctx context.Context, ref string) (assets.Identifier, error) {
	return s.db.FindIdentifier(ctx, ref)
}

func (s *MediaStore) FetchByIdentifier(ctx context.Context, id assets.Identifier) (*assets.Handle, error) {
	a, err := s.db.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Handle(), nil
}

// currentLocalPath re-reads the local path from the catalog, since a handle
// obtained before a download completed does not carry it.
func (s *MediaStore) currentLocalPath(ctx context.Context, h *assets.Handle) (string, error) {
	a, err := s.db.GetAsset(ctx, h.Identifier)
	switch {
	case err == nil:
		return a.LocalPath, nil
	case errors.Is(err, assets.ErrNotFound):
		return h.LocalPath, nil
	default:
		return "", err
	}
}

// IsLocallyAvailable reports whether readable bytes exist on disk. A cached
// download that has since been evicted counts as not local when a cloud
// copy exists.
func (s *MediaStore) IsLocallyAvailable(ctx context.Context, h *assets.Handle) (bool, error) {
	path, err := s.currentLocalPath(ctx, h)
	if err != nil {
		return false, err
	}
	if path == "" {
		return false, nil
	}

	if _, err := filesystem.StatWithRetry(path, s.retry); err != nil {
		if os.IsNotExist(err) && h.CloudKey != "" {
			logging.Debug("Cached copy of %s at %s is gone, treating as cloud-only", h.Identifier, path)
			return false, nil
		}
		if os.IsNotExist(err) {
			// Local-only asset whose file vanished; the read reports notFound.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MediaStore) ReadLocalBytes(ctx context.Context, h *assets.Handle) (*assets.Blob, error) {
	path, err := s.currentLocalPath(ctx, h)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("asset %s has no local copy: %w", h.Identifier, assets.ErrNotFound)
	}

	data, err := filesystem.ReadFileWithRetry(path, s.retry)
	if err != nil {
		return nil, err
	}
	return assets.NewBlobAt(data, path), nil
}

// cachePath returns where the download of h is stored. Identifiers may
// contain path separators, so the directory is a name-based UUID.
func (s *MediaStore) cachePath(h *assets.Handle) string {
	dir := uuid.NewSHA1(uuid.NameSpaceURL, []byte("asset:"+string(h.Identifier))).String()
	name := filepath.Base(h.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "original"
	}
	return filepath.Join(s.cacheDir, "downloads", dir, name)
}

// RequestCloudDownload downloads the original of h, caches it and marks the
// asset local. One attempt is made; failures are returned as is.
func (s *MediaStore) RequestCloudDownload(ctx context.Context, h *assets.Handle, onProgress assets.ProgressFunc) (*assets.Blob, error) {
	if h.CloudKey == "" {
		return nil, fmt.Errorf("asset %s has no cloud copy: %w", h.Identifier, assets.ErrNotFound)
	}
	if s.downloader == nil {
		return nil, fmt.Errorf("asset %s is cloud-only but no cloud backend is configured: %w", h.Identifier, assets.ErrNotFound)
	}

	start := time.Now()
	var buf bytes.Buffer
	if h.ByteSize > 0 {
		buf.Grow(int(min(h.ByteSize, maxPreallocate)))
	}

	n, err := s.downloader.Download(ctx, h.CloudKey, &buf, onProgress)
	if err != nil {
		return nil, err
	}
	logging.Info("Downloaded %s from %s (%d bytes in %v)", h.Identifier, s.downloader.Name(), n, time.Since(start))

	data := buf.Bytes()
	if s.cacheDir == "" {
		return assets.NewBlob(data), nil
	}

	path := s.cachePath(h)
	if _, err := filesystem.WriteFileAtomic(path, bytes.NewReader(data), s.retry); err != nil {
		// The bytes are still good; only the cache write failed.
		logging.Warn("Failed to cache download of %s: %v", h.Identifier, err)
		return assets.NewBlob(data), nil
	}

	if err := s.db.MarkLocal(ctx, h.Identifier, path, n); err != nil {
		logging.Warn("Failed to record cached copy of %s: %v", h.Identifier, err)
	}
	return assets.NewBlobAt(data, path), nil
}
