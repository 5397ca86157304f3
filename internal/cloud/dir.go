package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"media-resolver/internal/assets"
	"media-resolver/internal/filesystem"
	"media-resolver/internal/logging"
)

// DirDownloader "downloads" from a mounted remote directory such as an NFS
// export of the cloud library. Keys are paths relative to the directory.
type DirDownloader struct {
	root  string
	retry filesystem.RetryConfig
}

// NewDirDownloader creates a downloader rooted at dir.
func NewDirDownloader(dir string) (*DirDownloader, error) {
	if dir == "" {
		return nil, errors.New("directory backend requires a directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	logging.Info("Cloud backend: directory %s", abs)
	return &DirDownloader{root: abs, retry: filesystem.DefaultRetryConfig()}, nil
}

func (d *DirDownloader) Name() string {
	return BackendDirectory
}

func (d *DirDownloader) resolve(key string) (string, error) {
	p := filepath.Join(d.root, filepath.FromSlash(key))
	if p != d.root && !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the cloud directory: %w", key, assets.ErrPermission)
	}
	return p, nil
}

func (d *DirDownloader) Download(ctx context.Context, key string, w io.Writer, onProgress assets.ProgressFunc) (int64, error) {
	path, err := d.resolve(key)
	if err != nil {
		return 0, err
	}

	f, err := filesystem.OpenWithRetry(path, d.retry)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn("failed to close %s: %v", path, cerr)
		}
	}()

	var total int64
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	return copyWithProgress(ctx, w, f, total, d.Name(), onProgress)
}
