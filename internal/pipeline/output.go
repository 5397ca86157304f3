package pipeline

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"

	"media-resolver/internal/filesystem"

	"github.com/google/uuid"
)

// writeOutput stores the result blob in dir under a random name and points
// the metadata URI at it.
func (p *Pipeline) writeOutput(res *Result, dir string) error {
	ext := filepath.Ext(res.Metadata.Filename)
	if res.Metadata.Type.Known() || ext == "" {
		ext = res.Metadata.Type.Extension()
	}
	path := filepath.Join(dir, uuid.NewString()+ext)

	if _, err := filesystem.WriteFileAtomic(path, bytes.NewReader(res.Blob.Bytes()), p.retry); err != nil {
		return fmt.Errorf("write output for %s: %w", res.Metadata.URI, err)
	}

	size, err := FileSizeFromPath(path)
	if err != nil {
		return err
	}
	res.OutputPath = path
	res.Metadata.FileSize = size
	res.Metadata.URI = (&url.URL{Scheme: "file", Path: path}).String()
	return nil
}

// FileSizeFromPath returns the size in bytes of the file at path, which may
// also be given as a file:// URL.
func FileSizeFromPath(path string) (int64, error) {
	if u, err := url.Parse(path); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
