package database

import (
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/mediatypes"
)

// Asset is one catalog row.
type Asset struct {
	Identifier assets.Identifier `json:"identifier"`
	// URI is the reference the host knows the asset by.
	URI string `json:"uri"`
	// FilePath is the asset's path in the library, empty for cloud-only assets
	// that were never on device.
	FilePath string          `json:"filePath,omitempty"`
	Filename string          `json:"filename"`
	Kind     mediatypes.Kind `json:"kind"`
	MimeType string          `json:"mimeType,omitempty"`
	ByteSize int64           `json:"byteSize"`
	// LocalPath is where readable bytes live: the library file or a cached download.
	LocalPath string    `json:"localPath,omitempty"`
	CloudKey  string    `json:"cloudKey,omitempty"`
	ModTime   time.Time `json:"modTime"`
}

// Handle converts the row into the handle handed to the fetcher.
func (a *Asset) Handle() *assets.Handle {
	return &assets.Handle{
		Identifier: a.Identifier,
		Kind:       a.Kind,
		Filename:   a.Filename,
		URI:        a.URI,
		LocalPath:  a.LocalPath,
		CloudKey:   a.CloudKey,
		ByteSize:   a.ByteSize,
	}
}
