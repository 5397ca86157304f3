package assets

import (
	"context"

	"media-resolver/internal/mediatypes"
	"media-resolver/internal/orientation"
)

// Identifier is the stable key naming an asset inside the media library,
// independent of how the asset was referenced.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// PickerInfo is the result record a host picker hands back for a selection.
// Any field may be empty.
type PickerInfo struct {
	// AssetIdentifier is the library identifier when the picker already knows it.
	AssetIdentifier string `json:"assetIdentifier,omitempty"`
	// ReferenceURL is a library URL (ph:// or assets-library://).
	ReferenceURL string `json:"referenceUrl,omitempty"`
	// MediaURL is a file the picker exported for this selection.
	MediaURL string `json:"mediaUrl,omitempty"`
}

// Reference is an opaque handle supplied by the host: a local path, a file://
// URL, a library URL, and/or a picker result record. It is consumed once.
type Reference struct {
	URI  string      `json:"uri,omitempty"`
	Info *PickerInfo `json:"info,omitempty"`
}

// String returns the most descriptive form of the reference for logging.
func (r Reference) String() string {
	if r.URI != "" {
		return r.URI
	}
	if r.Info != nil {
		switch {
		case r.Info.AssetIdentifier != "":
			return r.Info.AssetIdentifier
		case r.Info.ReferenceURL != "":
			return r.Info.ReferenceURL
		case r.Info.MediaURL != "":
			return r.Info.MediaURL
		}
	}
	return "<empty>"
}

// Handle is the canonical representation of a library asset, covering both
// locally cached and cloud-only assets. The media store owns it; callers hold
// it only for the duration of a request.
type Handle struct {
	Identifier Identifier      `json:"identifier"`
	Kind       mediatypes.Kind `json:"kind"`
	Filename   string          `json:"filename"`
	// URI is the reference form the store reports for this asset.
	URI string `json:"uri"`
	// LocalPath is where the bytes live on disk, empty while cloud-only.
	LocalPath string `json:"localPath,omitempty"`
	// CloudKey locates the original in remote storage, empty for local-only assets.
	CloudKey string `json:"cloudKey,omitempty"`
	ByteSize int64  `json:"byteSize"`
}

// ProgressFunc receives download progress in the range [0, 1].
type ProgressFunc func(fraction float64)

// MediaStore is the device media library as seen by the resolver and fetcher.
// Implementations must be safe for concurrent use.
type MediaStore interface {
	// LookupByReference returns the identifier of the catalog entry whose
	// location matches ref (a path or URL). ErrNotFound if none does.
	LookupByReference(ctx context.Context, ref string) (Identifier, error)
	// FetchByIdentifier returns the handle for id. ErrNotFound if unknown.
	FetchByIdentifier(ctx context.Context, id Identifier) (*Handle, error)
	// IsLocallyAvailable reports whether the asset's bytes are on device.
	IsLocallyAvailable(ctx context.Context, h *Handle) (bool, error)
	// ReadLocalBytes reads the locally cached bytes of the asset.
	ReadLocalBytes(ctx context.Context, h *Handle) (*Blob, error)
	// RequestCloudDownload downloads the asset, caches it locally, and returns
	// its bytes. onProgress may be nil.
	RequestCloudDownload(ctx context.Context, h *Handle, onProgress ProgressFunc) (*Blob, error)
}

// Metadata is the record reported to callers for each resolved asset.
// Width and Height are logical (post-orientation); zero means unknown.
type Metadata struct {
	Identifier  Identifier           `json:"identifier,omitempty"`
	URI         string               `json:"uri"`
	Kind        mediatypes.Kind      `json:"kind"`
	Type        mediatypes.MediaType `json:"type"`
	MimeType    string               `json:"mimeType"`
	FileSize    int64                `json:"fileSize"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Orientation orientation.Code     `json:"orientation"`
	Filename    string               `json:"filename,omitempty"`
}
