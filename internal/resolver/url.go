package resolver

import (
	"net/url"
	"path/filepath"
	"strings"

	"media-resolver/internal/assets"
)

const (
	schemePhotoLibrary  = "ph"
	schemeAssetsLibrary = "assets-library"
	schemeFile          = "file"
)

// IdentifierFromURL extracts a library identifier encoded in a URL:
//
//	ph://<identifier>
//	assets-library://asset/asset.JPG?id=<identifier>&ext=JPG
//
// It reports false for any other form, including file paths.
func IdentifierFromURL(raw string) (assets.Identifier, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	switch strings.ToLower(u.Scheme) {
	case schemePhotoLibrary:
		// ph://ABC-123/L0/001 keeps the path as part of the identifier;
		// the opaque form ph:ABC-123 is accepted too.
		id := strings.TrimPrefix(raw[len(u.Scheme)+1:], "//")
		if i := strings.IndexAny(id, "?#"); i >= 0 {
			id = id[:i]
		}
		id = strings.Trim(id, "/")
		if id == "" {
			return "", false
		}
		return assets.Identifier(id), true

	case schemeAssetsLibrary:
		id := u.Query().Get("id")
		if id == "" {
			return "", false
		}
		return assets.Identifier(id), true
	}

	return "", false
}

// LocalPath returns the filesystem path a reference points at: a file://
// URL or a bare absolute path. It reports false for library URLs and other
// schemes.
func LocalPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), true
	}

	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, schemeFile) {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	return filepath.Clean(filepath.FromSlash(u.Path)), true
}
