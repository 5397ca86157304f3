package mediatypes

import (
	"path/filepath"
	"strings"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".3gp":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",

	// Videos
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".3gp":  "video/3gpp",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

// normalizeExt accepts an extension or a full file name and returns the
// lowercase extension with its leading dot.
func normalizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" && strings.HasPrefix(name, ".") {
		ext = strings.ToLower(name)
	}
	return ext
}

// KindForExtension returns the Kind for a file extension or file name.
// Returns KindOther if the extension is not recognized.
//
// Extensions only classify catalog entries; they never decide the MediaType
// of bytes, which is always sniffed.
func KindForExtension(name string) Kind {
	ext := normalizeExt(name)
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindOther
}

// MimeTypeForExtension returns the MIME type for a file extension or file name.
// Returns "application/octet-stream" if the extension is not recognized.
func MimeTypeForExtension(name string) string {
	if mime, ok := MimeTypes[normalizeExt(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}
