package attachments

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies one class of file that can be attached to a game.
type Kind string

const (
	KindCover        Kind = "cover"
	KindInstructions Kind = "instructions"
	KindScan         Kind = "scan"     // .usdz
	KindScanGLB      Kind = "scan_glb" // .glb
	KindGallery      Kind = "gallery"
)

// upload ceilings in bytes
const (
	MaxImageSize        = 10 << 20
	MaxInstructionsSize = 20 << 20
	MaxScanSize         = 200 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrNotFound        = errors.New("attachment not found")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var instructionsExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// AllowedExtension reports whether ext (with leading dot, any case) is
// accepted for the given attachment kind.
func AllowedExtension(kind Kind, ext string) bool {
	ext = strings.ToLower(ext)
	switch kind {
	case KindCover, KindGallery:
		return imageExtensions[ext]
	case KindInstructions:
		return instructionsExtensions[ext]
	case KindScan:
		return ext == ".usdz"
	case KindScanGLB:
		return ext == ".glb"
	}
	return false
}

// MaxSize returns the upload ceiling in bytes for the given attachment kind.
func MaxSize(kind Kind) int64 {
	switch kind {
	case KindInstructions:
		return MaxInstructionsSize
	case KindScan, KindScanGLB:
		return MaxScanSize
	default:
		return MaxImageSize
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w.-]`)

// SafeFilename strips any path components from name and replaces characters
// outside [A-Za-z0-9_.-] with underscores. The result is capped at 200
// characters so derived paths stay well under filesystem limits.
func SafeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}

var contentTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionForDownload picks the file extension for a downloaded cover image:
// the response Content-Type when it maps to a known image type, otherwise the
// URL path's extension when that is an allowed image extension, otherwise
// ".jpg".
func ExtensionForDownload(contentType, rawURL string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if ext, ok := contentTypeExtensions[mediaType]; ok {
				return ext
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); imageExtensions[ext] {
			return ext
		}
	}
	return ".jpg"
}
