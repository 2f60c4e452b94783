package models

import (
	"fmt"
	"strings"
)

// CoverRef returns the local API reference stored in ImageURL once a game's
// cover file lives on disk.
func CoverRef(gameID int64) string {
	return fmt.Sprintf("/api/games/%d/image", gameID)
}

// ThumbnailRef returns the local API reference stored in ThumbnailURL for a
// generated cover thumbnail.
func ThumbnailRef(gameID int64) string {
	return fmt.Sprintf("/api/games/%d/thumbnail", gameID)
}

// GalleryImageRef returns the local API reference stored in ImageURL when a
// gallery image serves as a game's cover.
func GalleryImageRef(gameID, imageID int64) string {
	return fmt.Sprintf("/api/games/%d/images/%d/file", gameID, imageID)
}

// IsLocalRef reports whether url points back into this API rather than at a
// remote host.
func IsLocalRef(url string) bool {
	return strings.HasPrefix(url, "/api/")
}
