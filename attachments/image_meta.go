package attachments

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

const thumbnailJpegQuality = 80

// GenerateThumbnail creates a JPEG thumbnail of the cover at coverPath whose
// longest side is at most maxSize pixels, stored at the game's fixed
// thumbnail path. Returns the path the thumbnail was saved at.
func (s *Store) GenerateThumbnail(gameID int64, coverPath string, maxSize int) (string, error) {
	img, err := imaging.Open(coverPath)
	if err != nil {
		return "", fmt.Errorf("failed to open cover %s: %w", coverPath, err)
	}

	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	thumbPath := s.ThumbnailPath(gameID)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(thumbnailJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail to %s: %w", thumbPath, err)
	}

	log.Printf("attachments: generated thumbnail for game %d at %s", gameID, thumbPath)
	return thumbPath, nil
}

// PhotoMeta holds best-effort metadata extracted from an uploaded photo.
type PhotoMeta struct {
	Width   *int
	Height  *int
	TakenAt *int64
}

// ExtractPhotoMeta reads pixel dimensions and the EXIF capture time from the
// image file at path. Missing or undecodable data is not an error; the
// corresponding fields are simply left nil.
func ExtractPhotoMeta(path string) PhotoMeta {
	var meta PhotoMeta

	file, err := os.Open(path)
	if err != nil {
		log.Printf("attachments: failed to open %s for metadata: %v", path, err)
		return meta
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err == nil {
		w, h := cfg.Width, cfg.Height
		meta.Width = &w
		meta.Height = &h
	}

	if _, err := file.Seek(0, 0); err != nil {
		return meta
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		// most screenshots and exported images simply carry no EXIF block
		return meta
	}
	if dt, err := exifData.DateTime(); err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	}
	return meta
}
