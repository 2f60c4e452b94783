package services

import (
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/repository"
)

// AttachmentService handles the files hanging off a game: the cover image and
// its thumbnail, the instructions document, the 3D scans, and the photo
// gallery. Uploads validate extension and size before anything touches disk,
// and database pointers are only moved after the file write succeeded.
type AttachmentService struct {
	gameRepo         repository.GameRepositoryInterface
	imageRepo        repository.GameImageRepositoryInterface
	store            *attachments.Store
	thumbnailMaxSize int
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(
	gameRepo repository.GameRepositoryInterface,
	imageRepo repository.GameImageRepositoryInterface,
	store *attachments.Store,
	thumbnailMaxSize int,
) *AttachmentService {
	return &AttachmentService{
		gameRepo:         gameRepo,
		imageRepo:        imageRepo,
		store:            store,
		thumbnailMaxSize: thumbnailMaxSize,
	}
}

func validateUpload(kind attachments.Kind, filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !attachments.AllowedExtension(kind, ext) {
		return "", attachments.ErrUnsupportedType
	}
	if size > attachments.MaxSize(kind) {
		return "", attachments.ErrTooLarge
	}
	return ext, nil
}

// UploadCover stores a new cover image for a game, replacing any previous
// one, and points image_url at the local copy. Thumbnail generation is best
// effort; a cover without a thumbnail is still a success.
func (s *AttachmentService) UploadCover(gameID int64, filename string, size int64, data io.Reader) (*models.Game, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	ext, err := validateUpload(attachments.KindCover, filename, size)
	if err != nil {
		return nil, err
	}

	s.store.RemoveCoverFiles(gameID)
	s.store.Delete(s.store.ThumbnailPath(gameID))

	path := s.store.CoverPath(gameID, ext)
	if err := s.store.Save(path, data); err != nil {
		return nil, err
	}

	ref := models.CoverRef(gameID)
	if err := s.gameRepo.SetImageRef(gameID, &ref, true); err != nil {
		return nil, err
	}
	s.generateThumbnail(gameID, path)

	return s.gameRepo.GetByID(gameID)
}

// CoverFile resolves the on-disk path of a game's stored cover
func (s *AttachmentService) CoverFile(gameID int64) (string, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return "", err
	}
	return s.store.FindCover(gameID)
}

// ThumbnailFile resolves the on-disk path of a game's generated cover
// thumbnail
func (s *AttachmentService) ThumbnailFile(gameID int64) (string, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return "", err
	}
	path := s.store.ThumbnailPath(gameID)
	if !s.store.Exists(path) {
		return "", attachments.ErrNotFound
	}
	return path, nil
}

// DeleteCover removes a game's stored cover files and clears the pointers
func (s *AttachmentService) DeleteCover(gameID int64) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}

	s.store.RemoveCoverFiles(gameID)
	s.store.Delete(s.store.ThumbnailPath(gameID))

	if err := s.gameRepo.SetImageRef(gameID, nil, false); err != nil {
		return nil, err
	}
	if game.ThumbnailURL != nil && models.IsLocalRef(*game.ThumbnailURL) {
		if err := s.gameRepo.SetThumbnailRef(gameID, nil); err != nil {
			return nil, err
		}
	}
	return s.gameRepo.GetByID(gameID)
}

// UploadInstructions stores an instructions document under a sanitized
// version of its original filename, replacing any previous document.
func (s *AttachmentService) UploadInstructions(gameID int64, filename string, size int64, data io.Reader) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}

	safeName := attachments.SafeFilename(filename)
	if _, err := validateUpload(attachments.KindInstructions, safeName, size); err != nil {
		return nil, err
	}

	if game.InstructionsFilename != nil {
		if old, err := s.store.InstructionsPath(gameID, *game.InstructionsFilename); err == nil {
			s.store.Delete(old)
		}
	}

	path, err := s.store.InstructionsPath(gameID, safeName)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(path, data); err != nil {
		return nil, err
	}
	if err := s.gameRepo.SetInstructionsFilename(gameID, &safeName); err != nil {
		return nil, err
	}
	return s.gameRepo.GetByID(gameID)
}

// InstructionsFile resolves a game's instructions document. It returns the
// on-disk path plus the filename the download should carry.
func (s *AttachmentService) InstructionsFile(gameID int64) (string, string, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return "", "", err
	}
	if game.InstructionsFilename == nil {
		return "", "", attachments.ErrNotFound
	}
	path, err := s.store.InstructionsPath(gameID, *game.InstructionsFilename)
	if err != nil {
		return "", "", err
	}
	if !s.store.Exists(path) {
		return "", "", attachments.ErrNotFound
	}
	return path, *game.InstructionsFilename, nil
}

// DeleteInstructions removes a game's instructions document and clears the
// pointer
func (s *AttachmentService) DeleteInstructions(gameID int64) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.InstructionsFilename != nil {
		if path, err := s.store.InstructionsPath(gameID, *game.InstructionsFilename); err == nil {
			s.store.Delete(path)
		}
	}
	if err := s.gameRepo.SetInstructionsFilename(gameID, nil); err != nil {
		return nil, err
	}
	return s.gameRepo.GetByID(gameID)
}

// UploadScan stores a 3D scan in the requested format and marks the scan as
// featured. Each format keeps at most one file per game.
func (s *AttachmentService) UploadScan(gameID int64, kind attachments.Kind, filename string, size int64, data io.Reader) (*models.Game, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	if _, err := validateUpload(kind, filename, size); err != nil {
		return nil, err
	}

	path := s.store.ScanPath(gameID, kind)
	if err := s.store.Save(path, data); err != nil {
		return nil, err
	}

	safeName := attachments.SafeFilename(filename)
	if err := s.gameRepo.SetScanState(gameID, scanColumn(kind), &safeName, true); err != nil {
		return nil, err
	}
	return s.gameRepo.GetByID(gameID)
}

// ScanFile resolves a stored 3D scan. It returns the on-disk path plus the
// filename the download should carry.
func (s *AttachmentService) ScanFile(gameID int64, kind attachments.Kind) (string, string, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return "", "", err
	}
	path := s.store.ScanPath(gameID, kind)
	if !s.store.Exists(path) {
		return "", "", attachments.ErrNotFound
	}
	name := filepath.Base(path)
	if kind == attachments.KindScan && game.ScanFilename != nil {
		name = *game.ScanFilename
	}
	if kind == attachments.KindScanGLB && game.ScanGLBFilename != nil {
		name = *game.ScanGLBFilename
	}
	return path, name, nil
}

// DeleteScan removes one scan format. The featured flag survives only while
// the other format is still present.
func (s *AttachmentService) DeleteScan(gameID int64, kind attachments.Kind) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}

	s.store.Delete(s.store.ScanPath(gameID, kind))

	otherPresent := false
	switch kind {
	case attachments.KindScan:
		otherPresent = game.ScanGLBFilename != nil
	case attachments.KindScanGLB:
		otherPresent = game.ScanFilename != nil
	}
	featured := game.ScanFeatured && otherPresent
	if err := s.gameRepo.SetScanState(gameID, scanColumn(kind), nil, featured); err != nil {
		return nil, err
	}
	return s.gameRepo.GetByID(gameID)
}

// ListGallery returns a game's gallery images in display order
func (s *AttachmentService) ListGallery(gameID int64) ([]models.GameImage, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	return s.imageRepo.ListByGame(gameID)
}

// UploadGalleryImage stores a photo under a fresh random filename, appends it
// to the gallery, and promotes it to the game's cover when the gallery was
// empty. Pixel dimensions and the EXIF capture time are extracted when the
// file allows it.
func (s *AttachmentService) UploadGalleryImage(gameID int64, filename string, size int64, data io.Reader) (*models.GameImage, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	ext, err := validateUpload(attachments.KindGallery, filename, size)
	if err != nil {
		return nil, err
	}

	storedName := s.store.NewGalleryFilename(ext)
	path, err := s.store.GalleryPath(gameID, storedName)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(path, data); err != nil {
		return nil, err
	}

	meta := attachments.ExtractPhotoMeta(path)
	image := &models.GameImage{
		GameID:   gameID,
		Filename: storedName,
		TakenAt:  meta.TakenAt,
		Width:    meta.Width,
		Height:   meta.Height,
	}
	if err := s.imageRepo.AddToGallery(image); err != nil {
		s.store.Delete(path)
		return nil, err
	}
	return image, nil
}

// GalleryFile resolves the on-disk path of one gallery image
func (s *AttachmentService) GalleryFile(gameID, imageID int64) (string, error) {
	image, err := s.imageRepo.GetByID(imageID)
	if err != nil {
		return "", err
	}
	if image.GameID != gameID {
		return "", attachments.ErrNotFound
	}
	path, err := s.store.GalleryPath(gameID, image.Filename)
	if err != nil {
		return "", err
	}
	if !s.store.Exists(path) {
		return "", attachments.ErrNotFound
	}
	return path, nil
}

// DeleteGalleryImage removes one gallery image. The row goes first so the
// remaining images are renumbered and the cover pointer retargeted in the
// same transaction; the file is cleaned up afterwards.
func (s *AttachmentService) DeleteGalleryImage(gameID, imageID int64) error {
	deleted, err := s.imageRepo.DeleteFromGallery(gameID, imageID)
	if err != nil {
		return err
	}
	if path, err := s.store.GalleryPath(gameID, deleted.Filename); err == nil {
		s.store.Delete(path)
	}
	return nil
}

// ReorderGallery applies a caller-supplied display order to a game's gallery
func (s *AttachmentService) ReorderGallery(gameID int64, order []int64) ([]models.GameImage, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	return s.imageRepo.Reorder(gameID, order)
}

// generateThumbnail renders and records a cover thumbnail, logging instead of
// failing when the source image cannot be decoded
func (s *AttachmentService) generateThumbnail(gameID int64, coverPath string) {
	if _, err := s.store.GenerateThumbnail(gameID, coverPath, s.thumbnailMaxSize); err != nil {
		log.Printf("attachments: thumbnail for game %d skipped: %v", gameID, err)
		return
	}
	ref := models.ThumbnailRef(gameID)
	if err := s.gameRepo.SetThumbnailRef(gameID, &ref); err != nil {
		log.Printf("Error updating thumbnail reference for game %d: %v", gameID, err)
	}
}

func scanColumn(kind attachments.Kind) string {
	if kind == attachments.KindScanGLB {
		return "scan_glb_filename"
	}
	return "scan_filename"
}
