package attachments

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/camden-git/cardboardbackend/config"
)

// Store manages the on-disk files attached to games. Every path is derived
// from the game ID (plus a sanitized filename where one is kept), so files
// can be located without consulting the database.
type Store struct {
	imagesDir       string
	instructionsDir string
	scansDir        string
	galleryDir      string
}

// NewStore creates a Store rooted at the configured attachment directories,
// creating any that do not exist yet.
func NewStore(cfg config.Config) (*Store, error) {
	s := &Store{
		imagesDir:       cfg.ImagesPath,
		instructionsDir: cfg.InstructionsPath,
		scansDir:        cfg.ScansPath,
		galleryDir:      cfg.GalleryPath,
	}
	for _, dir := range []string{s.imagesDir, s.instructionsDir, s.scansDir, s.galleryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create attachment directory '%s': %w", dir, err)
		}
	}
	log.Printf("attachments: initialized store (images: %s, instructions: %s, scans: %s, gallery: %s)",
		s.imagesDir, s.instructionsDir, s.scansDir, s.galleryDir)
	return s, nil
}

// CoverPath returns the path a cover image with the given extension is stored
// at. The extension must include the leading dot.
func (s *Store) CoverPath(gameID int64, ext string) string {
	return filepath.Join(s.imagesDir, strconv.FormatInt(gameID, 10)+strings.ToLower(ext))
}

// FindCover locates the stored cover image for a game. Covers are stored as
// {id}.{ext}; when several extensions exist (which should not happen, but a
// crashed replace can leave one behind) the lexicographically first wins.
func (s *Store) FindCover(gameID int64) (string, error) {
	pattern := filepath.Join(s.imagesDir, strconv.FormatInt(gameID, 10)+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to glob cover for game %d: %w", gameID, err)
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	sort.Strings(matches)
	return matches[0], nil
}

// RemoveCoverFiles deletes every stored cover file for a game. Missing files
// are not an error.
func (s *Store) RemoveCoverFiles(gameID int64) {
	pattern := filepath.Join(s.imagesDir, strconv.FormatInt(gameID, 10)+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		log.Printf("attachments: failed to glob covers for game %d: %v", gameID, err)
		return
	}
	for _, m := range matches {
		s.Delete(m)
	}
}

// ThumbnailPath returns the path of the generated cover thumbnail for a game.
func (s *Store) ThumbnailPath(gameID int64) string {
	return filepath.Join(s.imagesDir, strconv.FormatInt(gameID, 10)+"_thumb.jpg")
}

// InstructionsPath returns the path an instructions file is stored at. The
// filename is expected to have gone through SafeFilename before storage.
func (s *Store) InstructionsPath(gameID int64, filename string) (string, error) {
	p := filepath.Join(s.instructionsDir, fmt.Sprintf("%d_%s", gameID, filename))
	if err := s.ensureWithin(s.instructionsDir, p); err != nil {
		return "", err
	}
	return p, nil
}

// ScanPath returns the path a 3D scan is stored at for the given kind
// (KindScan for .usdz, KindScanGLB for .glb).
func (s *Store) ScanPath(gameID int64, kind Kind) string {
	ext := ".usdz"
	if kind == KindScanGLB {
		ext = ".glb"
	}
	return filepath.Join(s.scansDir, strconv.FormatInt(gameID, 10)+ext)
}

// GalleryDir returns the directory holding a game's gallery images.
func (s *Store) GalleryDir(gameID int64) string {
	return filepath.Join(s.galleryDir, strconv.FormatInt(gameID, 10))
}

// NewGalleryFilename generates a unique filename for a gallery image with the
// given extension (leading dot included).
func (s *Store) NewGalleryFilename(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// GalleryPath resolves the path of a stored gallery image and verifies it
// stays inside the game's gallery directory.
func (s *Store) GalleryPath(gameID int64, filename string) (string, error) {
	dir := s.GalleryDir(gameID)
	p := filepath.Join(dir, filename)
	if err := s.ensureWithin(dir, p); err != nil {
		return "", err
	}
	return p, nil
}

// RemoveGalleryDir deletes a game's entire gallery directory. Missing
// directories are not an error.
func (s *Store) RemoveGalleryDir(gameID int64) {
	dir := s.GalleryDir(gameID)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("attachments: failed to remove gallery directory %s: %v", dir, err)
	}
}

// Save streams data to path, creating parent directories as needed. A failed
// write removes the partial file.
func (s *Store) Save(path string, data io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", path, err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create destination file '%s': %w", path, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write data to '%s': %w", path, err)
	}

	log.Printf("attachments: saved %s", path)
	return nil
}

// Delete removes a file. Missing files are treated as success.
func (s *Store) Delete(path string) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("attachments: failed to delete %s: %v", path, err)
		return
	}
	if err == nil {
		log.Printf("attachments: deleted %s", path)
	}
}

// Exists reports whether a regular file exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ensureWithin rejects paths that resolve outside base
func (s *Store) ensureWithin(base, p string) error {
	cleaned := filepath.Clean(p)
	if cleaned != base && !strings.HasPrefix(cleaned, base+string(os.PathSeparator)) {
		return fmt.Errorf("invalid path: '%s' resolves outside '%s'", p, base)
	}
	return nil
}
