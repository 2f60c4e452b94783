package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/repository"
)

// CoverCacher is the background task surface remote cover URLs are handed to.
// Enqueue must not block.
type CoverCacher interface {
	Enqueue(gameID int64, imageURL string)
}

// GamePatch carries a partial game update. Updates holds one entry per field
// the request actually provided, keyed by column name. The cover pointer is
// kept out of the map because changing it has file and caching side effects.
type GamePatch struct {
	Updates     map[string]interface{}
	ImageURL    *string
	ImageURLSet bool
}

// CollectionService orchestrates game and play session operations, keeping
// the derived last played date, the on-disk attachments, and the background
// cover cacher in step with the database.
type CollectionService struct {
	db          *gorm.DB
	gameRepo    repository.GameRepositoryInterface
	sessionRepo repository.PlaySessionRepositoryInterface
	store       *attachments.Store
	cacher      CoverCacher
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	db *gorm.DB,
	gameRepo repository.GameRepositoryInterface,
	sessionRepo repository.PlaySessionRepositoryInterface,
	store *attachments.Store,
	cacher CoverCacher,
) *CollectionService {
	return &CollectionService{
		db:          db,
		gameRepo:    gameRepo,
		sessionRepo: sessionRepo,
		store:       store,
		cacher:      cacher,
	}
}

// CreateGame inserts a new game. The last played date is derived data and is
// never taken from the caller. A remote image URL is handed to the cover
// cacher once the row exists.
func (s *CollectionService) CreateGame(game *models.Game) error {
	game.LastPlayed = nil
	if err := s.gameRepo.Create(game); err != nil {
		return err
	}
	if game.ImageURL != nil {
		s.maybeCacheCover(game.ID, *game.ImageURL)
	}
	return nil
}

// GetGame retrieves a single game by ID
func (s *CollectionService) GetGame(id int64) (*models.Game, error) {
	return s.gameRepo.GetByID(id)
}

// ListGames retrieves games filtered and ordered per the request
func (s *CollectionService) ListGames(search, sortBy, sortDir string) ([]models.Game, error) {
	return s.gameRepo.List(search, sortBy, sortDir)
}

// UpdateGame applies a partial update. When the cover pointer changes to
// anything that is not a local reference, previously cached cover files are
// removed; a new remote URL is re-enqueued for caching after the row update.
func (s *CollectionService) UpdateGame(id int64, patch GamePatch) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{}, len(patch.Updates)+3)
	for col, val := range patch.Updates {
		updates[col] = val
	}

	var enqueueURL string
	if patch.ImageURLSet {
		newURL := patch.ImageURL
		updates["image_url"] = newURL

		newLocal := newURL != nil && models.IsLocalRef(*newURL)
		if !newLocal {
			// pointer leaves the stored cover behind; purge it
			s.removeCoverFiles(game.ID)
			updates["image_cached"] = false
			if game.ThumbnailURL != nil && models.IsLocalRef(*game.ThumbnailURL) {
				updates["thumbnail_url"] = (*string)(nil)
			}
			if newURL != nil {
				enqueueURL = *newURL
			}
		}
	}

	if err := s.gameRepo.Update(id, updates); err != nil {
		return nil, err
	}
	if enqueueURL != "" {
		s.maybeCacheCover(id, enqueueURL)
	}
	return s.gameRepo.GetByID(id)
}

// DeleteGame removes a game, its play sessions, its gallery rows, and every
// file attached to it. Files go first; the rows are removed in one
// transaction afterwards.
func (s *CollectionService) DeleteGame(id int64) error {
	game, err := s.gameRepo.GetByID(id)
	if err != nil {
		return err
	}

	s.removeCoverFiles(id)
	if game.InstructionsFilename != nil {
		if p, err := s.store.InstructionsPath(id, *game.InstructionsFilename); err == nil {
			s.store.Delete(p)
		}
	}
	s.store.Delete(s.store.ScanPath(id, attachments.KindScan))
	s.store.Delete(s.store.ScanPath(id, attachments.KindScanGLB))
	s.store.RemoveGalleryDir(id)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPlaySessionRepository(tx).DeleteAllForGame(id); err != nil {
			return err
		}
		if err := repository.NewGameImageRepository(tx).DeleteAllForGame(id); err != nil {
			return err
		}
		return repository.NewGameRepository(tx).Delete(id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return nil
}

// ListSessions returns a game's play history, most recent first
func (s *CollectionService) ListSessions(gameID int64) ([]models.PlaySession, error) {
	if _, err := s.gameRepo.GetByID(gameID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByGame(gameID)
}

// LogSession records a play and refreshes the game's last played date
func (s *CollectionService) LogSession(session *models.PlaySession) error {
	if _, err := s.gameRepo.GetByID(session.GameID); err != nil {
		return err
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return err
	}
	return s.refreshLastPlayed(session.GameID)
}

// DeleteSession removes a logged play and refreshes the owning game's last
// played date
func (s *CollectionService) DeleteSession(id int64) error {
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(id); err != nil {
		return err
	}
	return s.refreshLastPlayed(session.GameID)
}

// refreshLastPlayed recomputes a game's last played date from its remaining
// sessions. The game having been deleted in the meantime is not an error.
func (s *CollectionService) refreshLastPlayed(gameID int64) error {
	max, err := s.sessionRepo.MaxPlayedAt(gameID)
	if err != nil {
		return err
	}
	err = s.gameRepo.SetLastPlayed(gameID, max)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// maybeCacheCover hands a cover URL to the background cacher when it points
// at a remote host
func (s *CollectionService) maybeCacheCover(gameID int64, imageURL string) {
	if s.cacher == nil || imageURL == "" || models.IsLocalRef(imageURL) {
		return
	}
	s.cacher.Enqueue(gameID, imageURL)
}

// removeCoverFiles deletes a game's stored cover files along with the
// generated thumbnail
func (s *CollectionService) removeCoverFiles(gameID int64) {
	s.store.RemoveCoverFiles(gameID)
	s.store.Delete(s.store.ThumbnailPath(gameID))
}
