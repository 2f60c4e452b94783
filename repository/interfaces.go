package repository

import (
	"github.com/camden-git/cardboardbackend/models"
)

// GameRepositoryInterface defines the methods for game data operations
type GameRepositoryInterface interface {
	Create(game *models.Game) error
	GetByID(id int64) (*models.Game, error)
	List(search, sortBy, sortDir string) ([]models.Game, error)
	Update(gameID int64, updates map[string]interface{}) error
	SetImageRef(gameID int64, imageURL *string, cached bool) error
	SetThumbnailRef(gameID int64, thumbnailURL *string) error
	SetInstructionsFilename(gameID int64, filename *string) error
	SetScanState(gameID int64, column string, filename *string, featured bool) error
	SetLastPlayed(gameID int64, lastPlayed *string) error
	Delete(id int64) error
}

// PlaySessionRepositoryInterface defines the methods for play session data operations
type PlaySessionRepositoryInterface interface {
	Create(session *models.PlaySession) error
	GetByID(id int64) (*models.PlaySession, error)
	ListByGame(gameID int64) ([]models.PlaySession, error)
	MaxPlayedAt(gameID int64) (*string, error)
	Delete(id int64) error
	DeleteAllForGame(gameID int64) error
}

// GameImageRepositoryInterface defines the methods for gallery image data operations
type GameImageRepositoryInterface interface {
	ListByGame(gameID int64) ([]models.GameImage, error)
	GetByID(id int64) (*models.GameImage, error)
	AddToGallery(img *models.GameImage) error
	DeleteFromGallery(gameID, imageID int64) (*models.GameImage, error)
	Reorder(gameID int64, order []int64) ([]models.GameImage, error)
	DeleteAllForGame(gameID int64) error
}

// StatsRepositoryInterface defines the methods for collection statistics
type StatsRepositoryInterface interface {
	Compute() (*StatsReport, error)
}
