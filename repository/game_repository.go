package repository

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/database"
	"github.com/camden-git/cardboardbackend/models"
)

// GameRepository handles database operations for Game entities
type GameRepository struct {
	DB *gorm.DB
}

// NewGameRepository creates a new instance of GameRepository
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

// Create creates a new game record in the database
func (r *GameRepository) Create(game *models.Game) error {
	if game.Status == "" {
		game.Status = models.StatusOwned
	}
	// list columns are stored as JSON arrays; keep them non-null so responses
	// always serialize as []
	if game.Categories == nil {
		game.Categories = datatypes.JSONSlice[string]{}
	}
	if game.Mechanics == nil {
		game.Mechanics = datatypes.JSONSlice[string]{}
	}
	if game.Designers == nil {
		game.Designers = datatypes.JSONSlice[string]{}
	}
	if game.Publishers == nil {
		game.Publishers = datatypes.JSONSlice[string]{}
	}
	if game.Labels == nil {
		game.Labels = datatypes.JSONSlice[string]{}
	}

	if err := r.DB.Create(game).Error; err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.Name, err)
	}
	return nil
}

// GetByID retrieves a game by its ID
func (r *GameRepository) GetByID(id int64) (*models.Game, error) {
	var game models.Game
	err := r.DB.First(&game, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get game by ID %d: %w", id, err)
	}
	return &game, nil
}

// List retrieves games, optionally filtered by a case-insensitive name
// substring and ordered by one of the allowed sort fields
func (r *GameRepository) List(search, sortBy, sortDir string) ([]models.Game, error) {
	var games []models.Game

	query := r.DB.Model(&models.Game{})
	if search != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = query.Order(database.GameOrderClause(sortBy, sortDir))

	if err := query.Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Update applies the given column updates to a game. The caller builds the
// map from whichever request fields were actually provided.
func (r *GameRepository) Update(gameID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		r.DB.Model(&models.Game{}).Where("id = ?", gameID).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// SetImageRef updates the cover image pointer and cached flag for a game
func (r *GameRepository) SetImageRef(gameID int64, imageURL *string, cached bool) error {
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		"image_url":    imageURL,
		"image_cached": cached,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update image ref for game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetThumbnailRef updates the cover thumbnail pointer for a game
func (r *GameRepository) SetThumbnailRef(gameID int64, thumbnailURL *string) error {
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		"thumbnail_url": thumbnailURL,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update thumbnail ref for game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetInstructionsFilename updates the stored instructions filename for a game
func (r *GameRepository) SetInstructionsFilename(gameID int64, filename *string) error {
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		"instructions_filename": filename,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update instructions filename for game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetScanState updates one scan filename column ("scan_filename" or
// "scan_glb_filename") together with the featured flag
func (r *GameRepository) SetScanState(gameID int64, column string, filename *string, featured bool) error {
	if column != "scan_filename" && column != "scan_glb_filename" {
		return fmt.Errorf("invalid scan column %q", column)
	}
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		column:          filename,
		"scan_featured": featured,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update scan state for game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetLastPlayed updates the derived last played date for a game
func (r *GameRepository) SetLastPlayed(gameID int64, lastPlayed *string) error {
	result := r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		"last_played": lastPlayed,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update last played for game ID %d: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a game row by its ID
func (r *GameRepository) Delete(id int64) error {
	result := r.DB.Delete(&models.Game{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete game ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
