package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/models"
)

// PlaySessionRepository handles database operations for PlaySession entities
type PlaySessionRepository struct {
	DB *gorm.DB
}

// NewPlaySessionRepository creates a new instance of PlaySessionRepository
func NewPlaySessionRepository(db *gorm.DB) *PlaySessionRepository {
	return &PlaySessionRepository{DB: db}
}

// Create creates a new play session record in the database
func (r *PlaySessionRepository) Create(session *models.PlaySession) error {
	if err := r.DB.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create play session for game %d: %w", session.GameID, err)
	}
	return nil
}

// GetByID retrieves a play session by its ID
func (r *PlaySessionRepository) GetByID(id int64) (*models.PlaySession, error) {
	var session models.PlaySession
	err := r.DB.First(&session, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get play session by ID %d: %w", id, err)
	}
	return &session, nil
}

// ListByGame retrieves all play sessions for a game, most recent first
func (r *PlaySessionRepository) ListByGame(gameID int64) ([]models.PlaySession, error) {
	var sessions []models.PlaySession
	err := r.DB.Where("game_id = ?", gameID).Order("played_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list play sessions for game %d: %w", gameID, err)
	}
	return sessions, nil
}

// MaxPlayedAt returns the most recent played_at date for a game, or nil when
// the game has no sessions
func (r *PlaySessionRepository) MaxPlayedAt(gameID int64) (*string, error) {
	var max *string
	err := r.DB.Model(&models.PlaySession{}).
		Where("game_id = ?", gameID).
		Select("MAX(played_at)").
		Scan(&max).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get max played_at for game %d: %w", gameID, err)
	}
	return max, nil
}

// Delete removes a play session by its ID
func (r *PlaySessionRepository) Delete(id int64) error {
	result := r.DB.Delete(&models.PlaySession{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete play session ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAllForGame removes every play session belonging to a game
func (r *PlaySessionRepository) DeleteAllForGame(gameID int64) error {
	err := r.DB.Where("game_id = ?", gameID).Delete(&models.PlaySession{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete play sessions for game %d: %w", gameID, err)
	}
	return nil
}
