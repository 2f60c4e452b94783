package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/models"
)

// ErrInvalidOrder is returned by Reorder when the submitted IDs do not match
// the game's current gallery exactly.
var ErrInvalidOrder = errors.New("order must contain each gallery image ID exactly once")

// GameImageRepository handles database operations for gallery images. The
// mutating methods also maintain the owning game's cover pointer, since the
// image at sort position 0 doubles as the cover whenever the pointer targets
// the gallery.
type GameImageRepository struct {
	DB *gorm.DB
}

// NewGameImageRepository creates a new instance of GameImageRepository
func NewGameImageRepository(db *gorm.DB) *GameImageRepository {
	return &GameImageRepository{DB: db}
}

// ListByGame retrieves a game's gallery ordered by sort position
func (r *GameImageRepository) ListByGame(gameID int64) ([]models.GameImage, error) {
	var images []models.GameImage
	err := r.DB.Where("game_id = ?", gameID).Order("sort_order ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images for game %d: %w", gameID, err)
	}
	return images, nil
}

// GetByID retrieves a gallery image by its ID
func (r *GameImageRepository) GetByID(id int64) (*models.GameImage, error) {
	var img models.GameImage
	err := r.DB.First(&img, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get gallery image by ID %d: %w", id, err)
	}
	return &img, nil
}

// AddToGallery appends img at the end of its game's gallery. When the gallery
// was empty the new image becomes primary and the game's cover pointer is
// retargeted at it in the same transaction.
func (r *GameImageRepository) AddToGallery(img *models.GameImage) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var next *int
		if err := tx.Model(&models.GameImage{}).
			Where("game_id = ?", img.GameID).
			Select("MAX(sort_order) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		if next != nil {
			img.SortOrder = *next
		} else {
			img.SortOrder = 0
		}

		if err := tx.Create(img).Error; err != nil {
			return err
		}

		if img.SortOrder == 0 {
			return tx.Model(&models.Game{}).Where("id = ?", img.GameID).Updates(map[string]interface{}{
				"image_url":    models.GalleryImageRef(img.GameID, img.ID),
				"image_cached": false,
			}).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add gallery image for game %d: %w", img.GameID, err)
	}
	return nil
}

// DeleteFromGallery removes one gallery image, renumbers the remaining images
// densely from 0, and retargets the game's cover pointer when it pointed at
// the deleted image. Returns the deleted row so the caller can remove its
// file after the transaction commits.
func (r *GameImageRepository) DeleteFromGallery(gameID, imageID int64) (*models.GameImage, error) {
	var deleted models.GameImage
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND game_id = ?", imageID, gameID).First(&deleted).Error; err != nil {
			return err
		}
		wasPrimary := deleted.SortOrder == 0

		if err := tx.Delete(&models.GameImage{}, deleted.ID).Error; err != nil {
			return err
		}

		var remaining []models.GameImage
		if err := tx.Where("game_id = ?", gameID).Order("sort_order ASC").Find(&remaining).Error; err != nil {
			return err
		}
		for i := range remaining {
			if remaining[i].SortOrder != i {
				if err := tx.Model(&models.GameImage{}).Where("id = ?", remaining[i].ID).
					Update("sort_order", i).Error; err != nil {
					return err
				}
				remaining[i].SortOrder = i
			}
		}

		var game models.Game
		if err := tx.First(&game, gameID).Error; err != nil {
			return err
		}
		pointsAtDeleted := game.ImageURL != nil &&
			strings.Contains(*game.ImageURL, fmt.Sprintf("/images/%d/file", imageID))
		if wasPrimary || pointsAtDeleted {
			updates := map[string]interface{}{"image_cached": false}
			if len(remaining) > 0 {
				updates["image_url"] = models.GalleryImageRef(gameID, remaining[0].ID)
			} else {
				updates["image_url"] = gorm.Expr("NULL")
			}
			if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to delete gallery image %d for game %d: %w", imageID, gameID, err)
	}
	return &deleted, nil
}

// Reorder rewrites a game's gallery positions to match order, which must
// contain each current image ID exactly once. The cover pointer is retargeted
// at the new primary image. Returns the gallery in its new order.
func (r *GameImageRepository) Reorder(gameID int64, order []int64) ([]models.GameImage, error) {
	var images []models.GameImage
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var current []models.GameImage
		if err := tx.Where("game_id = ?", gameID).Find(&current).Error; err != nil {
			return err
		}

		currentIDs := make(map[int64]bool, len(current))
		for _, img := range current {
			currentIDs[img.ID] = true
		}
		submitted := make(map[int64]bool, len(order))
		for _, id := range order {
			submitted[id] = true
		}
		if len(order) != len(current) || len(submitted) != len(currentIDs) {
			return ErrInvalidOrder
		}
		for id := range submitted {
			if !currentIDs[id] {
				return ErrInvalidOrder
			}
		}

		for pos, id := range order {
			if err := tx.Model(&models.GameImage{}).Where("id = ?", id).
				Update("sort_order", pos).Error; err != nil {
				return err
			}
		}

		if len(order) > 0 {
			if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
				"image_url":    models.GalleryImageRef(gameID, order[0]),
				"image_cached": false,
			}).Error; err != nil {
				return err
			}
		}

		return tx.Where("game_id = ?", gameID).Order("sort_order ASC").Find(&images).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidOrder) {
			return nil, ErrInvalidOrder
		}
		return nil, fmt.Errorf("failed to reorder gallery for game %d: %w", gameID, err)
	}
	return images, nil
}

// DeleteAllForGame removes every gallery row belonging to a game
func (r *GameImageRepository) DeleteAllForGame(gameID int64) error {
	err := r.DB.Where("game_id = ?", gameID).Delete(&models.GameImage{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete gallery images for game %d: %w", gameID, err)
	}
	return nil
}
