package models

import "time"

// GameImage represents one gallery photo attached to a game.
// Sort order is kept dense per game starting at 0; the image at position 0
// is the primary gallery image.
// It corresponds to the 'game_images' table.
type GameImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID    int64     `gorm:"not null;index" json:"game_id"`
	Filename  string    `gorm:"not null" json:"filename"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	TakenAt   *int64    `gorm:"" json:"taken_at,omitempty"` // Nullable, Unix timestamp from EXIF
	Width     *int      `gorm:"" json:"width,omitempty"`    // Nullable
	Height    *int      `gorm:"" json:"height,omitempty"`   // Nullable
	DateAdded time.Time `gorm:"autoCreateTime" json:"date_added"`
}

// TableName explicitly sets the table name for GORM.
func (GameImage) TableName() string {
	return "game_images"
}
