package models

import "time"

// PlaySession represents one logged play of a game.
// It corresponds to the 'play_sessions' table.
type PlaySession struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID          int64     `gorm:"not null;index" json:"game_id"`
	PlayedAt        string    `gorm:"not null;index" json:"played_at"`    // YYYY-MM-DD
	PlayerCount     *int      `gorm:"" json:"player_count,omitempty"`     // Nullable
	DurationMinutes *int      `gorm:"" json:"duration_minutes,omitempty"` // Nullable
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`   // Nullable
	DateAdded       time.Time `gorm:"autoCreateTime" json:"date_added"`
}

// TableName explicitly sets the table name for GORM.
func (PlaySession) TableName() string {
	return "play_sessions"
}
