package models

import (
	"time"

	"gorm.io/datatypes"
)

// collection status values; rows with an empty or NULL status are treated as owned
const (
	StatusOwned    = "owned"
	StatusWishlist = "wishlist"
	StatusSold     = "sold"
)

// IsValidStatus reports whether s is one of the known collection statuses.
func IsValidStatus(s string) bool {
	return s == StatusOwned || s == StatusWishlist || s == StatusSold
}

// Game represents a single board game in the collection using GORM.
// It corresponds to the 'games' table.
type Game struct {
	ID            int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	BGGID         *int64   `gorm:"column:bgg_id" json:"bgg_id,omitempty"` // Nullable, BoardGameGeek thing ID
	Name          string   `gorm:"not null;index" json:"name"`
	Status        string   `gorm:"not null;default:owned" json:"status"`
	YearPublished *int     `gorm:"" json:"year_published,omitempty"` // Nullable
	MinPlayers    *int     `gorm:"" json:"min_players,omitempty"`    // Nullable
	MaxPlayers    *int     `gorm:"" json:"max_players,omitempty"`    // Nullable
	MinPlaytime   *int     `gorm:"" json:"min_playtime,omitempty"`   // Nullable, minutes
	MaxPlaytime   *int     `gorm:"" json:"max_playtime,omitempty"`   // Nullable, minutes
	Difficulty    *float64 `gorm:"" json:"difficulty,omitempty"`     // Nullable, 1.0-5.0 weight
	Description   *string  `gorm:"type:text" json:"description,omitempty"`

	// ImageURL is either a remote URL or a local reference such as
	// /api/games/{id}/image once the cover has been cached or uploaded
	ImageURL     *string `gorm:"" json:"image_url,omitempty"`
	ImageCached  bool    `gorm:"not null;default:false" json:"image_cached"`
	ThumbnailURL *string `gorm:"" json:"thumbnail_url,omitempty"`

	InstructionsFilename *string `gorm:"" json:"instructions_filename,omitempty"` // Nullable, sanitized original name
	ScanFilename         *string `gorm:"" json:"scan_filename,omitempty"`         // Nullable, original name of the .usdz scan
	ScanGLBFilename      *string `gorm:"column:scan_glb_filename" json:"scan_glb_filename,omitempty"`
	ScanFeatured         bool    `gorm:"not null;default:false" json:"scan_featured"`

	Categories datatypes.JSONSlice[string] `gorm:"" json:"categories"`
	Mechanics  datatypes.JSONSlice[string] `gorm:"" json:"mechanics"`
	Designers  datatypes.JSONSlice[string] `gorm:"" json:"designers"`
	Publishers datatypes.JSONSlice[string] `gorm:"" json:"publishers"`
	Labels     datatypes.JSONSlice[string] `gorm:"" json:"labels"`

	PurchaseDate     *string  `gorm:"" json:"purchase_date,omitempty"` // Nullable, YYYY-MM-DD
	PurchasePrice    *float64 `gorm:"" json:"purchase_price,omitempty"`
	PurchaseLocation *string  `gorm:"" json:"purchase_location,omitempty"`
	UserRating       *float64 `gorm:"" json:"user_rating,omitempty"` // Nullable, 1-10
	UserNotes        *string  `gorm:"type:text" json:"user_notes,omitempty"`

	// LastPlayed is derived from play sessions and never set from a request
	LastPlayed   *string   `gorm:"" json:"last_played,omitempty"` // Nullable, YYYY-MM-DD
	DateAdded    time.Time `gorm:"autoCreateTime" json:"date_added"`
	DateModified time.Time `gorm:"autoUpdateTime" json:"date_modified"`
}

// TableName explicitly sets the table name for GORM.
func (Game) TableName() string {
	return "games"
}
