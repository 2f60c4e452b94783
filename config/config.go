package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultImagesSubDir       = "images"
	DefaultInstructionsSubDir = "instructions"
	DefaultScansSubDir        = "scans"
	DefaultGallerySubDir      = "gallery"
)

const (
	defaultBGGAPIBase      = "https://boardgamegeek.com/xmlapi2"
	defaultThumbnailSize   = 300
	defaultFrontendPath    = "./frontend"
	defaultDatabaseName    = "cardboard.db"
	defaultCoverQueueSize  = 100
	defaultCoverWorkers    = 2
)

type Config struct {
	// data root (covers, instructions, 3D scans, gallery and the database live under here)
	DataDir string

	// database path
	DatabasePath string

	// attachment storage configuration
	ImagesPath       string // full-calculated path for cover images
	InstructionsPath string // full-calculated path for instruction files
	ScansPath        string // full-calculated path for 3D scans
	GalleryPath      string // full-calculated path for per-game gallery directories

	// cover thumbnail generation settings
	ThumbnailMaxSize int

	// background cover download pool
	CoverQueueSize int
	CoverWorkers   int

	// built SPA frontend to serve at /
	FrontendPath string

	// BoardGameGeek XML API base URL
	BGGAPIBase string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", dataDir, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", filepath.Join(absDataDir, defaultDatabaseName))

	imagesSubDir := getEnvOrDefault("IMAGES_SUBDIR", DefaultImagesSubDir)
	absImagesPath := filepath.Join(absDataDir, imagesSubDir)

	instructionsSubDir := getEnvOrDefault("INSTRUCTIONS_SUBDIR", DefaultInstructionsSubDir)
	absInstructionsPath := filepath.Join(absDataDir, instructionsSubDir)

	scansSubDir := getEnvOrDefault("SCANS_SUBDIR", DefaultScansSubDir)
	absScansPath := filepath.Join(absDataDir, scansSubDir)

	gallerySubDir := getEnvOrDefault("GALLERY_SUBDIR", DefaultGallerySubDir)
	absGalleryPath := filepath.Join(absDataDir, gallerySubDir)

	thumbMaxSize := getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailSize)
	coverQueueSize := getEnvIntOrDefault("COVER_QUEUE_SIZE", defaultCoverQueueSize)
	coverWorkers := getEnvIntOrDefault("COVER_WORKERS", defaultCoverWorkers)

	frontend := getEnvOrDefault("FRONTEND_PATH", defaultFrontendPath)
	absFrontendPath, err := filepath.Abs(frontend)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for frontend '%s': %w", frontend, err)
	}

	bggBase := getEnvOrDefault("BGG_API_BASE", defaultBGGAPIBase)

	cfg := Config{
		DataDir:          absDataDir,
		DatabasePath:     dbPath,
		ImagesPath:       absImagesPath,
		InstructionsPath: absInstructionsPath,
		ScansPath:        absScansPath,
		GalleryPath:      absGalleryPath,
		ThumbnailMaxSize: thumbMaxSize,
		CoverQueueSize:   coverQueueSize,
		CoverWorkers:     coverWorkers,
		FrontendPath:     absFrontendPath,
		BGGAPIBase:       bggBase,
	}

	return cfg, nil
}
