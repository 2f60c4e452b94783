package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/bgg"
	"github.com/camden-git/cardboardbackend/config"
	"github.com/camden-git/cardboardbackend/database"
	"github.com/camden-git/cardboardbackend/handlers"
	"github.com/camden-git/cardboardbackend/repository"
	"github.com/camden-git/cardboardbackend/services"
	"github.com/camden-git/cardboardbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ImagesPath, cfg.InstructionsPath, cfg.ScansPath, cfg.GalleryPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	store, err := attachments.NewStore(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize attachment store: %v", err)
	}

	gameRepo := repository.NewGameRepository(db)
	sessionRepo := repository.NewPlaySessionRepository(db)
	imageRepo := repository.NewGameImageRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	log.Printf("Initializing cover cacher worker pool (Workers: %d, Queue Size: %d)...", cfg.CoverWorkers, cfg.CoverQueueSize)
	coverCacher := workers.NewCoverCacher(gameRepo, store, cfg.ThumbnailMaxSize, cfg.CoverQueueSize, cfg.CoverWorkers)

	collectionSvc := services.NewCollectionService(db, gameRepo, sessionRepo, store, coverCacher)
	attachmentSvc := services.NewAttachmentService(gameRepo, imageRepo, store, cfg.ThumbnailMaxSize)
	bggClient := bgg.NewClient(cfg.BGGAPIBase)

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing cover images in: %s", cfg.ImagesPath)
	log.Printf("Storing instructions in: %s", cfg.InstructionsPath)
	log.Printf("Storing 3D scans in: %s", cfg.ScansPath)
	log.Printf("Storing gallery photos in: %s", cfg.GalleryPath)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)
	log.Printf("BoardGameGeek API base: %s", cfg.BGGAPIBase)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	gameHandler := handlers.NewGameHandler(collectionSvc)
	sessionHandler := handlers.NewSessionHandler(collectionSvc)
	galleryHandler := handlers.NewGalleryHandler(attachmentSvc)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentSvc)
	statsHandler := handlers.NewStatsHandler(statsRepo)
	bggHandler := handlers.NewBGGHandler(bggClient)

	r.Route("/api", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Get("/", gameHandler.ListGames)
			r.Post("/", gameHandler.CreateGame)
			r.Route("/{gameID}", func(r chi.Router) {
				r.Get("/", gameHandler.GetGame)
				r.Patch("/", gameHandler.UpdateGame)
				r.Delete("/", gameHandler.DeleteGame)

				r.Get("/image", attachmentHandler.GetCover)
				r.Post("/image", attachmentHandler.UploadCover)
				r.Delete("/image", attachmentHandler.DeleteCover)
				r.Get("/thumbnail", attachmentHandler.GetThumbnail)

				r.Get("/instructions", attachmentHandler.GetInstructions)
				r.Post("/instructions", attachmentHandler.UploadInstructions)
				r.Delete("/instructions", attachmentHandler.DeleteInstructions)

				r.Get("/scan", attachmentHandler.ServeScan(attachments.KindScan))
				r.Post("/scan", attachmentHandler.UploadScan(attachments.KindScan))
				r.Delete("/scan", attachmentHandler.DeleteScan(attachments.KindScan))
				r.Get("/scan/glb", attachmentHandler.ServeScan(attachments.KindScanGLB))
				r.Post("/scan/glb", attachmentHandler.UploadScan(attachments.KindScanGLB))
				r.Delete("/scan/glb", attachmentHandler.DeleteScan(attachments.KindScanGLB))

				r.Route("/images", func(r chi.Router) {
					r.Get("/", galleryHandler.ListImages)
					r.Post("/", galleryHandler.UploadImage)
					r.Patch("/reorder", galleryHandler.ReorderImages)
					r.Delete("/{imageID}", galleryHandler.DeleteImage)
					r.Get("/{imageID}/file", galleryHandler.ServeImage)
				})

				r.Get("/sessions", sessionHandler.ListSessions)
				r.Post("/sessions", sessionHandler.CreateSession)
			})
		})

		r.Delete("/sessions/{sessionID}", sessionHandler.DeleteSession)

		r.Route("/bgg", func(r chi.Router) {
			r.Get("/search", bggHandler.Search)
			r.Get("/game/{bggID}", bggHandler.GetGame)
		})

		r.Get("/stats", statsHandler.GetStats)
	})

	r.Get("/*", handlers.FrontendServer(cfg.FrontendPath))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
