package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FrontendServer creates a handler serving the built single page frontend
// from frontendPath. Paths that match a real file are served directly;
// everything else falls back to index.html so client side routes survive a
// refresh.
func FrontendServer(frontendPath string) http.HandlerFunc {
	frontendDir := filepath.Clean(frontendPath)
	indexPath := filepath.Join(frontendDir, "index.html")
	log.Printf("Serving frontend from directory: %s", frontendDir)

	if _, err := os.Stat(indexPath); err != nil {
		log.Printf("WARNING: frontend index not found at %s; frontend requests will 404", indexPath)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := strings.TrimPrefix(r.URL.Path, "/")
		if strings.Contains(relativePath, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		if relativePath == "" {
			http.ServeFile(w, r, indexPath)
			return
		}

		requestedPath := filepath.Clean(filepath.Join(frontendDir, relativePath))
		if requestedPath != frontendDir && !strings.HasPrefix(requestedPath, frontendDir+string(os.PathSeparator)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			log.Printf("SECURITY: Attempted asset access outside frontend directory: Request='%s', Resolved='%s'", r.URL.Path, requestedPath)
			return
		}

		info, err := os.Stat(requestedPath)
		if err == nil && !info.IsDir() {
			cacheDuration := 24 * time.Hour
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
			http.ServeFile(w, r, requestedPath)
			return
		}
		if err != nil && !os.IsNotExist(err) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Printf("Error stating frontend file %s: %v", requestedPath, err)
			return
		}

		// no matching file; treat it as a client side route
		http.ServeFile(w, r, indexPath)
	}
}
