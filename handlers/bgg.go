package handlers

import (
	"net/http"
	"strings"

	"github.com/camden-git/cardboardbackend/bgg"
)

type BGGHandler struct {
	Client *bgg.Client
}

func NewBGGHandler(client *bgg.Client) *BGGHandler {
	return &BGGHandler{Client: client}
}

// Search handles GET /api/bgg/search?q=. Queries shorter than two characters
// return an empty list without hitting BoardGameGeek.
func (bh *BGGHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, []bgg.SearchResult{})
		return
	}

	results, err := bh.Client.Search(r.Context(), query)
	if err != nil {
		writeServiceError(w, err, "search")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetGame handles GET /api/bgg/game/{bggID}
func (bh *BGGHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	bggID, err := parseIDParam(r, "bggID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid BGG ID")
		return
	}

	details, err := bh.Client.GetGame(r.Context(), bggID)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusOK, details)
}
