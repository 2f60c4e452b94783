package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/services"
)

type SessionHandler struct {
	Collection *services.CollectionService
}

func NewSessionHandler(collection *services.CollectionService) *SessionHandler {
	return &SessionHandler{Collection: collection}
}

type createSessionRequest struct {
	PlayedAt        string  `json:"played_at" validate:"required,datetime=2006-01-02"`
	PlayerCount     *int    `json:"player_count" validate:"omitempty,gte=1"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=0"`
	Notes           *string `json:"notes"`
}

// ListSessions handles GET /api/games/{gameID}/sessions
func (sh *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	sessions, err := sh.Collection.ListSessions(gameID)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	if sessions == nil {
		sessions = []models.PlaySession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// CreateSession handles POST /api/games/{gameID}/sessions
func (sh *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	session := &models.PlaySession{
		GameID:          gameID,
		PlayedAt:        req.PlayedAt,
		PlayerCount:     req.PlayerCount,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}
	if err := sh.Collection.LogSession(session); err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (sh *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid session ID")
		return
	}
	if err := sh.Collection.DeleteSession(sessionID); err != nil {
		writeServiceError(w, err, "session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
