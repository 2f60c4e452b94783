package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

var validate = validator.New()

// parseIDParam reads a chi URL parameter as a numeric ID
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// normalizeOptionalURL treats blank URLs as absent
func normalizeOptionalURL(u *string) *string {
	if u == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*u)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func checkRanges(minPlayers, maxPlayers, minPlaytime, maxPlaytime *int) string {
	if minPlayers != nil && maxPlayers != nil && *maxPlayers < *minPlayers {
		return "max_players must be greater than or equal to min_players"
	}
	if minPlaytime != nil && maxPlaytime != nil && *maxPlaytime < *minPlaytime {
		return "max_playtime must be greater than or equal to min_playtime"
	}
	return ""
}

type GameHandler struct {
	Collection *services.CollectionService
}

func NewGameHandler(collection *services.CollectionService) *GameHandler {
	return &GameHandler{Collection: collection}
}

type createGameRequest struct {
	Name             string   `json:"name" validate:"required"`
	BGGID            *int64   `json:"bgg_id"`
	Status           string   `json:"status" validate:"omitempty,oneof=owned wishlist sold"`
	YearPublished    *int     `json:"year_published"`
	MinPlayers       *int     `json:"min_players" validate:"omitempty,gte=1"`
	MaxPlayers       *int     `json:"max_players" validate:"omitempty,gte=1"`
	MinPlaytime      *int     `json:"min_playtime" validate:"omitempty,gte=0"`
	MaxPlaytime      *int     `json:"max_playtime" validate:"omitempty,gte=0"`
	Difficulty       *float64 `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	Description      *string  `json:"description"`
	ImageURL         *string  `json:"image_url"`
	ThumbnailURL     *string  `json:"thumbnail_url"`
	Categories       []string `json:"categories"`
	Mechanics        []string `json:"mechanics"`
	Designers        []string `json:"designers"`
	Publishers       []string `json:"publishers"`
	Labels           []string `json:"labels"`
	PurchaseDate     *string  `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice    *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	PurchaseLocation *string  `json:"purchase_location"`
	UserRating       *float64 `json:"user_rating" validate:"omitempty,gte=1,lte=10"`
	UserNotes        *string  `json:"user_notes"`
}

func (req *createGameRequest) toModel() *models.Game {
	return &models.Game{
		Name:             strings.TrimSpace(req.Name),
		BGGID:            req.BGGID,
		Status:           req.Status,
		YearPublished:    req.YearPublished,
		MinPlayers:       req.MinPlayers,
		MaxPlayers:       req.MaxPlayers,
		MinPlaytime:      req.MinPlaytime,
		MaxPlaytime:      req.MaxPlaytime,
		Difficulty:       req.Difficulty,
		Description:      req.Description,
		ImageURL:         normalizeOptionalURL(req.ImageURL),
		ThumbnailURL:     normalizeOptionalURL(req.ThumbnailURL),
		Categories:       datatypes.JSONSlice[string](req.Categories),
		Mechanics:        datatypes.JSONSlice[string](req.Mechanics),
		Designers:        datatypes.JSONSlice[string](req.Designers),
		Publishers:       datatypes.JSONSlice[string](req.Publishers),
		Labels:           datatypes.JSONSlice[string](req.Labels),
		PurchaseDate:     req.PurchaseDate,
		PurchasePrice:    req.PurchasePrice,
		PurchaseLocation: req.PurchaseLocation,
		UserRating:       req.UserRating,
		UserNotes:        req.UserNotes,
	}
}

// CreateGame handles POST /api/games
func (gh *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "name cannot be empty")
		return
	}
	if detail := checkRanges(req.MinPlayers, req.MaxPlayers, req.MinPlaytime, req.MaxPlaytime); detail != "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", detail)
		return
	}

	game := req.toModel()
	if err := gh.Collection.CreateGame(game); err != nil {
		log.Printf("Error creating game '%s': %v", game.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to create game")
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/games with optional search, sort_by, and
// sort_dir query parameters. Unknown sort fields fall back to the default
// name ordering.
func (gh *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	games, err := gh.Collection.ListGames(query.Get("search"), query.Get("sort_by"), query.Get("sort_dir"))
	if err != nil {
		log.Printf("Error listing games: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to retrieve games")
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/games/{gameID}
func (gh *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	game, err := gh.Collection.GetGame(gameID)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// UpdateGame handles PATCH /api/games/{gameID}. Only fields present in the
// body are touched; a present null clears the field.
func (gh *GameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "failed to read request body")
		return
	}
	patch, detail := buildGamePatch(body)
	if detail != "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", detail)
		return
	}

	game, err := gh.Collection.UpdateGame(gameID, patch)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/games/{gameID}
func (gh *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	if err := gh.Collection.DeleteGame(gameID); err != nil {
		writeServiceError(w, err, "game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateGameRequest struct {
	Name             *string   `json:"name"`
	BGGID            *int64    `json:"bgg_id"`
	Status           *string   `json:"status" validate:"omitempty,oneof=owned wishlist sold"`
	YearPublished    *int      `json:"year_published"`
	MinPlayers       *int      `json:"min_players" validate:"omitempty,gte=1"`
	MaxPlayers       *int      `json:"max_players" validate:"omitempty,gte=1"`
	MinPlaytime      *int      `json:"min_playtime" validate:"omitempty,gte=0"`
	MaxPlaytime      *int      `json:"max_playtime" validate:"omitempty,gte=0"`
	Difficulty       *float64  `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	Description      *string   `json:"description"`
	ImageURL         *string   `json:"image_url"`
	ThumbnailURL     *string   `json:"thumbnail_url"`
	Categories       *[]string `json:"categories"`
	Mechanics        *[]string `json:"mechanics"`
	Designers        *[]string `json:"designers"`
	Publishers       *[]string `json:"publishers"`
	Labels           *[]string `json:"labels"`
	PurchaseDate     *string   `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice    *float64  `json:"purchase_price" validate:"omitempty,gte=0"`
	PurchaseLocation *string   `json:"purchase_location"`
	UserRating       *float64  `json:"user_rating" validate:"omitempty,gte=1,lte=10"`
	UserNotes        *string   `json:"user_notes"`
}

func toJSONSlice(v *[]string) datatypes.JSONSlice[string] {
	if v == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](*v)
}

// buildGamePatch turns a PATCH body into a column update map. The body is
// decoded twice: once into a raw map to learn which keys were provided, once
// into the typed request for values and validation. Derived and read-only
// fields are ignored when sent.
func buildGamePatch(body []byte) (services.GamePatch, string) {
	patch := services.GamePatch{Updates: make(map[string]interface{})}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, "invalid request body: " + err.Error()
	}
	var req updateGameRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return patch, "invalid request body: " + err.Error()
	}
	if err := validate.Struct(&req); err != nil {
		return patch, err.Error()
	}
	if detail := checkRanges(req.MinPlayers, req.MaxPlayers, req.MinPlaytime, req.MaxPlaytime); detail != "" {
		return patch, detail
	}

	has := func(key string) bool {
		_, ok := raw[key]
		return ok
	}

	if has("name") {
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			return patch, "name cannot be empty"
		}
		patch.Updates["name"] = strings.TrimSpace(*req.Name)
	}
	if has("status") {
		if req.Status == nil {
			return patch, "status cannot be null"
		}
		patch.Updates["status"] = *req.Status
	}
	if has("bgg_id") {
		patch.Updates["bgg_id"] = req.BGGID
	}
	if has("year_published") {
		patch.Updates["year_published"] = req.YearPublished
	}
	if has("min_players") {
		patch.Updates["min_players"] = req.MinPlayers
	}
	if has("max_players") {
		patch.Updates["max_players"] = req.MaxPlayers
	}
	if has("min_playtime") {
		patch.Updates["min_playtime"] = req.MinPlaytime
	}
	if has("max_playtime") {
		patch.Updates["max_playtime"] = req.MaxPlaytime
	}
	if has("difficulty") {
		patch.Updates["difficulty"] = req.Difficulty
	}
	if has("description") {
		patch.Updates["description"] = req.Description
	}
	if has("thumbnail_url") {
		patch.Updates["thumbnail_url"] = normalizeOptionalURL(req.ThumbnailURL)
	}
	if has("categories") {
		patch.Updates["categories"] = toJSONSlice(req.Categories)
	}
	if has("mechanics") {
		patch.Updates["mechanics"] = toJSONSlice(req.Mechanics)
	}
	if has("designers") {
		patch.Updates["designers"] = toJSONSlice(req.Designers)
	}
	if has("publishers") {
		patch.Updates["publishers"] = toJSONSlice(req.Publishers)
	}
	if has("labels") {
		patch.Updates["labels"] = toJSONSlice(req.Labels)
	}
	if has("purchase_date") {
		patch.Updates["purchase_date"] = req.PurchaseDate
	}
	if has("purchase_price") {
		patch.Updates["purchase_price"] = req.PurchasePrice
	}
	if has("purchase_location") {
		patch.Updates["purchase_location"] = req.PurchaseLocation
	}
	if has("user_rating") {
		patch.Updates["user_rating"] = req.UserRating
	}
	if has("user_notes") {
		patch.Updates["user_notes"] = req.UserNotes
	}
	if has("image_url") {
		patch.ImageURLSet = true
		patch.ImageURL = normalizeOptionalURL(req.ImageURL)
	}

	return patch, ""
}
