package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/services"
)

type GalleryHandler struct {
	Attachments *services.AttachmentService
}

func NewGalleryHandler(attachments *services.AttachmentService) *GalleryHandler {
	return &GalleryHandler{Attachments: attachments}
}

// ListImages handles GET /api/games/{gameID}/images
func (gh *GalleryHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	images, err := gh.Attachments.ListGallery(gameID)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	if images == nil {
		images = []models.GameImage{}
	}
	writeJSON(w, http.StatusOK, images)
}

// UploadImage handles POST /api/games/{gameID}/images with a multipart
// "file" field
func (gh *GalleryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	image, err := gh.Attachments.UploadGalleryImage(gameID, header.Filename, header.Size, file)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

// ServeImage handles GET /api/games/{gameID}/images/{imageID}/file
func (gh *GalleryHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	imageID, err := parseIDParam(r, "imageID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid image ID")
		return
	}

	path, err := gh.Attachments.GalleryFile(gameID, imageID)
	if err != nil {
		writeServiceError(w, err, "image")
		return
	}
	http.ServeFile(w, r, path)
}

// DeleteImage handles DELETE /api/games/{gameID}/images/{imageID}
func (gh *GalleryHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	imageID, err := parseIDParam(r, "imageID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid image ID")
		return
	}

	if err := gh.Attachments.DeleteGalleryImage(gameID, imageID); err != nil {
		writeServiceError(w, err, "image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderImages handles PATCH /api/games/{gameID}/images/reorder with a body
// of {"order": [imageID, ...]} listing every gallery image exactly once
func (gh *GalleryHandler) ReorderImages(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}

	var req struct {
		Order []int64 `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid request body: "+err.Error())
		return
	}

	images, err := gh.Attachments.ReorderGallery(gameID, req.Order)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	if images == nil {
		images = []models.GameImage{}
	}
	writeJSON(w, http.StatusOK, images)
}
