package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/services"
)

// AttachmentHandler serves and mutates the files attached to a game: the
// cover image, its thumbnail, the instructions document, and the 3D scans.
type AttachmentHandler struct {
	Attachments *services.AttachmentService
}

func NewAttachmentHandler(attachmentSvc *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{Attachments: attachmentSvc}
}

// GetCover handles GET /api/games/{gameID}/image
func (ah *AttachmentHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	path, err := ah.Attachments.CoverFile(gameID)
	if err != nil {
		writeServiceError(w, err, "cover image")
		return
	}
	http.ServeFile(w, r, path)
}

// UploadCover handles POST /api/games/{gameID}/image with a multipart "file"
// field and responds with the updated game
func (ah *AttachmentHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
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

	game, err := ah.Attachments.UploadCover(gameID, header.Filename, header.Size, file)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteCover handles DELETE /api/games/{gameID}/image
func (ah *AttachmentHandler) DeleteCover(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	if _, err := ah.Attachments.DeleteCover(gameID); err != nil {
		writeServiceError(w, err, "game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetThumbnail handles GET /api/games/{gameID}/thumbnail
func (ah *AttachmentHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	path, err := ah.Attachments.ThumbnailFile(gameID)
	if err != nil {
		writeServiceError(w, err, "thumbnail")
		return
	}
	http.ServeFile(w, r, path)
}

// GetInstructions handles GET /api/games/{gameID}/instructions. PDFs render
// inline, plain text downloads as an attachment.
func (ah *AttachmentHandler) GetInstructions(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	path, filename, err := ah.Attachments.InstructionsFile(gameID)
	if err != nil {
		writeServiceError(w, err, "instructions")
		return
	}

	if strings.ToLower(filepath.Ext(filename)) == ".pdf" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	http.ServeFile(w, r, path)
}

// UploadInstructions handles POST /api/games/{gameID}/instructions and
// responds with the updated game
func (ah *AttachmentHandler) UploadInstructions(w http.ResponseWriter, r *http.Request) {
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

	game, err := ah.Attachments.UploadInstructions(gameID, header.Filename, header.Size, file)
	if err != nil {
		writeServiceError(w, err, "game")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteInstructions handles DELETE /api/games/{gameID}/instructions
func (ah *AttachmentHandler) DeleteInstructions(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
		return
	}
	if _, err := ah.Attachments.DeleteInstructions(gameID); err != nil {
		writeServiceError(w, err, "game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scanContentType(kind attachments.Kind) string {
	if kind == attachments.KindScanGLB {
		return "model/gltf-binary"
	}
	return "model/vnd.usdz+zip"
}

// ServeScan returns a handler for GET on a scan route in the given format
func (ah *AttachmentHandler) ServeScan(kind attachments.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := parseIDParam(r, "gameID")
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
			return
		}
		path, filename, err := ah.Attachments.ScanFile(gameID, kind)
		if err != nil {
			writeServiceError(w, err, "scan")
			return
		}
		w.Header().Set("Content-Type", scanContentType(kind))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		http.ServeFile(w, r, path)
	}
}

// UploadScan returns a handler for POST on a scan route in the given format;
// it responds with the updated game
func (ah *AttachmentHandler) UploadScan(kind attachments.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		game, err := ah.Attachments.UploadScan(gameID, kind, header.Filename, header.Size, file)
		if err != nil {
			writeServiceError(w, err, "game")
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

// DeleteScan returns a handler for DELETE on a scan route in the given format
func (ah *AttachmentHandler) DeleteScan(kind attachments.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := parseIDParam(r, "gameID")
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "invalid game ID")
			return
		}
		if _, err := ah.Attachments.DeleteScan(gameID, kind); err != nil {
			writeServiceError(w, err, "game")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
