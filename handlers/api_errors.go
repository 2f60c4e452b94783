package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/bgg"
	"github.com/camden-git/cardboardbackend/repository"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps the sentinel errors coming out of the service and
// repository layers onto the error envelope. Anything unrecognized is logged
// and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, attachments.ErrNotFound), errors.Is(err, bgg.ErrNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", resource+" not found")
	case errors.Is(err, attachments.ErrUnsupportedType):
		WriteAPIError(w, http.StatusBadRequest, "unsupported_type", "file type is not allowed for this attachment")
	case errors.Is(err, attachments.ErrTooLarge):
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "too_large", "uploaded file exceeds the size limit")
	case errors.Is(err, repository.ErrInvalidOrder):
		WriteAPIError(w, http.StatusBadRequest, "invalid_order", err.Error())
	case errors.Is(err, bgg.ErrStillProcessing):
		WriteAPIError(w, http.StatusServiceUnavailable, "bgg_unavailable", "BoardGameGeek is still preparing the response, try again shortly")
	case errors.Is(err, bgg.ErrUpstream):
		WriteAPIError(w, http.StatusBadGateway, "bgg_error", "BoardGameGeek request failed")
	default:
		log.Printf("Error handling %s request: %v", resource, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
