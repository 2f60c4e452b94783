package handlers

import (
	"log"
	"net/http"

	"github.com/camden-git/cardboardbackend/repository"
)

type StatsHandler struct {
	Stats repository.StatsRepositoryInterface
}

func NewStatsHandler(stats repository.StatsRepositoryInterface) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

// GetStats handles GET /api/stats. The report is recomputed on every request.
func (sh *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	report, err := sh.Stats.Compute()
	if err != nil {
		log.Printf("Error computing collection stats: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
