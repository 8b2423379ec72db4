package handlers

import (
	"net/http"
	"strconv"

	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/model"
	"github.com/smartfarmdiy/strawbydetet/internal/repository"
)

// RecentCapturesHandler serves the capture history, newest first. When the
// database failed to open at startup the repository is nil and history is
// reported as unavailable.
func RecentCapturesHandler(captures repository.CaptureRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if captures == nil {
			writeError(w, http.StatusServiceUnavailable, "Capture history unavailable")
			return
		}

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || err != nil {
			limit = 20
		}

		records, err := captures.GetRecent(limit)
		if err != nil {
			log.Error("Error querying captures: %v", err)
			writeError(w, http.StatusInternalServerError, "Unable to read capture history")
			return
		}
		if records == nil {
			records = []model.Capture{}
		}

		writeJSON(w, http.StatusOK, records)
	}
}
