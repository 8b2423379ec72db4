package handlers

import (
	"net/http"

	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/video"
)

// DetectionCountsHandler serves the running video percentage snapshot.
func DetectionCountsHandler(videoAgg *stats.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, videoAgg.Snapshot())
	}
}

// CameraCountsHandler serves the running camera percentage snapshot.
func CameraCountsHandler(cameraAgg *stats.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cameraAgg.Snapshot())
	}
}

// FinalCountsHandler serves the completion flag and the percentage snapshot
// frozen when the last video finished.
func FinalCountsHandler(worker *video.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		complete, percentages := worker.FinalResult()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"complete":    complete,
			"percentages": percentages,
		})
	}
}
