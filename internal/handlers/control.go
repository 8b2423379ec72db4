package handlers

import (
	"fmt"
	"net/http"

	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/video"
)

// StopStreamHandler clears the work slot, deletes any staged video and
// resets both counter tables.
func StopStreamHandler(worker *video.Worker, cameraAgg *stats.Aggregator, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := worker.Stop(); err != nil {
			log.Error("Error stopping stream: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error stopping stream: %v", err))
			return
		}
		cameraAgg.Reset()

		log.Info("Stream stopped and counts reset")
		writeSuccess(w, "Stream stopped")
	}
}

// StopCameraHandler resets the camera counter table.
func StopCameraHandler(cameraAgg *stats.Aggregator, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cameraAgg.Reset()

		log.Info("Camera stopped and counts reset")
		writeSuccess(w, "Camera stopped")
	}
}
