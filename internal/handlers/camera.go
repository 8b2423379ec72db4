package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

type cameraFrameRequest struct {
	Image string `json:"image"`
}

// CameraFeedHandler handles one live camera frame per request: decode the
// data-URL body, detect, count, annotate, publish to the shared frame slot
// and return the annotated JPEG synchronously.
func CameraFeedHandler(detector *detect.Service, cameraAgg *stats.Aggregator, slot *stream.FrameSlot, hub *ws.Hub, m *metrics.Metrics, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cameraFrameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
			writeError(w, http.StatusBadRequest, "No image data provided")
			return
		}

		// Accept "data:image/jpeg;base64,..." or bare base64.
		payload := req.Image
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}

		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			log.Error("Failed to decode camera frame: %v", err)
			writeError(w, http.StatusBadRequest, "Failed to decode camera frame")
			return
		}

		if !detector.Ready() {
			writeError(w, http.StatusServiceUnavailable, errModelUnavailable)
			return
		}

		annotated, detections, err := detector.ProcessFrame(raw)
		if err != nil {
			log.Error("Error processing camera frame: %v", err)
			m.DetectionErrors.Add(1)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing camera frame: %v", err))
			return
		}

		for _, det := range detections {
			cameraAgg.Record(det.Label)
		}
		m.CameraFramesHandled.Add(1)
		m.DetectionsTotal.Add(uint64(len(detections)))

		// Same slot as the video worker; last writer wins.
		slot.Publish(annotated)
		hub.BroadcastPercentages("camera", cameraAgg.Snapshot())

		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(annotated)
	}
}
