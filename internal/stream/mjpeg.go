package stream

import (
	"net/http"
	"time"
)

const frameBoundary = "--frame\r\nContent-Type: image/jpeg\r\n\r\n"

// WriteMJPEG streams the slot's frames to w as a multipart/x-mixed-replace
// response until the client disconnects. When the slot is empty it waits
// pollInterval and retries; no deduplication is done, so a slow producer
// means the same frame is emitted more than once.
func WriteMJPEG(w http.ResponseWriter, r *http.Request, slot *FrameSlot, pollInterval time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, ok := slot.Latest()
		if !ok {
			time.Sleep(pollInterval)
			continue
		}

		if _, err := w.Write([]byte(frameBoundary)); err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return
		}
		flusher.Flush()

		time.Sleep(pollInterval)
	}
}
