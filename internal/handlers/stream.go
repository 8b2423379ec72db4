package handlers

import (
	"net/http"
	"time"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
)

// VideoFeedHandler streams the shared frame slot as MJPEG.
func VideoFeedHandler(cfg *config.Config, slot *stream.FrameSlot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream.WriteMJPEG(w, r, slot, time.Duration(cfg.StreamPollMs)*time.Millisecond)
	}
}
