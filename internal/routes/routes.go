package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/handlers"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/repository"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
	"github.com/smartfarmdiy/strawbydetet/internal/video"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

// Deps carries everything the route table wires into handlers.
type Deps struct {
	Config    *config.Config
	Detector  *detect.Service
	Worker    *video.Worker
	VideoAgg  *stats.Aggregator
	CameraAgg *stats.Aggregator
	Slot      *stream.FrameSlot
	Hub       *ws.Hub
	Metrics   *metrics.Metrics
	Captures  repository.CaptureRepository
	Logger    *logger.Logger
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, path+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving and API endpoints.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Static files (annotated images land here)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(d.Config.StaticDirectory))))

	// Detection endpoints
	mux.HandleFunc("/upload_image", handlers.UploadImageHandler(d.Config, d.Detector, d.Captures, d.Metrics, d.Logger))
	mux.HandleFunc("/upload_video", handlers.UploadVideoHandler(d.Config, d.Detector, d.Worker, d.Logger))
	mux.HandleFunc("/video_feed", handlers.VideoFeedHandler(d.Config, d.Slot))
	mux.HandleFunc("/camera_feed", handlers.CameraFeedHandler(d.Detector, d.CameraAgg, d.Slot, d.Hub, d.Metrics, d.Logger))

	// Polling endpoints
	mux.HandleFunc("/detection_counts", handlers.DetectionCountsHandler(d.VideoAgg))
	mux.HandleFunc("/camera_counts", handlers.CameraCountsHandler(d.CameraAgg))
	mux.HandleFunc("/final_counts", handlers.FinalCountsHandler(d.Worker))

	// Control endpoints
	mux.HandleFunc("/stop_stream", handlers.StopStreamHandler(d.Worker, d.CameraAgg, d.Logger))
	mux.HandleFunc("/stop_camera", handlers.StopCameraHandler(d.CameraAgg, d.Logger))

	// Live percentage push + capture history
	mux.HandleFunc("/api/live", handlers.LiveViewHandler(d.Hub, d.Logger))
	mux.HandleFunc("/api/captures", handlers.RecentCapturesHandler(d.Captures, d.Logger))

	// Observability
	mux.Handle("/metrics", d.Metrics.Handler())

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowLogsHandler(d.Logger, "info.log"))
	mux.HandleFunc("/logs/warning", handlers.ShowLogsHandler(d.Logger, "warning.log"))
	mux.HandleFunc("/logs/error", handlers.ShowLogsHandler(d.Logger, "error.log"))
	mux.HandleFunc("/logs/info/clear", handlers.ClearLogsHandler(d.Logger, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearLogsHandler(d.Logger, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handlers.ClearLogsHandler(d.Logger, "error.log"))

	// Automatic HTML handler mapping, for example /settings -> static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(d.Config.StaticDirectory))

	return mux
}
