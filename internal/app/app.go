package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/repository"
	"github.com/smartfarmdiy/strawbydetet/internal/repository/sqlite"
	"github.com/smartfarmdiy/strawbydetet/internal/routes"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
	"github.com/smartfarmdiy/strawbydetet/internal/video"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	detector  *detect.Service
	videoAgg  *stats.Aggregator
	cameraAgg *stats.Aggregator
	slot      *stream.FrameSlot
	hub       *ws.Hub
	metrics   *metrics.Metrics
	captures  repository.CaptureRepository
	db        *sqlite.DB
	worker    *video.Worker
}

func NewApp() *App {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	if err := os.MkdirAll(cfg.UploadDirectory, 0755); err != nil {
		log.Error("Failed to create upload directory: %v", err)
	}
	if err := os.MkdirAll(cfg.StaticDirectory, 0755); err != nil {
		log.Error("Failed to create static directory: %v", err)
	}

	detector := detect.NewService(cfg, log)

	// Capture history is best-effort: without a database the server still
	// serves detection, it just keeps no history.
	var captures repository.CaptureRepository
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Warning("Capture history disabled: %v", err)
	} else {
		captures = sqlite.NewCaptureRepository(db)
	}

	videoAgg := stats.NewAggregator(detector.Labels())
	cameraAgg := stats.NewAggregator(detector.Labels())
	slot := stream.NewFrameSlot()
	hub := ws.NewHub(log)
	m := metrics.New()

	worker := video.NewWorker(cfg, detector, videoAgg, slot, hub, m, captures, log)

	return &App{
		config:    cfg,
		logger:    log,
		detector:  detector,
		videoAgg:  videoAgg,
		cameraAgg: cameraAgg,
		slot:      slot,
		hub:       hub,
		metrics:   m,
		captures:  captures,
		db:        db,
		worker:    worker,
	}
}

func (a *App) Run() error {
	// Background services
	go a.hub.Run()
	go a.worker.Run(context.Background())

	router := routes.SetupRoutes(routes.Deps{
		Config:    a.config,
		Detector:  a.detector,
		Worker:    a.worker,
		VideoAgg:  a.videoAgg,
		CameraAgg: a.cameraAgg,
		Slot:      a.slot,
		Hub:       a.hub,
		Metrics:   a.metrics,
		Captures:  a.captures,
		Logger:    a.logger,
	})

	a.logger.Info("Strawberry detection server listening on :%d", a.config.Port)
	a.logger.Info("Model: %s (ready: %v)", a.config.ModelPath, a.detector.Ready())
	a.logger.Info("Uploads: %s", a.config.UploadDirectory)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Close releases the detector and the database.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.detector.Close()
}
