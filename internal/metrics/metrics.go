// Package metrics exposes frame-processing counters over Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application counters.
type Metrics struct {
	VideoFramesProcessed atomic.Uint64
	VideoFramesSkipped   atomic.Uint64
	CameraFramesHandled  atomic.Uint64
	ImagesProcessed      atomic.Uint64
	DetectionsTotal      atomic.Uint64
	DetectionErrors      atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with its Prometheus collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_video_frames_processed_total",
			Help: "Total video frames run through the detector",
		},
		func() float64 { return float64(m.VideoFramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_video_frames_skipped_total",
			Help: "Total video frames skipped after a detection failure",
		},
		func() float64 { return float64(m.VideoFramesSkipped.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_camera_frames_handled_total",
			Help: "Total camera frames handled by the live endpoint",
		},
		func() float64 { return float64(m.CameraFramesHandled.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_images_processed_total",
			Help: "Total one-shot image uploads processed",
		},
		func() float64 { return float64(m.ImagesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_detections_total",
			Help: "Total detections counted across all sources",
		},
		func() float64 { return float64(m.DetectionsTotal.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "detector_detection_errors_total",
			Help: "Total failed detector invocations",
		},
		func() float64 { return float64(m.DetectionErrors.Load()) },
	))
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
