// Package video runs the background ingest worker that turns an uploaded
// video into detections, annotated frames and a final percentage snapshot.
package video

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/model"
	"github.com/smartfarmdiy/strawbydetet/internal/repository"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

// Worker owns the single-slot work queue of pending video paths and the
// completion state of the last finished video. One Worker runs per process.
//
// The slot is last-writer-wins: submitting a second video while one is in
// progress replaces the pending path and the worker abandons the first one
// at its next frame boundary.
type Worker struct {
	cfg      *config.Config
	detector *detect.Service
	agg      *stats.Aggregator
	slot     *stream.FrameSlot
	hub      *ws.Hub
	metrics  *metrics.Metrics
	captures repository.CaptureRepository
	logger   *logger.Logger

	mu       sync.Mutex
	pending  string // "" means the queue slot is empty
	complete bool
	final    map[string]float64
}

func NewWorker(cfg *config.Config, detector *detect.Service, agg *stats.Aggregator, slot *stream.FrameSlot, hub *ws.Hub, m *metrics.Metrics, captures repository.CaptureRepository, log *logger.Logger) *Worker {
	return &Worker{
		cfg:      cfg,
		detector: detector,
		agg:      agg,
		slot:     slot,
		hub:      hub,
		metrics:  m,
		captures: captures,
		logger:   log,
	}
}

// Submit places path into the work slot, resetting the video counters and
// the completion flag. Returns true if a pending video was replaced.
func (w *Worker) Submit(path string) bool {
	w.mu.Lock()
	replaced := w.pending
	w.pending = path
	w.complete = false
	w.final = nil
	w.mu.Unlock()

	w.agg.Reset()

	if replaced != "" && replaced != path {
		w.logger.Warning("Replacing pending video %s with %s", replaced, path)
		if err := os.Remove(replaced); err != nil && !os.IsNotExist(err) {
			w.logger.Error("Error removing replaced video %s: %v", replaced, err)
		}
		return true
	}
	return false
}

// Pending returns the path currently in the work slot, or "".
func (w *Worker) Pending() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Stop clears the work slot, deletes the staged file, resets the video
// counters, drops the published frame and clears the completion state.
// An in-progress video is abandoned at the worker's next frame boundary.
func (w *Worker) Stop() error {
	w.mu.Lock()
	path := w.pending
	w.pending = ""
	w.complete = false
	w.final = nil
	w.mu.Unlock()

	w.agg.Reset()
	w.slot.Clear()

	if path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Error("Error removing video %s: %v", path, err)
			return err
		}
	}
	return nil
}

// FinalResult returns the completion flag and the frozen final snapshot.
// Before any video has finished the percentages are all zero.
func (w *Worker) FinalResult() (bool, map[string]float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.final == nil {
		return w.complete, stats.ZeroPercentages(w.agg.Labels())
	}

	percentages := make(map[string]float64, len(w.final))
	for label, pct := range w.final {
		percentages[label] = pct
	}
	return w.complete, percentages
}

// Run polls the work slot until ctx is canceled. It never busy-spins: an
// empty slot is re-checked every QueuePollMs.
func (w *Worker) Run(ctx context.Context) {
	idle := time.Duration(w.cfg.QueuePollMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path := w.Pending()
		if path == "" {
			time.Sleep(idle)
			continue
		}

		w.processVideo(ctx, path)
	}
}

// processVideo decodes path frame by frame until end of stream, the path is
// removed from the slot, or ctx is canceled.
func (w *Worker) processVideo(ctx context.Context, path string) {
	w.logger.Info("Processing video: %s", path)

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		w.logger.Error("Error: could not open video %s: %v", path, err)
		w.discard(path)
		return
	}
	defer capture.Close()

	if !capture.IsOpened() {
		w.logger.Error("Error: could not open video %s", path)
		w.discard(path)
		return
	}

	frame := gocv.NewMat()
	defer frame.Close()

	size := image.Pt(w.cfg.FrameWidth, w.cfg.FrameHeight)
	pace := time.Duration(w.cfg.FrameIntervalMs) * time.Millisecond
	frameCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Stop or a replacing Submit took the path out of the slot.
		if w.Pending() != path {
			w.logger.Info("Video %s abandoned after %d frames", path, frameCount)
			return
		}

		if ok := capture.Read(&frame); !ok {
			w.logger.Info("End of video or read error")
			break
		}
		if frame.Empty() {
			continue
		}

		gocv.Resize(frame, &frame, size, 0, 0, gocv.InterpolationLinear)
		frameCount++

		detections, err := w.detector.Detect(frame)
		if err != nil {
			// Local recovery: skip the frame, keep the stream going.
			w.logger.Error("Model prediction failed: %v", err)
			w.metrics.VideoFramesSkipped.Add(1)
			w.metrics.DetectionErrors.Add(1)
			continue
		}

		for _, det := range detections {
			w.agg.Record(det.Label)
		}
		w.metrics.DetectionsTotal.Add(uint64(len(detections)))

		if err := w.detector.Annotate(&frame, detections); err != nil {
			w.logger.Error("Failed to annotate frame: %v", err)
			continue
		}

		encoded, err := w.detector.EncodeJPEG(frame)
		if err != nil {
			w.logger.Error("Failed to encode frame: %v", err)
			continue
		}

		w.slot.Publish(encoded)
		w.metrics.VideoFramesProcessed.Add(1)

		if w.cfg.BroadcastEveryNth > 0 && frameCount%w.cfg.BroadcastEveryNth == 0 {
			w.hub.BroadcastPercentages("video", w.agg.Snapshot())
		}

		// Self-throttle to roughly the configured frame rate.
		time.Sleep(pace)
	}

	w.logger.Info("Video processing complete: %d frames processed", frameCount)
	w.finish(path)
}

// finish freezes the final percentages, resets the live counters, persists
// a capture record, deletes the source file and marks processing complete.
func (w *Worker) finish(path string) {
	final := w.agg.Drain()

	if w.captures != nil {
		capture := &model.Capture{
			Source:   "video",
			Filename: filepath.Base(path),
		}
		if _, err := w.captures.Insert(capture); err != nil {
			w.logger.Error("Failed to persist video capture: %v", err)
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Error("Error removing video %s: %v", path, err)
	}

	w.mu.Lock()
	if w.pending == path {
		w.pending = ""
		w.complete = true
		w.final = final
	}
	w.mu.Unlock()

	w.hub.BroadcastPercentages("video", final)
	w.logger.Info("Final percentages: %v", final)
}

// discard deletes an unreadable source and frees the work slot.
func (w *Worker) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Error("Error removing video %s: %v", path, err)
	}
	w.clearPendingIf(path)
}

func (w *Worker) clearPendingIf(path string) {
	w.mu.Lock()
	if w.pending == path {
		w.pending = ""
	}
	w.mu.Unlock()
}
