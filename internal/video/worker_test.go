package video

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/stream"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

func setupWorker(t *testing.T) (*Worker, *stats.Aggregator, *stream.FrameSlot, string) {
	t.Helper()

	tempDir := t.TempDir()
	cfg := &config.Config{
		ModelPath:       filepath.Join(tempDir, "missing.pb"),
		ModelConfigPath: filepath.Join(tempDir, "missing.pbtxt"),
		UploadDirectory: tempDir,
		LogDirectory:    filepath.Join(tempDir, "logs"),
		FrameWidth:      640,
		FrameHeight:     480,
		FrameIntervalMs: 1,
		QueuePollMs:     1,
	}

	log := logger.New(cfg.LogDirectory)
	detector := detect.NewService(cfg, log)
	agg := stats.NewAggregator(detector.Labels())
	slot := stream.NewFrameSlot()
	hub := ws.NewHub(log)
	m := metrics.New()

	worker := NewWorker(cfg, detector, agg, slot, hub, m, nil, log)
	return worker, agg, slot, tempDir
}

func stageFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not a real video"), 0644); err != nil {
		t.Fatalf("Failed to stage file: %v", err)
	}
	return path
}

func TestSubmit_SetsPending(t *testing.T) {
	worker, agg, _, dir := setupWorker(t)
	path := stageFile(t, dir, "a.mp4")

	agg.Record("Ripe")

	if replaced := worker.Submit(path); replaced {
		t.Error("First submit should not report a replacement")
	}
	if worker.Pending() != path {
		t.Errorf("Expected pending %s, got %s", path, worker.Pending())
	}
	if agg.Total() != 0 {
		t.Error("Submit should reset the video counters")
	}

	complete, percentages := worker.FinalResult()
	if complete {
		t.Error("Submit should clear the completion flag")
	}
	for label, pct := range percentages {
		if pct != 0 {
			t.Errorf("Expected zero percentage for %s, got %f", label, pct)
		}
	}
}

func TestSubmit_LastWriterWins(t *testing.T) {
	worker, _, _, dir := setupWorker(t)
	first := stageFile(t, dir, "first.mp4")
	second := stageFile(t, dir, "second.mp4")

	worker.Submit(first)
	if replaced := worker.Submit(second); !replaced {
		t.Error("Second submit should report a replacement")
	}

	if worker.Pending() != second {
		t.Errorf("Expected pending %s, got %s", second, worker.Pending())
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("Replaced video file should be deleted")
	}
}

func TestStop_ClearsPendingAndState(t *testing.T) {
	worker, agg, slot, dir := setupWorker(t)
	path := stageFile(t, dir, "a.mp4")

	worker.Submit(path)
	agg.Record("Ripe")
	slot.Publish([]byte("frame"))

	if err := worker.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if worker.Pending() != "" {
		t.Error("Stop should clear the work slot")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Stop should delete the staged video")
	}
	if agg.Total() != 0 {
		t.Error("Stop should reset the video counters")
	}
	if _, ok := slot.Latest(); ok {
		t.Error("Stop should drop the published frame")
	}

	complete, percentages := worker.FinalResult()
	if complete {
		t.Error("Stop should clear the completion flag")
	}
	for label, pct := range percentages {
		if pct != 0 {
			t.Errorf("Expected zero percentage for %s after stop, got %f", label, pct)
		}
	}
}

func TestStop_WithoutPendingVideo(t *testing.T) {
	worker, _, _, _ := setupWorker(t)

	if err := worker.Stop(); err != nil {
		t.Fatalf("Stop with empty slot failed: %v", err)
	}
}

func TestFinalResult_ZeroBeforeAnyVideo(t *testing.T) {
	worker, _, _, _ := setupWorker(t)

	complete, percentages := worker.FinalResult()
	if complete {
		t.Error("Expected complete=false before any video")
	}
	if len(percentages) == 0 {
		t.Error("Expected a zeroed percentage map, got none")
	}
}

func TestRun_DiscardsUnreadableVideo(t *testing.T) {
	worker, _, _, dir := setupWorker(t)
	path := stageFile(t, dir, "garbage.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	worker.Submit(path)

	deadline := time.Now().Add(5 * time.Second)
	for worker.Pending() != "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if worker.Pending() != "" {
		t.Fatal("Worker did not clear the slot for an unreadable video")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Unreadable video file should be deleted")
	}
}
