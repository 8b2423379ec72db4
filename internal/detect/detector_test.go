package detect

import (
	"path/filepath"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	tempDir := t.TempDir()
	cfg := &config.Config{
		ModelPath:       filepath.Join(tempDir, "missing.pb"),
		ModelConfigPath: filepath.Join(tempDir, "missing.pbtxt"),
		ConfidenceMin:   0.5,
		JPEGQuality:     90,
	}
	return NewService(cfg, logger.New(filepath.Join(tempDir, "logs")))
}

func TestNewService_MissingModelNotReady(t *testing.T) {
	s := setupService(t)

	if s.Ready() {
		t.Error("Service with missing model files must not report ready")
	}
}

func TestLabels_FixedVocabulary(t *testing.T) {
	s := setupService(t)

	labels := s.Labels()
	if len(labels) != 7 {
		t.Fatalf("Expected 7 classes, got %d", len(labels))
	}
	if labels[4] != "Ripe" || labels[5] != "Unripe" {
		t.Errorf("Unexpected label order: %v", labels)
	}
}

func TestDetect_FailsWhenNotReady(t *testing.T) {
	s := setupService(t)

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	if _, err := s.Detect(img); err == nil {
		t.Error("Detect without a loaded network should fail")
	}
}

func TestReady_ConcurrentWithClose(t *testing.T) {
	s := setupService(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Ready()
			}
		}()
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	wg.Wait()

	if s.Ready() {
		t.Error("Service must not report ready after Close")
	}
}

func TestProcessFrame_RejectsGarbageBytes(t *testing.T) {
	s := setupService(t)

	if _, _, err := s.ProcessFrame([]byte("definitely not an image")); err == nil {
		t.Error("ProcessFrame should reject undecodable input")
	}
}
