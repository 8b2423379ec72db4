// Package detect wraps the pre-trained strawberry disease detection network
// behind a small service: decode, detect, annotate, encode.
package detect

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/model"
)

// ClassNames is the fixed label vocabulary of the strawberry model, indexed
// by the network's class id.
var ClassNames = []string{
	"Anthracnose Fruit Rot",
	"Gray Mold",
	"Powdery Mildew Fruit",
	"Powdery Mildew Leaf",
	"Ripe",
	"Unripe",
	"Rotten",
}

var boxColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}

// Service runs object detection and annotation. Forward passes are
// serialized with a mutex because gocv.Net is not safe for concurrent use.
type Service struct {
	net           gocv.Net
	labels        []string
	modelPath     string
	configPath    string
	confidenceMin float64
	jpegQuality   int
	ready         bool
	mu            sync.Mutex
	logger        *logger.Logger
}

// NewService loads the network. A missing or unloadable model is not fatal:
// the service comes up with Ready() == false and every detection call
// reports the model as unavailable.
func NewService(cfg *config.Config, log *logger.Logger) *Service {
	s := &Service{
		labels:        ClassNames,
		modelPath:     cfg.ModelPath,
		configPath:    cfg.ModelConfigPath,
		confidenceMin: cfg.ConfidenceMin,
		jpegQuality:   cfg.JPEGQuality,
		logger:        log,
	}

	if err := s.initializeNet(); err != nil {
		s.logger.Warning("Could not initialize detection network: %v", err)
		return s
	}

	s.ready = true
	return s
}

// initializeNet loads the network from the model and config files.
func (s *Service) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized successfully")
	return nil
}

// Ready reports whether the network loaded at startup.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Labels returns the fixed label vocabulary.
func (s *Service) Labels() []string {
	return s.labels
}

// Detect runs one forward pass over img and returns the detections above
// the confidence threshold. Class ids outside the vocabulary are dropped.
func (s *Service) Detect(img gocv.Mat) ([]model.Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, fmt.Errorf("detection network not initialized")
	}

	blob := gocv.BlobFromImage(img, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	var results []model.Detection

	// Each output row is [batch, classID, confidence, left, top, right, bottom].
	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := outputReshaped.GetFloatAt(i, 2)
		if float64(confidence) < s.confidenceMin {
			continue
		}

		classID := int(outputReshaped.GetFloatAt(i, 1))
		if classID < 0 || classID >= len(s.labels) {
			continue
		}

		x := int(outputReshaped.GetFloatAt(i, 3) * float32(img.Cols()))
		y := int(outputReshaped.GetFloatAt(i, 4) * float32(img.Rows()))
		width := int(outputReshaped.GetFloatAt(i, 5)*float32(img.Cols())) - x
		height := int(outputReshaped.GetFloatAt(i, 6)*float32(img.Rows())) - y

		results = append(results, model.Detection{
			Label:      s.labels[classID],
			Confidence: float64(confidence),
			X:          x,
			Y:          y,
			Width:      width,
			Height:     height,
		})
	}

	return results, nil
}

// Annotate draws boxes and labels for detections onto img in place.
func (s *Service) Annotate(img *gocv.Mat, detections []model.Detection) error {
	for _, detection := range detections {
		rect := image.Rect(detection.X, detection.Y, detection.X+detection.Width, detection.Y+detection.Height)
		if err := gocv.Rectangle(img, rect, boxColor, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %v", err)
		}

		label := fmt.Sprintf("%s (%.2f)", detection.Label, detection.Confidence)
		pt := image.Pt(detection.X, detection.Y-5)
		if err := gocv.PutText(img, label, pt, gocv.FontHersheySimplex, 0.5, boxColor, 1); err != nil {
			return fmt.Errorf("failed to draw text: %v", err)
		}
	}
	return nil
}

// EncodeJPEG encodes img as JPEG at the configured quality.
func (s *Service) EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, s.jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	encoded := make([]byte, len(buf.GetBytes()))
	copy(encoded, buf.GetBytes())
	return encoded, nil
}

// ProcessFrame decodes a JPEG/PNG frame, runs detection, annotates the
// detections onto it and re-encodes it. Used by the camera handler and the
// one-shot image upload.
func (s *Service) ProcessFrame(frame []byte) ([]byte, []model.Detection, error) {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, nil, fmt.Errorf("decoded image is empty")
	}

	detections, err := s.Detect(mat)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Annotate(&mat, detections); err != nil {
		return nil, nil, err
	}

	annotated, err := s.EncodeJPEG(mat)
	if err != nil {
		return nil, nil, err
	}

	return annotated, detections, nil
}

// Close releases the network.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	s.ready = false
	return s.net.Close()
}
