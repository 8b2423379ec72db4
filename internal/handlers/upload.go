package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartfarmdiy/strawbydetet/internal/config"
	"github.com/smartfarmdiy/strawbydetet/internal/detect"
	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/metrics"
	"github.com/smartfarmdiy/strawbydetet/internal/model"
	"github.com/smartfarmdiy/strawbydetet/internal/repository"
	"github.com/smartfarmdiy/strawbydetet/internal/stats"
	"github.com/smartfarmdiy/strawbydetet/internal/video"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
var videoExtensions = map[string]bool{".mp4": true, ".avi": true}

// UploadImageHandler runs one-shot detection on an uploaded image, writes
// the annotated copy into the static directory and returns its URL plus the
// per-class percentage breakdown.
func UploadImageHandler(cfg *config.Config, detector *detect.Service, captures repository.CaptureRepository, m *metrics.Metrics, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No image uploaded")
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No image selected")
			return
		}

		filename := filepath.Base(header.Filename)
		if !imageExtensions[strings.ToLower(filepath.Ext(filename))] {
			writeError(w, http.StatusBadRequest, "Unsupported image format")
			return
		}

		if !detector.Ready() {
			writeError(w, http.StatusServiceUnavailable, errModelUnavailable)
			return
		}

		staged, err := stageUpload(cfg.UploadDirectory, filename, file)
		if err != nil {
			log.Error("Error saving image: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving image: %v", err))
			return
		}
		// The staged copy is scratch space only; remove it on every path.
		defer os.Remove(staged)

		data, err := os.ReadFile(staged)
		if err != nil {
			log.Error("Error reading staged image: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error reading staged image: %v", err))
			return
		}

		annotated, detections, err := detector.ProcessFrame(data)
		if err != nil {
			log.Error("Model prediction failed: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Model prediction failed: %v", err))
			return
		}

		outputFilename := "annotated_" + filename
		outputPath := filepath.Join(cfg.StaticDirectory, outputFilename)
		if err := os.WriteFile(outputPath, annotated, 0644); err != nil {
			log.Error("Error writing annotated image: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error writing annotated image: %v", err))
			return
		}

		agg := stats.NewAggregator(detector.Labels())
		for _, det := range detections {
			agg.Record(det.Label)
		}

		m.ImagesProcessed.Add(1)
		m.DetectionsTotal.Add(uint64(len(detections)))

		if captures != nil {
			capture := &model.Capture{Source: "image", Filename: outputFilename, Detections: detections}
			if _, err := captures.Insert(capture); err != nil {
				log.Error("Failed to persist image capture: %v", err)
			}
		}

		log.Info("Image processed successfully: %s", outputFilename)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"image_url":   "/static/" + outputFilename,
			"percentages": agg.Snapshot(),
		})
	}
}

// UploadVideoHandler stages an uploaded video and places it into the
// ingest worker's work slot.
func UploadVideoHandler(cfg *config.Config, detector *detect.Service, worker *video.Worker, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("video")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No video uploaded")
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No video selected")
			return
		}

		filename := filepath.Base(header.Filename)
		if !videoExtensions[strings.ToLower(filepath.Ext(filename))] {
			writeError(w, http.StatusBadRequest, "Unsupported video format")
			return
		}

		if !detector.Ready() {
			writeError(w, http.StatusServiceUnavailable, errModelUnavailable)
			return
		}

		staged, err := stageUpload(cfg.UploadDirectory, filename, file)
		if err != nil {
			log.Error("Error uploading video: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error uploading video: %v", err))
			return
		}

		if worker.Submit(staged) {
			log.Warning("Previous pending video replaced by %s", staged)
		}

		log.Info("Uploaded video saved as: %s", staged)
		writeSuccess(w, "Video uploaded, streaming started")
	}
}

// stageUpload streams the uploaded file into the scratch directory and
// returns its path. Videos can be large, so the body is never buffered in
// memory.
func stageUpload(dir, filename string, file io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	return path, out.Close()
}
