package sqlite

import (
	"fmt"

	"github.com/smartfarmdiy/strawbydetet/internal/model"
)

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture repository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Insert adds a capture and its detections in a single transaction.
func (r *CaptureRepository) Insert(capture *model.Capture) (int64, error) {
	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO captures (source, filename)
		VALUES (?, ?)
	`, capture.Source, capture.Filename)
	if err != nil {
		return 0, fmt.Errorf("failed to insert capture: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get capture id: %w", err)
	}

	if len(capture.Detections) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO detections (capture_id, label, x, y, width, height, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, det := range capture.Detections {
			if _, err := stmt.Exec(id, det.Label, det.X, det.Y, det.Width, det.Height, det.Confidence); err != nil {
				return 0, fmt.Errorf("failed to insert detection: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit capture: %w", err)
	}

	return id, nil
}

// GetByID retrieves a capture and its detections.
func (r *CaptureRepository) GetByID(id int64) (*model.Capture, error) {
	var capture model.Capture
	err := r.db.Conn().QueryRow(`
		SELECT id, source, filename, created_at
		FROM captures WHERE id = ?
	`, id).Scan(&capture.ID, &capture.Source, &capture.Filename, &capture.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}

	detections, err := r.detectionsFor(capture.ID)
	if err != nil {
		return nil, err
	}
	capture.Detections = detections

	return &capture, nil
}

// GetRecent retrieves the most recent captures, newest first.
func (r *CaptureRepository) GetRecent(limit int) ([]model.Capture, error) {
	rows, err := r.db.Conn().Query(`
		SELECT id, source, filename, created_at
		FROM captures ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []model.Capture
	for rows.Next() {
		var capture model.Capture
		if err := rows.Scan(&capture.ID, &capture.Source, &capture.Filename, &capture.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate captures: %w", err)
	}

	for i := range captures {
		detections, err := r.detectionsFor(captures[i].ID)
		if err != nil {
			return nil, err
		}
		captures[i].Detections = detections
	}

	return captures, nil
}

// Count returns the total number of captures.
func (r *CaptureRepository) Count() (int, error) {
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

// Delete removes a capture; its detections cascade.
func (r *CaptureRepository) Delete(id int64) error {
	if _, err := r.db.Conn().Exec(`DELETE FROM captures WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	return nil
}

// DeleteAll removes every capture and detection.
func (r *CaptureRepository) DeleteAll() error {
	if _, err := r.db.Conn().Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM captures`); err != nil {
		return fmt.Errorf("failed to delete captures: %w", err)
	}
	return nil
}

func (r *CaptureRepository) detectionsFor(captureID int64) ([]model.Detection, error) {
	rows, err := r.db.Conn().Query(`
		SELECT label, x, y, width, height, confidence
		FROM detections WHERE capture_id = ?
	`, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		var det model.Detection
		if err := rows.Scan(&det.Label, &det.X, &det.Y, &det.Width, &det.Height, &det.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}
	return detections, rows.Err()
}
