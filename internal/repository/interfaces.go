package repository

import "github.com/smartfarmdiy/strawbydetet/internal/model"

// CaptureRepository defines the interface for capture history operations.
type CaptureRepository interface {
	// Create operations
	Insert(capture *model.Capture) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Capture, error)
	GetRecent(limit int) ([]model.Capture, error)
	Count() (int, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}
