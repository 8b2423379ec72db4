package model

import "time"

// Capture is a persisted record of one processed source: an uploaded image
// or a finished video.
type Capture struct {
	ID         int64       `json:"id"`
	Source     string      `json:"source"` // "image" or "video"
	Filename   string      `json:"filename"`
	CreatedAt  time.Time   `json:"created_at"`
	Detections []Detection `json:"detections,omitempty"`
}
