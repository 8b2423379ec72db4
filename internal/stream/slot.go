// Package stream holds the shared latest-frame slot and the MJPEG writer
// that serves it.
package stream

import "sync"

// FrameSlot is a single-item, overwrite-on-write buffer holding the most
// recently annotated frame as encoded JPEG bytes. Written by the video
// ingest worker or the camera handler; last writer wins.
type FrameSlot struct {
	mu     sync.Mutex
	latest []byte
}

func NewFrameSlot() *FrameSlot {
	return &FrameSlot{}
}

// Publish replaces the current frame.
func (s *FrameSlot) Publish(jpeg []byte) {
	frame := make([]byte, len(jpeg))
	copy(frame, jpeg)

	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()
}

// Latest returns the current frame, or nil and false if none was published.
func (s *FrameSlot) Latest() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Clear drops the current frame.
func (s *FrameSlot) Clear() {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
}
