package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteMJPEG_EmitsFrames(t *testing.T) {
	slot := NewFrameSlot()
	slot.Publish([]byte("jpeg-bytes"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteMJPEG(w, r, slot, time.Millisecond)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Expected multipart/x-mixed-replace content type, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	boundary, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read boundary: %v", err)
	}
	if !strings.HasPrefix(boundary, "--frame") {
		t.Errorf("Expected frame boundary, got %q", boundary)
	}

	contentType, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read part header: %v", err)
	}
	if !strings.HasPrefix(contentType, "Content-Type: image/jpeg") {
		t.Errorf("Expected image/jpeg part header, got %q", contentType)
	}
}

func TestWriteMJPEG_StopsOnContextCancel(t *testing.T) {
	slot := NewFrameSlot()

	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteMJPEG(w, r, slot, time.Millisecond)
		close(done)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handler did not stop after client disconnect")
	}
}

func TestWriteMJPEG_RepeatsFrameWithoutNewPublish(t *testing.T) {
	slot := NewFrameSlot()
	slot.Publish([]byte("same-frame"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteMJPEG(w, r, slot, time.Millisecond)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	// Two boundaries for a single publish: no deduplication.
	reader := bufio.NewReader(resp.Body)
	boundaries := 0
	deadline := time.Now().Add(2 * time.Second)
	for boundaries < 2 && time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Failed reading stream: %v", err)
		}
		if strings.HasPrefix(line, "--frame") {
			boundaries++
		}
	}
	if boundaries < 2 {
		t.Error("Expected the same frame to be emitted more than once")
	}
}
