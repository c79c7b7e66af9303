package imaging

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// DefaultWindowSize is the number of decoded frames a FrameWindow keeps:
// the previous and the current frame of a pair.
const DefaultWindowSize = 2

// FrameWindow caches the most recently decoded frames, keyed by path.
//
// Loading a frame that is not cached decodes it and, once more than the
// window size is held, evicts the least recently loaded frame. Walking a
// sequence pairwise therefore decodes every frame exactly once.
//
// FrameWindow is safe for concurrent use.
type FrameWindow struct {
	mu     sync.Mutex
	size   int
	order  []string
	frames map[string]image.Image
}

// NewFrameWindow creates a window holding at most size frames.
// Sizes below 1 fall back to DefaultWindowSize.
func NewFrameWindow(size int) *FrameWindow {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &FrameWindow{
		size:   size,
		frames: make(map[string]image.Image, size),
	}
}

// Load returns the decoded frame at path, decoding it if it is not held.
//
// Supported formats are those registered with the image package by
// disintegration/imaging: JPEG, PNG, GIF, TIFF and BMP.
func (w *FrameWindow) Load(path string) (image.Image, error) {
	w.mu.Lock()
	if img, ok := w.frames[path]; ok {
		w.mu.Unlock()
		return img, nil
	}
	w.mu.Unlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.frames[path]; !ok {
		w.frames[path] = img
		w.order = append(w.order, path)
	}
	for len(w.order) > w.size {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.frames, oldest)
	}
	return img, nil
}

// Len returns the number of frames currently held.
func (w *FrameWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.frames)
}

// Clear drops every held frame. Used when an experiment restarts and the
// frame list may have changed on disk.
func (w *FrameWindow) Clear() {
	w.mu.Lock()
	w.order = nil
	w.frames = make(map[string]image.Image, w.size)
	w.mu.Unlock()
}
