package capture

import (
	"image"
	"sync"
	"time"
)

// FrameBuffer accumulates captured frames in capture order. Append, DrainAll
// and Count share one mutex, so a racing Append lands entirely before or
// entirely after a drain.
type FrameBuffer struct {
	mu        sync.Mutex
	frames    []Frame
	next      int
	startedAt time.Time
}

// NewFrameBuffer returns an empty buffer for a recording that began at startedAt.
func NewFrameBuffer(startedAt time.Time) *FrameBuffer {
	return &FrameBuffer{startedAt: startedAt}
}

// Append stores img as the next frame and returns it with its sequence index.
func (b *FrameBuffer) Append(img image.Image, capturedAt time.Time) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := Frame{Image: img, Index: b.next, CapturedAt: capturedAt}
	b.frames = append(b.frames, f)
	b.next++
	return f
}

// DrainAll returns every buffered frame in capture order and empties the
// buffer. The result is never nil.
func (b *FrameBuffer) DrainAll() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.frames
	if out == nil {
		out = []Frame{}
	}
	b.frames = nil
	return out
}

// Count returns the number of frames currently buffered.
func (b *FrameBuffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// StartedAt returns the recording start timestamp.
func (b *FrameBuffer) StartedAt() time.Time { return b.startedAt }
