package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrEmptySelection is returned when a selection rectangle has no area or
// does not intersect the screen.
var ErrEmptySelection = errors.New("capture: empty selection")

// Frame is a single captured still image. Frames are never mutated after capture.
type Frame struct {
	Image      image.Image
	Index      int // 0-based, contiguous within a buffer
	CapturedAt time.Time
}

// Width returns the pixel width of the frame.
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the pixel height of the frame.
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// FrameCapturer takes a single still image of the current display region.
type FrameCapturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CapturerFunc adapts a function to FrameCapturer.
type CapturerFunc func(ctx context.Context) (image.Image, error)

func (f CapturerFunc) Capture(ctx context.Context) (image.Image, error) { return f(ctx) }

// FrameHandler receives each successfully captured image.
type FrameHandler func(img image.Image, capturedAt time.Time)

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Captures         uint64
	Failures         uint64
	Skipped          uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
}
