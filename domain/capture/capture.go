package capture

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// ScreenCapturer grabs the primary screen, or the selection rectangle when a
// selection provider returns a non-empty one. Frames wider than MaxWidth are
// downscaled keeping the aspect ratio.
type ScreenCapturer struct {
	selFn    func() *image.Rectangle // user selection rectangle (optional)
	maxWidth int
}

// NewScreenCapturer constructs a capturer. selectionFn may be nil; maxWidth <= 0
// keeps native resolution.
func NewScreenCapturer(selectionFn func() *image.Rectangle, maxWidth int) *ScreenCapturer {
	return &ScreenCapturer{selFn: selectionFn, maxWidth: maxWidth}
}

// Capture implements FrameCapturer.
func (c *ScreenCapturer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var img *image.RGBA
	if c.selFn != nil {
		if r := c.selFn(); r != nil && !r.Empty() {
			out, err := GrabSelection(*r)
			if err != nil {
				return nil, err
			}
			img = out
		}
	}
	if img == nil {
		full, err := Grab()
		if err != nil {
			return nil, err
		}
		img = full
	}
	return FitWidth(img, c.maxWidth), nil
}

// FitWidth downscales img to maxWidth pixels wide when it is wider. Images
// already within bounds, or maxWidth <= 0, are returned unchanged.
func FitWidth(img image.Image, maxWidth int) image.Image {
	if img == nil || maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}
