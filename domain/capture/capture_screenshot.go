//go:build !windows

package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// Grab returns a screen capture of the current active monitor.
func Grab() (*image.RGBA, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("capture: screen: %w", err)
	}
	return img, nil
}

// GrabSelection captures sel clipped to the screen bounds.
func GrabSelection(sel image.Rectangle) (*image.RGBA, error) {
	if sel.Empty() {
		return nil, ErrEmptySelection
	}
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("capture: screen bounds: %w", err)
	}
	r := sel.Intersect(screen)
	if r.Empty() {
		return nil, fmt.Errorf("%w: sel=%v screen=%v", ErrEmptySelection, sel, screen)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("capture: rect %v: %w", r, err)
	}
	return img, nil
}
