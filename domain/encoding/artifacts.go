package encoding

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/screen-recorder-go/domain/capture"
)

const rule = "=========================================================\n"

// writeFrames stores frames as sequentially numbered PNG files in a fresh dir.
// It returns how many frames were written before the first error.
func writeFrames(dir string, frames []capture.Frame) (int, error) {
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("reset frame dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create frame dir: %w", err)
	}
	for i, f := range frames {
		if f.Image == nil {
			return i, fmt.Errorf("frame %d has no image", i)
		}
		path := filepath.Join(dir, frameFileName(i))
		if err := imaging.Save(f.Image, path, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
			return i, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return len(frames), nil
}

type instructionsData struct {
	opts       Options
	req        Request
	frameDir   string
	frameCount int
}

// Duration derived from the frame count, the playback length of the video.
func (d instructionsData) playback() float64 {
	if d.req.FrameRate <= 0 {
		return 0
	}
	return float64(d.frameCount) / float64(d.req.FrameRate)
}

func writeInstructions(path string, d instructionsData) error {
	pattern := filepath.Join(d.frameDir, FramePattern)
	video := filepath.Join(d.req.OutputDir, d.req.BaseName+"."+d.opts.Profile.Extension)
	withSuffix := func(suffix string) string {
		return strings.TrimSuffix(video, "."+d.opts.Profile.Extension) + suffix + "." + d.opts.Profile.Extension
	}
	bin := d.opts.BinaryPath

	var b bytes.Buffer
	b.WriteString(rule)
	fmt.Fprintf(&b, "   %s VIDEO CONVERSION INSTRUCTIONS\n", strings.ToUpper(d.opts.Profile.Name))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Session: %s\n", d.req.BaseName)
	fmt.Fprintf(&b, "Frames Location: %s\n", d.frameDir)
	fmt.Fprintf(&b, "Frame Count: %d\n", d.frameCount)
	fmt.Fprintf(&b, "Frame Rate: %d fps\n", d.req.FrameRate)
	fmt.Fprintf(&b, "Duration: %.2f seconds\n", d.playback())
	if !d.req.StartedAt.IsZero() && !d.req.StoppedAt.IsZero() {
		fmt.Fprintf(&b, "Recorded: %s to %s (%s wall clock)\n",
			d.req.StartedAt.Format(time.RFC3339), d.req.StoppedAt.Format(time.RFC3339),
			d.req.StoppedAt.Sub(d.req.StartedAt).Round(time.Millisecond))
	}
	b.WriteString("\n")

	b.WriteString("---------------------------------------------------------\n")
	b.WriteString("INSTALL FFMPEG:\n")
	b.WriteString("---------------------------------------------------------\n")
	b.WriteString("Download from https://ffmpeg.org/download.html, put it on PATH\n")
	fmt.Fprintf(&b, "and verify with: %s -version\n\n", quoteArg(bin))

	b.WriteString("---------------------------------------------------------\n")
	b.WriteString("CONVERT TO VIDEO:\n")
	b.WriteString("---------------------------------------------------------\n")
	b.WriteString(CommandLine(bin, BuildArgs(d.opts.Profile, d.opts.Quality, d.req.FrameRate, pattern, video)) + "\n\n")

	b.WriteString("---------------------------------------------------------\n")
	b.WriteString("ALTERNATIVE OPTIONS:\n")
	b.WriteString("---------------------------------------------------------\n")
	b.WriteString("High quality (larger file):\n")
	b.WriteString(CommandLine(bin, BuildArgs(d.opts.Profile, QualityHigh, d.req.FrameRate, pattern, withSuffix("_hq"))) + "\n\n")
	b.WriteString("Fast compression (lower quality):\n")
	b.WriteString(CommandLine(bin, BuildArgs(d.opts.Profile, QualityFast, d.req.FrameRate, pattern, withSuffix("_fast"))) + "\n")
	b.WriteString(rule)

	return os.WriteFile(path, b.Bytes(), 0o644)
}

func writeSummary(path string, req Request) error {
	var b bytes.Buffer
	b.WriteString("Test Recording Session Summary\n")
	b.WriteString("==============================\n\n")
	fmt.Fprintf(&b, "Session: %s\n", req.BaseName)
	if !req.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Start Time: %s\n", req.StartedAt.Format(time.RFC3339))
	}
	if !req.StoppedAt.IsZero() {
		fmt.Fprintf(&b, "End Time: %s\n", req.StoppedAt.Format(time.RFC3339))
		if !req.StartedAt.IsZero() {
			fmt.Fprintf(&b, "Duration: %.2f seconds\n", req.StoppedAt.Sub(req.StartedAt).Seconds())
		}
	}
	fmt.Fprintf(&b, "Frame Rate: %d fps\n", req.FrameRate)
	b.WriteString("Frame Count: 0\n\n")
	b.WriteString("No frames were captured; no video was produced.\n")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}
