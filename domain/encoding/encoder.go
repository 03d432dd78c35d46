package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/screen-recorder-go/domain/capture"
	"github.com/soocke/screen-recorder-go/observability"
)

const (
	DefaultBinary  = "ffmpeg"
	FramePattern   = "frame_%06d.png"
	probeCacheSize = 8
	outputTailSize = 512
)

// Options configures an Encoder.
type Options struct {
	BinaryPath string
	Profile    Profile
	Quality    Quality
	// Timeout bounds the external encoder run; 0 waits for it indefinitely.
	Timeout time.Duration
}

// Request describes one encode.
type Request struct {
	FrameRate int
	BaseName  string
	OutputDir string
	StartedAt time.Time
	StoppedAt time.Time
}

// Encoder turns captured frames into a video through an external encoder
// binary, or into a frame directory plus instructions when the binary is
// missing or fails. Encode never returns an error.
type Encoder struct {
	mu      sync.Mutex
	opts    Options
	runner  CommandRunner
	probes  *lru.Cache[string, bool]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New constructs an Encoder. A nil runner selects ExecRunner.
func New(opts Options, runner CommandRunner, logger *slog.Logger, metrics *observability.Metrics) *Encoder {
	if opts.BinaryPath == "" {
		opts.BinaryPath = DefaultBinary
	}
	if opts.Profile.Name == "" {
		opts.Profile = MP4
	}
	if opts.Quality == "" {
		opts.Quality = QualityDefault
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	probes, _ := lru.New[string, bool](probeCacheSize)
	return &Encoder{opts: opts, runner: runner, probes: probes, logger: logger, metrics: metrics}
}

func (e *Encoder) options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// BinaryPath returns the configured encoder executable.
func (e *Encoder) BinaryPath() string { return e.options().BinaryPath }

// SetBinaryPath re-targets the encoder and discards cached probe results.
func (e *Encoder) SetBinaryPath(path string) {
	if path == "" {
		path = DefaultBinary
	}
	e.mu.Lock()
	changed := e.opts.BinaryPath != path
	e.opts.BinaryPath = path
	e.mu.Unlock()
	if changed {
		e.ResetProbe()
	}
}

// SetProfile switches container and quality tier for subsequent encodes.
func (e *Encoder) SetProfile(p Profile, q Quality) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Profile = p
	e.opts.Quality = q
}

// SetTimeout bounds subsequent encoder runs; 0 removes the bound.
func (e *Encoder) SetTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Timeout = d
}

// ResetProbe forgets every cached availability result.
func (e *Encoder) ResetProbe() { e.probes.Purge() }

// Available reports whether the encoder binary starts and exits 0 when asked
// for its version. The answer is cached per binary path.
func (e *Encoder) Available(ctx context.Context) bool {
	bin := e.BinaryPath()
	if ok, hit := e.probes.Get(bin); hit {
		return ok
	}
	code, _, err := e.runner.Run(ctx, bin, "-version")
	ok := err == nil && code == 0
	if !ok && ctx.Err() != nil {
		// The caller gave up; that says nothing about the binary.
		if e.logger != nil {
			e.logger.Debug("encoder.probe interrupted, not cached", "binary", bin, "error", ctx.Err())
		}
		return false
	}
	e.probes.Add(bin, ok)
	e.metrics.Probed(ok)
	if e.logger != nil {
		if ok {
			e.logger.Info("encoder.probe available", "binary", bin)
		} else {
			e.logger.Warn("encoder.probe unavailable, videos will be saved as frame sequences", "binary", bin, "exit", code, "error", err)
		}
	}
	return ok
}

// Encode writes frames to disk and produces the best artifact it can.
func (e *Encoder) Encode(ctx context.Context, frames []capture.Frame, req Request) Result {
	start := time.Now()
	res := e.encode(ctx, frames, req)
	e.metrics.Encoded(res.Kind.String(), time.Since(start))
	return res
}

func (e *Encoder) encode(ctx context.Context, frames []capture.Frame, req Request) Result {
	opts := e.options()
	if abs, err := filepath.Abs(req.OutputDir); err == nil {
		req.OutputDir = abs
	}
	if len(frames) == 0 {
		return e.summaryResult(req)
	}

	frameDir := filepath.Join(req.OutputDir, "temp_frames_"+req.BaseName)
	written, err := writeFrames(frameDir, frames)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("encoder.frames write failed", "dir", frameDir, "written", written, "error", err)
		}
		if written == 0 {
			_ = os.RemoveAll(frameDir)
			return Result{Kind: KindNone, FrameRate: req.FrameRate}
		}
		return e.framesResult(opts, frameDir, written, req)
	}
	if e.logger != nil {
		e.logger.Debug("encoder.frames written", "dir", frameDir, "count", written)
	}

	if !e.Available(ctx) {
		return e.framesResult(opts, frameDir, written, req)
	}

	videoPath := filepath.Join(req.OutputDir, req.BaseName+"."+opts.Profile.Extension)
	args := BuildArgs(opts.Profile, opts.Quality, req.FrameRate, filepath.Join(frameDir, FramePattern), videoPath)
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	code, out, runErr := e.runner.Run(runCtx, opts.BinaryPath, args...)
	if runErr == nil && code == 0 {
		if info, statErr := os.Stat(videoPath); statErr == nil && info.Size() > 0 {
			if err := os.RemoveAll(frameDir); err != nil && e.logger != nil {
				e.logger.Warn("encoder.cleanup failed", "dir", frameDir, "error", err)
			}
			if e.logger != nil {
				e.logger.Info("encoder.video created", "path", videoPath, "frames", written, "size", humanize.Bytes(uint64(info.Size())))
			}
			return Result{Kind: KindVideo, Path: videoPath, FrameCount: written, FrameRate: req.FrameRate}
		}
		if e.logger != nil {
			e.logger.Error("encoder.video missing or empty", "path", videoPath)
		}
	} else if e.logger != nil {
		e.logger.Error("encoder.run failed", "binary", opts.BinaryPath, "exit", code, "error", runErr, "output", tail(out, outputTailSize))
	}
	return e.framesResult(opts, frameDir, written, req)
}

func (e *Encoder) framesResult(opts Options, frameDir string, count int, req Request) Result {
	res := Result{Kind: KindFrames, Path: frameDir, FrameCount: count, FrameRate: req.FrameRate}
	path := filepath.Join(req.OutputDir, req.BaseName+"_instructions.txt")
	if err := writeInstructions(path, instructionsData{
		opts:       opts,
		req:        req,
		frameDir:   frameDir,
		frameCount: count,
	}); err != nil {
		if e.logger != nil {
			e.logger.Error("encoder.instructions write failed", "path", path, "error", err)
		}
		return res
	}
	res.InstructionsPath = path
	if e.logger != nil {
		e.logger.Warn("encoder.fallback frames saved for manual conversion", "frames", frameDir, "instructions", path)
	}
	return res
}

func (e *Encoder) summaryResult(req Request) Result {
	path := filepath.Join(req.OutputDir, req.BaseName+"_recording_summary.txt")
	if err := writeSummary(path, req); err != nil {
		if e.logger != nil {
			e.logger.Error("encoder.summary write failed", "path", path, "error", err)
		}
		return Result{Kind: KindNone, FrameRate: req.FrameRate}
	}
	if e.logger != nil {
		e.logger.Warn("encoder.no frames, summary written", "path", path)
	}
	return Result{Kind: KindSummary, Path: path, FrameRate: req.FrameRate}
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

// frameFileName returns the on-disk name of frame i.
func frameFileName(i int) string { return fmt.Sprintf(FramePattern, i) }
