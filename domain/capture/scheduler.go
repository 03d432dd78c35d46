package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	captureStatsLogInterval = 5 * time.Second
	defaultStopGrace        = 2 * time.Second
)

// ErrAlreadyRunning is returned by Start while a previous run has not been stopped.
var ErrAlreadyRunning = errors.New("capture: scheduler already running")

// SchedulerOptions tunes a Scheduler. Zero values select defaults.
type SchedulerOptions struct {
	StopGrace     time.Duration // wait for an in-flight capture on Stop (default 2s)
	StatsInterval time.Duration // debug stats log cadence (default 5s)
}

// Scheduler invokes a FrameCapturer at a fixed cadence on one background
// goroutine. Captures never overlap; ticks that arrive while a capture is in
// flight are skipped, not queued.
type Scheduler struct {
	capturer   FrameCapturer
	logger     *slog.Logger
	grace      time.Duration
	statsEvery time.Duration

	mu      sync.Mutex
	current *schedulerRun

	busy         atomic.Bool
	captures     atomic.Uint64
	failures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
}

type schedulerRun struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stopping chan struct{}
	done     chan struct{}

	deliverMu sync.Mutex
	abandoned bool
}

// NewScheduler constructs an idle scheduler around capturer.
func NewScheduler(capturer FrameCapturer, logger *slog.Logger, opts SchedulerOptions) *Scheduler {
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = captureStatsLogInterval
	}
	return &Scheduler{capturer: capturer, logger: logger, grace: opts.StopGrace, statsEvery: opts.StatsInterval}
}

// Start begins invoking onFrame every interval, the first capture immediately.
func (s *Scheduler) Start(interval time.Duration, onFrame FrameHandler) error {
	if interval <= 0 {
		return fmt.Errorf("capture: invalid interval %v", interval)
	}
	if onFrame == nil {
		return errors.New("capture: nil frame handler")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &schedulerRun{ctx: ctx, cancel: cancel, stopping: make(chan struct{}), done: make(chan struct{})}
	s.current = r
	go s.loop(r, interval, onFrame)
	return nil
}

// Stop signals the loop to finish and waits up to the grace period for an
// in-flight capture. Past the grace period the capture context is cancelled
// and whatever it still produces is discarded. Calling Stop when idle is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.mu.Unlock()
	if r == nil {
		return
	}
	close(r.stopping)

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-r.done:
	case <-timer.C:
		r.deliverMu.Lock()
		r.abandoned = true
		r.deliverMu.Unlock()
		if s.logger != nil {
			s.logger.Warn("capture.stop forced", "grace", s.grace)
		}
	}
	r.cancel()
}

// Running reports whether a run is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Stats returns counters accumulated over the scheduler's lifetime.
func (s *Scheduler) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := s.lastCapture.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Captures:         captures,
		Failures:         s.failures.Load(),
		Skipped:          s.skipped.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
	}
}

func (s *Scheduler) loop(r *schedulerRun, interval time.Duration, onFrame FrameHandler) {
	defer close(r.done)
	defer recoverLog(s.logger, "capture loop panic") // last resort

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logTicker := time.NewTicker(s.statsEvery)
	defer logTicker.Stop()

	s.tick(r, onFrame)
	for {
		select {
		case <-r.stopping:
			return
		case <-ticker.C:
			s.tick(r, onFrame)
			// A slow capture leaves at most one stale tick behind; drop it.
			select {
			case <-ticker.C:
				s.skipped.Add(1)
			default:
			}
		case <-logTicker.C:
			s.logStats()
		}
	}
}

func (s *Scheduler) tick(r *schedulerRun, onFrame FrameHandler) {
	select {
	case <-r.stopping:
		return
	default:
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		return
	}
	defer s.busy.Store(false)

	start := time.Now()
	img, err := s.capture(r.ctx)
	if err != nil || img == nil {
		s.failures.Add(1)
		if s.logger != nil {
			s.logger.Debug("capture.frame failed", "error", err)
		}
		return
	}
	now := time.Now()
	s.captureNanos.Add(uint64(now.Sub(start).Nanoseconds()))
	s.captures.Add(1)
	s.lastCapture.Store(now.UnixNano())

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	if r.abandoned {
		return
	}
	s.deliver(onFrame, img, now)
}

// capture runs one Capture call, turning a panic into an error so only this
// tick is lost.
func (s *Scheduler) capture(ctx context.Context) (img image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("capture: panic: %v", p)
			if s.logger != nil {
				s.logger.Error("capture.frame panic", "panic", p)
			}
		}
	}()
	return s.capturer.Capture(ctx)
}

func (s *Scheduler) deliver(onFrame FrameHandler, img image.Image, at time.Time) {
	defer func() {
		if p := recover(); p != nil {
			s.failures.Add(1)
			if s.logger != nil {
				s.logger.Error("capture.frame handler panic", "panic", p)
			}
		}
	}()
	onFrame(img, at)
}

func (s *Scheduler) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failures", stats.Failures,
		"skipped", stats.Skipped,
		"avg_capture", stats.AvgCapture,
	)
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
