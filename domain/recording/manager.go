package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/soocke/screen-recorder-go/config"
	"github.com/soocke/screen-recorder-go/debug"
	"github.com/soocke/screen-recorder-go/domain/capture"
	"github.com/soocke/screen-recorder-go/domain/encoding"
	"github.com/soocke/screen-recorder-go/observability"
)

const debugLogInterval = 5 * time.Second

var (
	// ErrDisabled is returned by StartSession when recording is switched off.
	ErrDisabled = errors.New("recording: disabled by configuration")
	// ErrOutputDir is returned by StartSession when the output directory cannot be used.
	ErrOutputDir = errors.New("recording: output directory unusable")
)

// Manager owns at most one active Session. Callers share a Manager instead of
// relying on process globals.
type Manager struct {
	cfgFn    func() *config.Config
	capturer capture.FrameCapturer
	enc      Encoder
	logger   *slog.Logger
	metrics  *observability.Metrics
	names    *namer
	now      func() time.Time

	mu       sync.Mutex
	active   *Session
	lastGood int
}

// NewManager wires a Manager. cfgFn is read once per Start so configuration
// changes apply to the next recording. When retention is configured, old
// artifacts are removed from the output directory right away.
func NewManager(cfgFn func() *config.Config, capturer capture.FrameCapturer, enc Encoder, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfgFn:    cfgFn,
		capturer: capturer,
		enc:      enc,
		logger:   logger,
		metrics:  metrics,
		names:    newNamer(),
		now:      time.Now,
		lastGood: config.DefaultFrameRate,
	}
	if cfg, _ := m.config(); cfg.RetentionDays > 0 {
		maxAge := time.Duration(cfg.RetentionDays) * 24 * time.Hour
		n, err := CleanupOld(cfg.OutputDir, maxAge, m.now())
		if err != nil {
			logger.Warn("recording.retention cleanup incomplete", "dir", cfg.OutputDir, "error", err)
		} else if n > 0 {
			logger.Info("recording.retention removed old artifacts", "dir", cfg.OutputDir, "count", n)
		}
	}
	return m
}

// config returns a validated private copy of the current configuration and
// the corrections Validate made.
func (m *Manager) config() (*config.Config, error) {
	cfg := *config.DefaultConfig()
	if m.cfgFn != nil {
		if c := m.cfgFn(); c != nil {
			cfg = *c
		}
	}
	err := cfg.Validate()
	return &cfg, err
}

// Start begins recording for testID. An already active session is stopped and
// finalized first. Start never fails: when recording is disabled or cannot
// start it logs and returns nil.
func (m *Manager) Start(ctx context.Context, testID string) *Session {
	s, err := m.StartSession(ctx, testID)
	switch {
	case err == nil:
		return s
	case errors.Is(err, ErrDisabled):
		m.logger.Debug("recording.disabled, skipping", "test", testID)
	case errors.Is(err, ErrOutputDir):
		m.logger.Warn("recording.output dir unusable, skipping", "test", testID, "error", err)
	default:
		m.logger.Error("recording.start failed", "test", testID, "error", err)
	}
	return nil
}

// StartSession is Start with the reason for not recording returned as an error.
func (m *Manager) StartSession(ctx context.Context, testID string) (*Session, error) {
	cfg, cfgErr := m.config()

	m.mu.Lock()
	defer m.mu.Unlock()

	// The previous session ends even when recording has just been switched off.
	if prev := m.active; prev != nil {
		m.logger.Warn("recording.previous session still active, finalizing it", "previous", prev.Name(), "test", testID)
		m.finish(ctx, prev, true)
		m.active = nil
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	fps := cfg.FrameRate
	if config.FrameRateValid(fps) {
		m.lastGood = fps
	} else {
		fps = m.lastGood
	}
	if cfgErr != nil {
		m.logger.Warn("recording.config corrected", "test", testID, "error", cfgErr, "frame_rate", fps)
	}

	if err := ensureWritable(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOutputDir, cfg.OutputDir, err)
	}

	m.enc.SetBinaryPath(cfg.FFmpegPath)
	m.enc.SetProfile(encoding.ProfileFor(cfg.Format), encoding.ParseQuality(cfg.Quality))
	m.enc.SetTimeout(time.Duration(cfg.EncoderTimeoutS) * time.Second)

	startedAt := m.now()
	sched := capture.NewScheduler(m.capturer, m.logger, capture.SchedulerOptions{
		StopGrace: time.Duration(cfg.StopGraceMs) * time.Millisecond,
	})
	s := newSession(m.names.next(testID, startedAt), fps, cfg.OutputDir, startedAt, sched, m.enc, m.logger, m.metrics)
	if cfg.Debug {
		s.stopDebug = debug.StartGoroutineLogger(debugLogInterval, m.logger)
	}
	if err := s.start(); err != nil {
		if s.stopDebug != nil {
			s.stopDebug()
		}
		return nil, fmt.Errorf("recording: start %s: %w", s.Name(), err)
	}
	m.active = s
	m.metrics.SessionStarted()
	m.logger.Info("recording.started", "session", s.Name(), "id", s.ID(), "frame_rate", fps, "dir", cfg.OutputDir)
	return s, nil
}

// Stop finalizes the active session and returns the artifact path. ok is
// false when nothing was recording or no artifact was produced.
func (m *Manager) Stop(ctx context.Context) (string, bool) {
	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()
	if s == nil {
		return "", false
	}
	res, ok := m.finish(ctx, s, false)
	if !ok {
		return "", false
	}
	return res.Path, true
}

func (m *Manager) finish(ctx context.Context, s *Session, forced bool) (encoding.Result, bool) {
	res, ok := s.Stop(ctx)
	stats := s.sched.Stats()
	if stats.Failures > 0 {
		m.metrics.CaptureFailed(stats.Failures)
	}
	m.metrics.SessionEnded(res.Kind.String(), forced)
	if ok {
		m.logger.Info("recording.finished", "session", s.Name(), "artifact", res.Kind.String(), "path", res.Path, "frames", res.FrameCount, "forced", forced)
	}
	return res, ok
}

// Active returns the session currently recording, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Recording reports whether a session is active.
func (m *Manager) Recording() bool { return m.Active() != nil }

// Cleanup stops any active session, discarding its artifact path. It is meant
// for process shutdown.
func (m *Manager) Cleanup(ctx context.Context) {
	if path, ok := m.Stop(ctx); ok {
		m.logger.Info("recording.cleanup finalized active session", "path", path)
	}
}

// ensureWritable creates dir when missing and checks a file can be created in it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
