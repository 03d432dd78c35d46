package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/screen-recorder-go/config"
	"github.com/soocke/screen-recorder-go/domain/recording"
)

// Attacher receives the artifact of a finished scenario, typically to attach
// it to a test report.
type Attacher func(scenario, path string)

// Hooks are called by a test runner around every scenario. Before starts a
// recording for UI-driving platforms, After stops it and hands the artifact
// to the Attacher. Neither ever fails the scenario.
type Hooks struct {
	cfgFn   func() *config.Config
	manager *recording.Manager
	attach  Attacher
	clock   *RecordingClock
	logger  *slog.Logger
	now     func() time.Time
}

// NewHooks wires Hooks around manager. attach may be nil.
func NewHooks(cfgFn func() *config.Config, manager *recording.Manager, attach Attacher, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{cfgFn: cfgFn, manager: manager, attach: attach, clock: NewRecordingClock(), logger: logger, now: time.Now}
}

// Before starts recording scenario when the configured platforms drive a UI.
// It reports whether a recording started.
func (h *Hooks) Before(ctx context.Context, scenario string) bool {
	cfg := h.cfgFn()
	if cfg == nil || !cfg.UITest() {
		h.logger.Debug("hooks.not a ui test, recording skipped", "scenario", scenario)
		return false
	}
	if h.manager.Start(ctx, scenario) == nil {
		return false
	}
	h.clock.OnTick(true, h.now())
	return true
}

// After stops the recording of scenario, if any, and forwards its artifact.
func (h *Hooks) After(ctx context.Context, scenario string) (string, bool) {
	path, ok := h.manager.Stop(ctx)
	h.clock.OnTick(false, h.now())
	if !ok {
		return "", false
	}
	session, total := h.clock.Values()
	h.logger.Info("hooks.recording attached", "scenario", scenario, "path", path,
		"session", formatMinSec(session), "total", formatMinSec(total))
	if h.attach != nil {
		h.attach(scenario, path)
	}
	return path, true
}

// Recorded returns the duration of the last recording and the total recorded time.
func (h *Hooks) Recorded() (session, total time.Duration) { return h.clock.Values() }
