package app

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"github.com/soocke/screen-recorder-go/config"
	"github.com/soocke/screen-recorder-go/domain/capture"
	"github.com/soocke/screen-recorder-go/domain/encoding"
	"github.com/soocke/screen-recorder-go/domain/recording"
	"github.com/soocke/screen-recorder-go/observability"
)

// Container assembles configuration, services and hooks.
type Container struct {
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Capturer capture.FrameCapturer
	Encoder  *encoding.Encoder
	Manager  *recording.Manager
	Hooks    *Hooks

	mu  sync.RWMutex
	cfg *config.Config
}

// Options overrides parts of the container, mostly for tests. Zero values
// select the real implementations.
type Options struct {
	Capturer capture.FrameCapturer
	Runner   encoding.CommandRunner
	Attacher Attacher
}

// BuildContainer constructs all components. Side effects are limited to the
// retention cleanup of the output directory.
func BuildContainer(cfg *config.Config, logger *slog.Logger, opts Options) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Container{Logger: logger, cfg: cfg}
	c.Metrics = observability.NewMetrics()
	c.Capturer = opts.Capturer
	if c.Capturer == nil {
		c.Capturer = capture.NewScreenCapturer(c.selection, cfg.MaxWidth)
	}
	c.Encoder = encoding.New(encoding.Options{
		BinaryPath: cfg.FFmpegPath,
		Profile:    encoding.ProfileFor(cfg.Format),
		Quality:    encoding.ParseQuality(cfg.Quality),
	}, opts.Runner, logger, c.Metrics)
	c.Manager = recording.NewManager(c.Config, c.Capturer, c.Encoder, logger, c.Metrics)
	c.Hooks = NewHooks(c.Config, c.Manager, opts.Attacher, logger)
	return c
}

// Config returns the live configuration. It is read once per recording.
func (c *Container) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// selection feeds the configured region to the screen capturer on every grab.
func (c *Container) selection() *image.Rectangle { return c.Config().Selection() }

// SetConfig replaces the configuration used by subsequent recordings.
func (c *Container) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Close finalizes any recording still running.
func (c *Container) Close(ctx context.Context) { c.Manager.Cleanup(ctx) }
