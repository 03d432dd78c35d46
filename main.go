package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/soocke/screen-recorder-go/app"
	"github.com/soocke/screen-recorder-go/config"
	"github.com/soocke/screen-recorder-go/domain/recording"
)

const demoDuration = 5 * time.Second

func loadConfig() (*config.Config, string, error) {
	for _, name := range []string{"recorder.yaml", "recorder.yml", "recorder.json"} {
		if path := config.Locate(name); path != "" {
			cfg, err := config.Load(path)
			return cfg, path, err
		}
	}
	return config.DefaultConfig(), "", nil
}

func main() {
	cfg, cfgPath, cfgErr := loadConfig()
	cfg.ApplyEnv(os.LookupEnv)

	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", "path", cfgPath, "error", cfgErr)
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("config corrected", "error", err)
	}
	logger.Info(cfg.Summary(), "config_path", cfgPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := app.BuildContainer(cfg, logger, app.Options{
		Attacher: func(scenario, path string) { fmt.Printf("%s: %s\n", scenario, path) },
	})
	defer c.Close(context.Background())

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(c), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer srv.Close()
	}

	if !c.Hooks.Before(ctx, "Demo recording") {
		logger.Warn("recording not started", "platforms", cfg.Platforms, "enabled", cfg.Enabled)
		return
	}
	select {
	case <-time.After(demoDuration):
	case <-ctx.Done():
	}
	if _, ok := c.Hooks.After(context.Background(), "Demo recording"); !ok {
		logger.Warn("no artifact produced")
	}
	if st, err := recording.DirStats(cfg.OutputDir); err == nil {
		logger.Info("output directory", "dir", cfg.OutputDir, "stats", st.String())
	}
}

func metricsMux(c *app.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Metrics.Handler())
	return mux
}
