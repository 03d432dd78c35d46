package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputDir  = "test-output/videos/"
	DefaultFrameRate  = 2
	DefaultFFmpegPath = "ffmpeg"
	DefaultStopGrace  = 2000

	MinFrameRate = 1
	MaxFrameRate = 30
)

// Region is a screen rectangle in pixels. A zero width or height means the
// whole primary screen.
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Config holds runtime configuration for screen recording.
// Fields may be loaded from a JSON or YAML file and overridden by environment variables.
type Config struct {
	Debug    bool   `json:"debug" yaml:"debug"`
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Recording parameters
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	FrameRate int    `json:"frame_rate" yaml:"frame_rate"`
	MaxWidth  int    `json:"max_width" yaml:"max_width"`
	Region    Region `json:"region" yaml:"region"`

	// Encoder parameters
	FFmpegPath      string `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	Format          string `json:"format" yaml:"format"`
	Quality         string `json:"quality" yaml:"quality"`
	EncoderTimeoutS int    `json:"encoder_timeout_s" yaml:"encoder_timeout_s"`

	StopGraceMs   int    `json:"stop_grace_ms" yaml:"stop_grace_ms"`
	RetentionDays int    `json:"retention_days" yaml:"retention_days"`
	Platforms     string `json:"platforms" yaml:"platforms"`
	MetricsAddr   string `json:"metrics_addr" yaml:"metrics_addr"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:           false,
		LogLevel:        "info",
		Enabled:         true,
		OutputDir:       DefaultOutputDir,
		FrameRate:       DefaultFrameRate,
		MaxWidth:        0,
		FFmpegPath:      DefaultFFmpegPath,
		Format:          "mp4",
		Quality:         "default",
		EncoderTimeoutS: 0,
		StopGraceMs:     DefaultStopGrace,
		RetentionDays:   0,
		Platforms:       "web",
	}
}

// FrameRateValid reports whether fps is inside the supported 1..30 range.
func FrameRateValid(fps int) bool { return fps >= MinFrameRate && fps <= MaxFrameRate }

// Validate clamps/normalizes values to safe ranges. The returned error lists
// every correction made; the config is usable either way. An invalid frame
// rate is left untouched so the caller can decide on a fallback.
func (c *Config) Validate() error {
	var errs []error
	if !FrameRateValid(c.FrameRate) {
		errs = append(errs, fmt.Errorf("frame_rate %d outside %d..%d", c.FrameRate, MinFrameRate, MaxFrameRate))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(c.FFmpegPath) == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	switch strings.ToLower(c.Format) {
	case "mp4", "webm":
		c.Format = strings.ToLower(c.Format)
	default:
		errs = append(errs, fmt.Errorf("format %q unsupported, using mp4", c.Format))
		c.Format = "mp4"
	}
	switch strings.ToLower(c.Quality) {
	case "default", "high", "fast":
		c.Quality = strings.ToLower(c.Quality)
	case "":
		c.Quality = "default"
	default:
		errs = append(errs, fmt.Errorf("quality %q unsupported, using default", c.Quality))
		c.Quality = "default"
	}
	if c.Region.Width < 0 || c.Region.Height < 0 {
		errs = append(errs, fmt.Errorf("region size %dx%d negative, capturing full screen", c.Region.Width, c.Region.Height))
		c.Region = Region{}
	}
	if c.MaxWidth < 0 {
		c.MaxWidth = 0
	}
	if c.StopGraceMs <= 0 {
		c.StopGraceMs = DefaultStopGrace
	}
	if c.EncoderTimeoutS < 0 {
		c.EncoderTimeoutS = 0
	}
	if c.RetentionDays < 0 {
		c.RetentionDays = 0
	}
	return errors.Join(errs...)
}

// UITest reports whether the configured platforms drive a UI (web or mobile),
// which is when recording is worthwhile.
func (c *Config) UITest() bool {
	for _, p := range strings.Split(c.Platforms, ",") {
		switch strings.ToUpper(strings.TrimSpace(p)) {
		case "WEB", "MOBILE":
			return true
		}
	}
	return false
}

// Selection returns the configured capture rectangle, or nil for the full screen.
func (c *Config) Selection() *image.Rectangle {
	r := c.Region
	if r.Width <= 0 || r.Height <= 0 {
		return nil
	}
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	return &rect
}

// Summary returns a human readable description of the recording settings.
func (c *Config) Summary() string {
	var b strings.Builder
	b.WriteString("Video recording configuration:\n")
	fmt.Fprintf(&b, "  enabled:    %v\n", c.Enabled)
	fmt.Fprintf(&b, "  folder:     %s\n", c.OutputDir)
	fmt.Fprintf(&b, "  format:     %s\n", c.Format)
	fmt.Fprintf(&b, "  frame rate: %d fps\n", c.FrameRate)
	fmt.Fprintf(&b, "  quality:    %s\n", c.Quality)
	fmt.Fprintf(&b, "  encoder:    %s\n", c.FFmpegPath)
	if sel := c.Selection(); sel != nil {
		fmt.Fprintf(&b, "  region:     %v\n", *sel)
	}
	return b.String()
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given JSON or YAML file path. If the
// file does not exist it returns DefaultConfig(). On decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Locate returns the first existing config file named name, looking in the
// working directory first and then the XDG config directories under
// "screen-recorder". It returns "" when nothing is found.
func Locate(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if p, err := xdg.SearchConfigFile(filepath.Join("screen-recorder", name)); err == nil {
		return p
	}
	return ""
}

// Save writes the configuration to the given path in JSON or YAML format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
