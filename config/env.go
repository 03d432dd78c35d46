package config

import (
	"os"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment overrides onto c. Empty or unparsable values
// are ignored so the file (or default) value stays in effect.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}
	if v := get("VIDEO_RECORDING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := get("VIDEO_RECORDING_FOLDER"); v != "" {
		c.OutputDir = v
	}
	if v := get("VIDEO_RECORDING_FRAMERATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FrameRate = n
		}
	}
	if v := get("VIDEO_RECORDING_REGION"); v != "" {
		if r, ok := parseRegion(v); ok {
			c.Region = r
		}
	}
	if v := get("VIDEO_RECORDING_FORMAT"); v != "" {
		c.Format = v
	}
	if v := get("VIDEO_RECORDING_QUALITY"); v != "" {
		c.Quality = v
	}
	if v := get("FFMPEG_PATH"); v != "" {
		c.FFmpegPath = v
	}
	if v := get("PLATFORM"); v != "" {
		c.Platforms = v
	}
	if v := get("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// parseRegion reads "x,y,width,height".
func parseRegion(v string) (Region, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return Region{}, false
	}
	var n [4]int
	for i, p := range parts {
		x, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, false
		}
		n[i] = x
	}
	return Region{X: n[0], Y: n[1], Width: n[2], Height: n[3]}, true
}
