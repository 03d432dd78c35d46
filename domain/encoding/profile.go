package encoding

import (
	"strconv"
	"strings"
)

// Quality selects an encoder speed/size trade-off.
type Quality string

const (
	QualityDefault Quality = "default"
	QualityHigh    Quality = "high"
	QualityFast    Quality = "fast"
)

// ParseQuality maps a config value to a Quality, falling back to QualityDefault.
func ParseQuality(s string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(s))) {
	case QualityHigh:
		return QualityHigh
	case QualityFast:
		return QualityFast
	}
	return QualityDefault
}

// Profile describes an output container and the codec arguments for each quality tier.
type Profile struct {
	Name      string
	Extension string
	tiers     map[Quality][]string
}

// even dimensions are required by yuv420p.
var evenScale = []string{"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2"}

var (
	MP4 = Profile{
		Name:      "mp4",
		Extension: "mp4",
		tiers: map[Quality][]string{
			QualityDefault: {"-c:v", "libx264", "-pix_fmt", "yuv420p", "-preset", "fast", "-crf", "23"},
			QualityHigh:    {"-c:v", "libx264", "-pix_fmt", "yuv420p", "-preset", "slow", "-crf", "18"},
			QualityFast:    {"-c:v", "libx264", "-pix_fmt", "yuv420p", "-preset", "ultrafast", "-crf", "28"},
		},
	}
	WebM = Profile{
		Name:      "webm",
		Extension: "webm",
		tiers: map[Quality][]string{
			QualityDefault: {"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p", "-b:v", "0", "-crf", "32", "-deadline", "good", "-cpu-used", "4"},
			QualityHigh:    {"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p", "-b:v", "0", "-crf", "24", "-deadline", "good", "-cpu-used", "1"},
			QualityFast:    {"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p", "-b:v", "0", "-crf", "40", "-deadline", "realtime", "-cpu-used", "8"},
		},
	}
)

// ProfileFor returns the profile named by format; unknown names yield MP4.
func ProfileFor(format string) Profile {
	if strings.EqualFold(strings.TrimSpace(format), WebM.Name) {
		return WebM
	}
	return MP4
}

// CodecArgs returns a copy of the codec arguments for q.
func (p Profile) CodecArgs(q Quality) []string {
	args, ok := p.tiers[q]
	if !ok {
		args = p.tiers[QualityDefault]
	}
	return append([]string(nil), args...)
}

// BuildArgs assembles the encoder arguments that read a numbered image
// sequence at frameRate and overwrite output.
func BuildArgs(p Profile, q Quality, frameRate int, inputPattern, output string) []string {
	args := []string{"-y", "-framerate", strconv.Itoa(frameRate), "-i", inputPattern}
	args = append(args, evenScale...)
	args = append(args, p.CodecArgs(q)...)
	return append(args, output)
}

// CommandLine renders name and args as a single shell line, quoting arguments
// that contain whitespace or shell metacharacters.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(name))
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(a string) string {
	if a == "" {
		return `""`
	}
	if !strings.ContainsAny(a, " \t\"'()*$&;|<>%\\") {
		return a
	}
	return `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
}
