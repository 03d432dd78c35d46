package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var videoExts = map[string]bool{".mp4": true, ".webm": true}

func isVideo(name string) bool { return videoExts[strings.ToLower(filepath.Ext(name))] }

// isArtifact reports whether an entry of the output directory was produced by a recording.
func isArtifact(e os.DirEntry) bool {
	name := e.Name()
	if e.IsDir() {
		return strings.HasPrefix(name, "temp_frames_")
	}
	return isVideo(name) ||
		strings.HasSuffix(name, "_instructions.txt") ||
		strings.HasSuffix(name, "_recording_summary.txt")
}

// CleanupOld removes recording artifacts in dir last modified before now-maxAge.
// A missing dir is not an error. It returns how many entries were removed.
func CleanupOld(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !isArtifact(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Stats summarizes the encoded videos of an output directory.
type Stats struct {
	Videos     int
	TotalBytes int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d videos, %s", s.Videos, humanize.Bytes(uint64(s.TotalBytes)))
}

// DirStats counts the videos in dir and their total size.
func DirStats(dir string) (Stats, error) {
	var st Stats
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	for _, e := range entries {
		if e.IsDir() || !isVideo(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.Videos++
		st.TotalBytes += info.Size()
	}
	return st, nil
}

// RecentVideos lists up to limit video paths in dir, newest first.
// limit <= 0 returns all of them.
func RecentVideos(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	type video struct {
		path string
		mod  time.Time
	}
	var vids []video
	for _, e := range entries {
		if e.IsDir() || !isVideo(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		vids = append(vids, video{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	sort.Slice(vids, func(i, j int) bool { return vids[i].mod.After(vids[j].mod) })
	if limit > 0 && len(vids) > limit {
		vids = vids[:limit]
	}
	out := make([]string, len(vids))
	for i, v := range vids {
		out[i] = v.path
	}
	return out, nil
}
