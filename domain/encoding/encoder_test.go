package encoding

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soocke/screen-recorder-go/domain/capture"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeRunner answers version probes with probeCode and encodes with encode.
type fakeRunner struct {
	mu        sync.Mutex
	probeCode int
	probeErr  error
	encode    func(ctx context.Context, args []string) (int, error)
	probes    int
	encodes   int
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (int, []byte, error) {
	r.mu.Lock()
	if len(args) == 1 && args[0] == "-version" {
		r.probes++
		r.mu.Unlock()
		return r.probeCode, nil, r.probeErr
	}
	r.encodes++
	fn := r.encode
	r.mu.Unlock()
	if fn == nil {
		return 0, nil, nil
	}
	code, err := fn(ctx, args)
	return code, []byte("encoder output"), err
}

func (r *fakeRunner) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.probes, r.encodes
}

// writeOutput emulates a successful encoder writing its last argument.
func writeOutput(_ context.Context, args []string) (int, error) {
	out := args[len(args)-1]
	return 0, os.WriteFile(out, []byte("fake video bytes"), 0o644)
}

func syntheticFrames(n int) []capture.Frame {
	b := capture.NewFrameBuffer(time.Now())
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 8, 6))
		img.Set(i%8, 0, color.RGBA{R: 255, A: 255})
		b.Append(img, time.Now())
	}
	return b.DrainAll()
}

func request(dir string, rate int) Request {
	now := time.Now()
	return Request{FrameRate: rate, BaseName: "Login_Test_20261019_120000", OutputDir: dir, StartedAt: now.Add(-2 * time.Second), StoppedAt: now}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEncode_UnavailableWritesFramesAndInstructions(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{probeErr: errors.New("executable file not found")}
	enc := New(Options{}, runner, discardLogger, nil)

	res := enc.Encode(context.Background(), syntheticFrames(3), request(dir, 2))
	if res.Kind != KindFrames || !res.Degraded() || !res.OK() {
		t.Fatalf("expected frames result, got %+v", res)
	}
	if _, encodes := runner.counts(); encodes != 0 {
		t.Fatalf("encoder invoked %d times while unavailable", encodes)
	}
	wantDir := filepath.Join(dir, "temp_frames_Login_Test_20261019_120000")
	if res.Path != wantDir {
		t.Fatalf("path=%s want %s", res.Path, wantDir)
	}
	got := strings.Join(listDir(t, wantDir), ",")
	if got != "frame_000000.png,frame_000001.png,frame_000002.png" {
		t.Fatalf("unexpected frames: %s", got)
	}
	if res.InstructionsPath != filepath.Join(dir, "Login_Test_20261019_120000_instructions.txt") {
		t.Fatalf("unexpected instructions path %s", res.InstructionsPath)
	}
	text, err := os.ReadFile(res.InstructionsPath)
	if err != nil {
		t.Fatalf("read instructions: %v", err)
	}
	if !strings.Contains(string(text), "Frame Count: 3") || !strings.Contains(string(text), "Frame Rate: 2 fps") {
		t.Fatalf("instructions missing metadata:\n%s", text)
	}
}

func TestEncode_SuccessRemovesFrameDir(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{encode: writeOutput}
	enc := New(Options{}, runner, discardLogger, nil)

	res := enc.Encode(context.Background(), syntheticFrames(4), request(dir, 5))
	if res.Kind != KindVideo || res.Degraded() {
		t.Fatalf("expected video result, got %+v", res)
	}
	if res.Path != filepath.Join(dir, "Login_Test_20261019_120000.mp4") {
		t.Fatalf("unexpected video path %s", res.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, "temp_frames_Login_Test_20261019_120000")); !os.IsNotExist(err) {
		t.Fatalf("frame dir should be deleted, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Login_Test_20261019_120000_instructions.txt")); !os.IsNotExist(err) {
		t.Fatal("instructions must not exist on success")
	}
	if res.InstructionsPath != "" {
		t.Fatal("video result must not carry instructions")
	}
}

func TestEncode_WebMProfileExtension(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	runner := &fakeRunner{encode: func(ctx context.Context, args []string) (int, error) {
		seen = args
		return writeOutput(ctx, args)
	}}
	enc := New(Options{Profile: WebM, Quality: QualityFast}, runner, discardLogger, nil)
	res := enc.Encode(context.Background(), syntheticFrames(1), request(dir, 1))
	if !strings.HasSuffix(res.Path, ".webm") {
		t.Fatalf("expected webm output, got %s", res.Path)
	}
	joined := strings.Join(seen, " ")
	if !strings.Contains(joined, "libvpx-vp9") || !strings.Contains(joined, "-deadline realtime") {
		t.Fatalf("unexpected args: %s", joined)
	}
}

func TestEncode_FailureFallsBackAndKeepsFrames(t *testing.T) {
	cases := map[string]func(context.Context, []string) (int, error){
		"non-zero exit": func(context.Context, []string) (int, error) { return 1, nil },
		"missing output": func(context.Context, []string) (int, error) { return 0, nil },
		"empty output": func(_ context.Context, args []string) (int, error) {
			return 0, os.WriteFile(args[len(args)-1], nil, 0o644)
		},
		"spawn error": func(context.Context, []string) (int, error) { return -1, errors.New("fork failed") },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			enc := New(Options{}, &fakeRunner{encode: fn}, discardLogger, nil)
			res := enc.Encode(context.Background(), syntheticFrames(2), request(dir, 2))
			if res.Kind != KindFrames {
				t.Fatalf("expected frames fallback, got %+v", res)
			}
			if n := len(listDir(t, res.Path)); n != 2 {
				t.Fatalf("frames dir should be preserved with 2 files, got %d", n)
			}
			if _, err := os.Stat(res.InstructionsPath); err != nil {
				t.Fatalf("instructions missing: %v", err)
			}
		})
	}
}

func TestEncode_EmptyWritesSummaryOnly(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{encode: writeOutput}
	enc := New(Options{}, runner, discardLogger, nil)
	res := enc.Encode(context.Background(), nil, request(dir, 2))
	if res.Kind != KindSummary || !strings.HasSuffix(res.Path, "_recording_summary.txt") {
		t.Fatalf("expected summary result, got %+v", res)
	}
	if probes, encodes := runner.counts(); probes != 0 || encodes != 0 {
		t.Fatalf("no process should run for empty input: probes=%d encodes=%d", probes, encodes)
	}
	if names := listDir(t, dir); len(names) != 1 {
		t.Fatalf("expected only the summary file, got %v", names)
	}
}

func TestEncode_TimeoutFallsBack(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{encode: func(ctx context.Context, _ []string) (int, error) {
		<-ctx.Done()
		return -1, ctx.Err()
	}}
	enc := New(Options{Timeout: 20 * time.Millisecond}, runner, discardLogger, nil)
	res := enc.Encode(context.Background(), syntheticFrames(1), request(dir, 2))
	if res.Kind != KindFrames {
		t.Fatalf("expected fallback after timeout, got %+v", res)
	}
}

func TestInstructions_RoundTrip(t *testing.T) {
	frameRe := regexp.MustCompile(`-framerate (\d+)`)
	durRe := regexp.MustCompile(`Duration: ([0-9.]+) seconds`)
	for _, tc := range []struct{ n, fps int }{{1, 1}, {3, 2}, {10, 3}, {45, 30}} {
		dir := t.TempDir()
		enc := New(Options{}, &fakeRunner{probeCode: 1}, discardLogger, nil)
		res := enc.Encode(context.Background(), syntheticFrames(tc.n), request(dir, tc.fps))
		text, err := os.ReadFile(res.InstructionsPath)
		if err != nil {
			t.Fatalf("n=%d fps=%d: %v", tc.n, tc.fps, err)
		}
		m := frameRe.FindStringSubmatch(string(text))
		if m == nil || m[1] != strconv.Itoa(tc.fps) {
			t.Fatalf("n=%d fps=%d: framerate arg %v", tc.n, tc.fps, m)
		}
		d := durRe.FindStringSubmatch(string(text))
		if d == nil {
			t.Fatalf("duration line missing:\n%s", text)
		}
		got, _ := strconv.ParseFloat(d[1], 64)
		want := float64(tc.n) / float64(tc.fps)
		if diff := got - want; diff > 0.01 || diff < -0.01 {
			t.Fatalf("n=%d fps=%d: duration %v want %v", tc.n, tc.fps, got, want)
		}
	}
}

func TestAvailable_CachedAndResettable(t *testing.T) {
	runner := &fakeRunner{}
	enc := New(Options{}, runner, discardLogger, nil)
	ctx := context.Background()
	if !enc.Available(ctx) || !enc.Available(ctx) {
		t.Fatal("expected available")
	}
	if probes, _ := runner.counts(); probes != 1 {
		t.Fatalf("probe should be cached, ran %d times", probes)
	}
	enc.ResetProbe()
	enc.Available(ctx)
	if probes, _ := runner.counts(); probes != 2 {
		t.Fatalf("reset should force a new probe, ran %d times", probes)
	}
	enc.SetBinaryPath("/opt/ffmpeg/bin/ffmpeg")
	enc.Available(ctx)
	enc.SetBinaryPath("/opt/ffmpeg/bin/ffmpeg")
	enc.Available(ctx)
	if probes, _ := runner.counts(); probes != 3 {
		t.Fatalf("new binary path should probe exactly once, ran %d times", probes)
	}
}

// ctxRunner fails while its context is done, like ExecRunner does.
type ctxRunner struct{ runs int }

func (r *ctxRunner) Run(ctx context.Context, _ string, _ ...string) (int, []byte, error) {
	r.runs++
	if err := ctx.Err(); err != nil {
		return -1, nil, err
	}
	return 0, nil, nil
}

func TestAvailable_CancelledContextNotCached(t *testing.T) {
	runner := &ctxRunner{}
	enc := New(Options{}, runner, discardLogger, nil)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if enc.Available(cancelled) {
		t.Fatal("cancelled probe cannot report available")
	}
	if !enc.Available(context.Background()) {
		t.Fatal("live probe should report available after a cancelled one")
	}
	if runner.runs != 2 {
		t.Fatalf("expected 2 probe runs, got %d", runner.runs)
	}
	if !enc.Available(context.Background()) || runner.runs != 2 {
		t.Fatalf("successful probe should be cached, runs=%d", runner.runs)
	}
}

func TestAvailable_NonZeroExit(t *testing.T) {
	enc := New(Options{}, &fakeRunner{probeCode: 127}, discardLogger, nil)
	if enc.Available(context.Background()) {
		t.Fatal("non-zero exit must report unavailable")
	}
}
