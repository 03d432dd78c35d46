package recording

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, size int, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestCleanupOld(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-10 * 24 * time.Hour)

	touch(t, filepath.Join(dir, "a.mp4"), 10, old)
	touch(t, filepath.Join(dir, "a_instructions.txt"), 10, old)
	touch(t, filepath.Join(dir, "b_recording_summary.txt"), 10, old)
	touch(t, filepath.Join(dir, "notes.txt"), 10, old)
	touch(t, filepath.Join(dir, "fresh.webm"), 10, now)
	frames := filepath.Join(dir, "temp_frames_a")
	if err := os.Mkdir(frames, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(frames, old, old); err != nil {
		t.Fatal(err)
	}

	n, err := CleanupOld(dir, 7*24*time.Hour, now)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 4 {
		t.Fatalf("removed %d entries, want 4", n)
	}
	for _, keep := range []string{"notes.txt", "fresh.webm"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Fatalf("%s should be kept: %v", keep, err)
		}
	}
	if n, err := CleanupOld(filepath.Join(dir, "missing"), time.Hour, now); n != 0 || err != nil {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
}

func TestDirStatsAndRecentVideos(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "one.mp4"), 1000, now.Add(-3*time.Minute))
	touch(t, filepath.Join(dir, "two.webm"), 500, now.Add(-1*time.Minute))
	touch(t, filepath.Join(dir, "three.mp4"), 24, now.Add(-2*time.Minute))
	touch(t, filepath.Join(dir, "x_instructions.txt"), 99, now)

	st, err := DirStats(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st.Videos != 3 || st.TotalBytes != 1524 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.String() != "3 videos, 1.5 kB" {
		t.Fatalf("unexpected stats string %q", st.String())
	}

	recent, err := RecentVideos(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || filepath.Base(recent[0]) != "two.webm" || filepath.Base(recent[1]) != "three.mp4" {
		t.Fatalf("unexpected order %v", recent)
	}
	all, _ := RecentVideos(dir, 0)
	if len(all) != 3 {
		t.Fatalf("limit 0 should return all, got %d", len(all))
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Login_Test":         "Login_Test",
		"Checkout flow #2":   "Checkout_flow__2",
		"  ":                 "recording",
		"../etc/passwd":      "___etc_passwd",
		"Grüße":              "Gr__e",
		"Scenario: add item": "Scenario__add_item",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNamerUniqueWithinSecond(t *testing.T) {
	n := newNamer()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := []string{n.next("T", at), n.next("T", at), n.next("T", at), n.next("T", at.Add(time.Second))}
	want := []string{"T_20260102_030405", "T_20260102_030405_1", "T_20260102_030405_2", "T_20260102_030406"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("name %d = %s want %s", i, got[i], want[i])
		}
	}
}
