package app

import (
	"testing"
	"time"
)

func TestRecordingClock_Lifecycle(t *testing.T) {
	c := NewRecordingClock()
	base := time.Unix(0, 0)

	c.OnTick(true, base)
	c.OnTick(true, base.Add(5*time.Second))
	session, total := c.Values()
	if session != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s session & total; got session=%v total=%v", session, total)
	}

	c.OnTick(false, base.Add(5*time.Second))
	c.OnTick(false, base.Add(7*time.Second))
	s2, t2 := c.Values()
	if s2 != session || t2 != total {
		t.Fatalf("idle ticks should not change durations: session=%v total=%v", s2, t2)
	}

	// Second recording at 10s lasting 3s.
	c.OnTick(true, base.Add(10*time.Second))
	c.OnTick(true, base.Add(13*time.Second))
	if s, tot := c.Values(); s != 3*time.Second || tot != 8*time.Second {
		t.Fatalf("ongoing: session=%v total=%v", s, tot)
	}
	c.OnTick(false, base.Add(13*time.Second))
	if s, tot := c.Values(); s != 3*time.Second || tot != 8*time.Second {
		t.Fatalf("final: session=%v total=%v", s, tot)
	}
}

func TestRecordingClock_NilSafe(t *testing.T) {
	var c *RecordingClock
	c.OnTick(true, time.Now())
	if s, tot := c.Values(); s != 0 || tot != 0 {
		t.Fatal("nil clock should report zero")
	}
}

func TestFormatMinSec(t *testing.T) {
	if got := formatMinSec(125 * time.Second); got != "02:05" {
		t.Fatalf("got %s", got)
	}
}
