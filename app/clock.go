package app

import (
	"fmt"
	"sync"
	"time"
)

// RecordingClock tracks the duration of the current recording and the total
// time recorded across scenarios. The zero value is ready to use.
type RecordingClock struct {
	mu          sync.Mutex
	active      bool
	start       time.Time
	lastSession time.Duration
	accumulated time.Duration
}

// NewRecordingClock returns a ready-to-use RecordingClock.
func NewRecordingClock() *RecordingClock { return &RecordingClock{} }

// OnTick updates the clock from the current recording state.
func (c *RecordingClock) OnTick(recording bool, now time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if recording {
		if !c.active { // off -> on
			c.active = true
			c.start = now
			c.lastSession = 0
		}
		c.lastSession = now.Sub(c.start)
	} else if c.active { // on -> off
		c.lastSession = now.Sub(c.start)
		c.accumulated += c.lastSession
		c.active = false
	}
}

// Values returns the current session duration and the total, which includes
// the ongoing session when active.
func (c *RecordingClock) Values() (session, total time.Duration) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	session = c.lastSession
	total = c.accumulated
	if c.active {
		total += session
	}
	return
}

// formatMinSec renders d as mm:ss.
func formatMinSec(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
