package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartGoroutineLogger_LogsUntilStopped(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	stop := StartGoroutineLogger(5*time.Millisecond, logger)
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(out.String(), "goroutine-stacks") {
		if time.Now().After(deadline) {
			t.Fatal("no stats logged")
		}
		time.Sleep(2 * time.Millisecond)
	}
	stop()
	stop()
	time.Sleep(10 * time.Millisecond)
	n := len(out.String())
	time.Sleep(30 * time.Millisecond)
	if len(out.String()) != n {
		t.Fatal("logger kept writing after stop")
	}
}

func TestStartGoroutineLogger_NilLogger(t *testing.T) {
	stop := StartGoroutineLogger(time.Millisecond, nil)
	stop()
}
