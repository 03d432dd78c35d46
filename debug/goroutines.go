package debug

// Periodic goroutine/heap logger, run while a recording session is active in
// debug mode. It helps tell capture-loop leaks apart from frames piling up in memory.

import (
	"log/slog"
	"runtime"
	"runtime/metrics"
	"sync"
	"time"
)

// StartGoroutineLogger launches a ticker that logs goroutine count, stack
// and heap usage every interval. The returned func stops it and is safe to
// call more than once.
func StartGoroutineLogger(interval time.Duration, logger *slog.Logger) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for {
			select {
			case <-done:
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var goroutines uint64
			if samples[0].Value.Kind() == metrics.KindUint64 {
				goroutines = samples[0].Value.Uint64()
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("goroutine-stacks",
				slog.Uint64("goroutines", goroutines),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
			)
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
