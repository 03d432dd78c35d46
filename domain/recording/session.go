package recording

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/screen-recorder-go/domain/capture"
	"github.com/soocke/screen-recorder-go/domain/encoding"
	"github.com/soocke/screen-recorder-go/observability"
)

// State enumerates the lifecycle of a Session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Encoder is the subset of encoding.Encoder used by sessions and the manager.
type Encoder interface {
	Encode(ctx context.Context, frames []capture.Frame, req encoding.Request) encoding.Result
	SetBinaryPath(path string)
	SetProfile(p encoding.Profile, q encoding.Quality)
	SetTimeout(d time.Duration)
}

// Session is one bounded recording episode. It is one-shot: once stopped it
// stays idle and a new Session is needed for the next recording.
type Session struct {
	id        uuid.UUID
	name      string
	frameRate int
	outputDir string
	startedAt time.Time

	buffer  *capture.FrameBuffer
	sched   *capture.Scheduler
	enc     Encoder
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	state     State
	result    encoding.Result
	stopDebug func()
}

func newSession(name string, frameRate int, outputDir string, startedAt time.Time, sched *capture.Scheduler, enc Encoder, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		id:        uuid.New(),
		name:      name,
		frameRate: frameRate,
		outputDir: outputDir,
		startedAt: startedAt,
		buffer:    capture.NewFrameBuffer(startedAt),
		sched:     sched,
		enc:       enc,
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *Session) ID() string           { return s.id.String() }
func (s *Session) Name() string         { return s.name }
func (s *Session) FrameRate() int       { return s.frameRate }
func (s *Session) OutputDir() string    { return s.outputDir }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// FrameCount returns the number of frames buffered so far.
func (s *Session) FrameCount() int { return s.buffer.Count() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the artifact produced by Stop, zero before that.
func (s *Session) Result() encoding.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// start moves IDLE -> ACTIVE and begins capturing.
func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interval := time.Second / time.Duration(s.frameRate)
	err := s.sched.Start(interval, func(img image.Image, at time.Time) {
		s.buffer.Append(img, at)
		s.metrics.FrameCaptured()
	})
	if err != nil {
		return err
	}
	s.state = StateActive
	return nil
}

// Stop moves ACTIVE -> STOPPING -> IDLE: it stops capture, drains the buffer
// and encodes. It blocks until the artifact is on disk. ok is false when the
// session was not active or no frame was captured; nothing is written then.
func (s *Session) Stop(ctx context.Context) (res encoding.Result, ok bool) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return encoding.Result{}, false
	}
	s.state = StateStopping
	stopDebug := s.stopDebug
	s.mu.Unlock()

	s.sched.Stop()
	if stopDebug != nil {
		stopDebug()
	}
	stoppedAt := time.Now()
	frames := s.buffer.DrainAll()
	if s.logger != nil {
		s.logger.Info("recording.stopped", "session", s.name, "frames", len(frames), "elapsed", stoppedAt.Sub(s.startedAt).Round(time.Millisecond))
	}

	if len(frames) > 0 {
		res = s.enc.Encode(ctx, frames, encoding.Request{
			FrameRate: s.frameRate,
			BaseName:  s.name,
			OutputDir: s.outputDir,
			StartedAt: s.startedAt,
			StoppedAt: stoppedAt,
		})
	} else if s.logger != nil {
		s.logger.Warn("recording.no frames captured, skipping encode", "session", s.name)
	}

	s.mu.Lock()
	s.state = StateIdle
	s.result = res
	s.mu.Unlock()
	return res, res.OK()
}
