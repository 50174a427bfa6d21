package audio

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"
)

// CaptureState is the lifecycle state of a CaptureSession.
type CaptureState string

const (
	CaptureIdle       CaptureState = "idle"
	CaptureRecording  CaptureState = "recording"
	CaptureFinalizing CaptureState = "finalizing"
)

const chunkSize = 4096

// drainTimeout bounds how long Stop waits for the stream to hit EOF after
// the microphone is released.
const drainTimeout = 3 * time.Second

// CaptureSession records one clip at a time from a Microphone.
type CaptureSession struct {
	mu        sync.Mutex
	mic       Microphone
	mimeType  string
	logger    *slog.Logger
	state     CaptureState
	acquiring bool
	abandoned bool
	stopping  bool
	stream    Stream
	chunks    [][]byte
	size      int
	pumpDone  chan struct{}
}

// CaptureOptions configures a CaptureSession.
type CaptureOptions struct {
	MimeType string
	Logger   *slog.Logger
}

// NewCaptureSession returns an idle session recording from mic.
func NewCaptureSession(mic Microphone, opts CaptureOptions) *CaptureSession {
	if opts.MimeType == "" {
		opts.MimeType = DefaultMimeType
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &CaptureSession{
		mic:      mic,
		mimeType: opts.MimeType,
		logger:   opts.Logger,
		state:    CaptureIdle,
	}
}

// State returns the current capture state.
func (s *CaptureSession) State() CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recording reports whether the session is capturing.
func (s *CaptureSession) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == CaptureRecording && !s.stopping
}

// Bytes returns how many bytes have been captured so far.
func (s *CaptureSession) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Start acquires the microphone and begins accumulating chunks. On error
// the session stays idle.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != CaptureIdle || s.acquiring {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.acquiring = true
	s.mu.Unlock()

	stream, err := s.mic.Acquire(ctx)

	s.mu.Lock()
	s.acquiring = false
	if err != nil {
		s.abandoned = false
		s.mu.Unlock()
		s.logger.Warn("microphone acquire failed", "err", err)
		return err
	}
	if s.abandoned {
		// Closed while the acquire was in flight.
		s.abandoned = false
		s.mu.Unlock()
		if err := s.mic.Release(stream); err != nil {
			s.logger.Warn("microphone release failed", "err", err)
		}
		s.logger.Info("recording discarded before start")
		return ErrCaptureClosed
	}
	defer s.mu.Unlock()

	s.state = CaptureRecording
	s.stream = stream
	s.chunks = nil
	s.size = 0
	s.pumpDone = make(chan struct{})
	go s.pump(stream, s.pumpDone)

	s.logger.Info("recording started")
	return nil
}

func (s *CaptureSession) pump(stream Stream, done chan struct{}) {
	defer close(done)
	buf := make([]byte, chunkSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			s.append(stream, buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *CaptureSession) append(stream Stream, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != stream || s.state != CaptureRecording {
		return
	}
	s.chunks = append(s.chunks, bytes.Clone(data))
	s.size += len(data)
}

// Stop releases the microphone and returns the recorded asset. Stop on an
// idle session is a no-op returning (nil, nil).
func (s *CaptureSession) Stop() (*Asset, error) {
	s.mu.Lock()
	if s.state != CaptureRecording || s.stopping {
		s.mu.Unlock()
		return nil, nil
	}
	// Stay in Recording until the released stream drains so its tail is
	// kept.
	s.stopping = true
	stream, done := s.stream, s.pumpDone
	s.mu.Unlock()

	releaseErr := s.mic.Release(stream)
	if releaseErr != nil {
		s.logger.Warn("microphone release failed", "err", releaseErr)
	}

	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.logger.Warn("recording stream did not drain")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = CaptureFinalizing
	s.stopping = false
	data := bytes.Join(s.chunks, nil)
	s.chunks = nil
	s.size = 0
	s.stream = nil
	s.pumpDone = nil
	s.state = CaptureIdle

	asset := NewAsset(s.mimeType, data)
	s.logger.Info("recording finished", "asset", asset.ID, "bytes", len(data))
	return asset, nil
}

// Close abandons any recording in progress and releases the microphone.
// A Start still waiting on the microphone releases the stream once it
// arrives and fails with ErrCaptureClosed.
func (s *CaptureSession) Close() error {
	s.mu.Lock()
	if s.acquiring {
		s.abandoned = true
		s.mu.Unlock()
		return nil
	}
	if s.state != CaptureRecording || s.stopping {
		s.mu.Unlock()
		return nil
	}
	stream := s.stream
	s.state = CaptureIdle
	s.stream = nil
	s.chunks = nil
	s.size = 0
	s.pumpDone = nil
	s.mu.Unlock()

	s.logger.Info("recording discarded")
	return s.mic.Release(stream)
}
