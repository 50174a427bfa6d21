package audio

import (
	"context"
	"errors"
	"io"
	"sync"
)

// fakeStream yields queued chunks and reports EOF once closed and drained.
type fakeStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool
}

func newFakeStream(chunks ...[]byte) *fakeStream {
	s := &fakeStream{queue: chunks}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.queue[0])
	s.queue = s.queue[1:]
	return n, nil
}

func (s *fakeStream) push(b []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, b)
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *fakeStream) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

type fakeMic struct {
	mu       sync.Mutex
	err      error
	chunks   [][]byte
	acquired int
	released int
	streams  []*fakeStream

	// When gate is set, Acquire signals entered and blocks until gate
	// is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (m *fakeMic) Acquire(ctx context.Context) (Stream, error) {
	if m.gate != nil {
		m.entered <- struct{}{}
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.acquired++
	s := newFakeStream(m.chunks...)
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *fakeMic) Release(stream Stream) error {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
	stream.(*fakeStream).close()
	return nil
}

func (m *fakeMic) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.released
}

type fakeSink struct {
	played []Asset
	err    error
}

func (s *fakeSink) Play(ctx context.Context, asset Asset) error {
	if s.err != nil {
		return s.err
	}
	s.played = append(s.played, asset)
	return nil
}

var errAutoplay = errors.New("autoplay blocked")
