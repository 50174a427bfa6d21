package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Stream is a live microphone feed.
type Stream interface {
	io.Reader
}

// Microphone hands out exclusive streams from an input device.
type Microphone interface {
	// Acquire opens the device. It fails with ErrPermissionDenied or
	// ErrDeviceUnavailable.
	Acquire(ctx context.Context) (Stream, error)

	// Release stops the stream and frees the device.
	Release(stream Stream) error
}

// exclusiveMicrophone allows one outstanding stream per process.
type exclusiveMicrophone struct {
	mu     sync.Mutex
	inner  Microphone
	holder Stream
	busy   bool
}

// Exclusive wraps m so at most one stream is held at a time. A second
// Acquire while the device is held fails with ErrDeviceUnavailable.
func Exclusive(m Microphone) Microphone {
	if _, ok := m.(*exclusiveMicrophone); ok {
		return m
	}
	return &exclusiveMicrophone{inner: m}
}

func (e *exclusiveMicrophone) Acquire(ctx context.Context) (Stream, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: microphone in use by another recording", ErrDeviceUnavailable)
	}
	e.busy = true
	e.mu.Unlock()

	stream, err := e.inner.Acquire(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.busy = false
		return nil, err
	}
	e.holder = stream
	return stream, nil
}

func (e *exclusiveMicrophone) Release(stream Stream) error {
	e.mu.Lock()
	if !e.busy || stream != e.holder {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	err := e.inner.Release(stream)

	e.mu.Lock()
	e.holder = nil
	e.busy = false
	e.mu.Unlock()
	return err
}
