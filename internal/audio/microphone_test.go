package audio

import (
	"context"
	"errors"
	"testing"
)

func TestExclusiveRejectsSecondAcquire(t *testing.T) {
	mic := Exclusive(&fakeMic{})
	ctx := context.Background()

	alarm := NewCaptureSession(mic, CaptureOptions{})
	reminder := NewCaptureSession(mic, CaptureOptions{})

	if err := alarm.Start(ctx); err != nil {
		t.Fatalf("alarm Start: %v", err)
	}
	err := reminder.Start(ctx)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("reminder Start err = %v, want ErrDeviceUnavailable", err)
	}
	if reminder.State() != CaptureIdle {
		t.Errorf("rejected session state = %s", reminder.State())
	}

	if _, err := alarm.Stop(); err != nil {
		t.Fatalf("alarm Stop: %v", err)
	}
	if err := reminder.Start(ctx); err != nil {
		t.Fatalf("reminder Start after release: %v", err)
	}
	reminder.Close()
}

func TestExclusiveFreesOnAcquireError(t *testing.T) {
	inner := &fakeMic{err: ErrPermissionDenied}
	mic := Exclusive(inner)

	if _, err := mic.Acquire(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v", err)
	}
	inner.err = nil
	if _, err := mic.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after failure: %v", err)
	}
}

func TestExclusiveIsIdempotent(t *testing.T) {
	mic := Exclusive(&fakeMic{})
	if Exclusive(mic) != mic {
		t.Error("wrapping twice should return the same microphone")
	}
}

func TestCommandMicrophoneMissingBinary(t *testing.T) {
	mic := NewCommandMicrophone([]string{"chime-no-such-recorder"}, nil)
	_, err := mic.Acquire(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("err = %v, want ErrDeviceUnavailable", err)
	}
}
