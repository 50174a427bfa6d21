package audio

import "errors"

var (
	// ErrPermissionDenied means the microphone refused access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDeviceUnavailable means no usable microphone could be acquired.
	ErrDeviceUnavailable = errors.New("microphone unavailable")

	// ErrAlreadyRecording means a capture session is already active.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrCaptureClosed means the session was closed before the
	// microphone was acquired.
	ErrCaptureClosed = errors.New("capture session closed")

	// ErrPlaybackFailed means an asset could not be played.
	ErrPlaybackFailed = errors.New("playback failed")
)
