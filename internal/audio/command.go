package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// releaseGrace is how long a recorder gets to flush after an interrupt.
const releaseGrace = 2 * time.Second

// DefaultRecorderCommand returns the recorder used when none is configured.
// It must write audio to stdout until interrupted.
func DefaultRecorderCommand() []string {
	if runtime.GOOS == "linux" {
		return []string{"arecord", "-q", "-f", "cd", "-t", "wav", "-"}
	}
	return []string{"rec", "-q", "-t", "wav", "-"}
}

// DefaultPlayerCommand returns the player used when none is configured.
// The sound file path is appended as the last argument.
func DefaultPlayerCommand() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"aplay", "-q"}
	case "darwin":
		return []string{"afplay"}
	}
	return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
}

// CommandMicrophone records by running an external program and reading its
// stdout.
type CommandMicrophone struct {
	Command []string
	Logger  *slog.Logger

	mu      sync.Mutex
	streams map[Stream]*exec.Cmd
}

// NewCommandMicrophone returns a microphone backed by command, or the
// platform default when command is empty.
func NewCommandMicrophone(command []string, logger *slog.Logger) *CommandMicrophone {
	if len(command) == 0 {
		command = DefaultRecorderCommand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandMicrophone{Command: command, Logger: logger}
}

// commandStream reads the recorder's stdout and closes its end of the pipe
// once the recorder has exited and the pipe is drained.
type commandStream struct {
	r *os.File
}

func (s *commandStream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil {
		s.r.Close()
	}
	return n, err
}

// Acquire starts the recorder process.
func (m *CommandMicrophone) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	path, err := exec.LookPath(m.Command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, m.Command[0])
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	// The recorder outlives ctx; Release owns its lifetime.
	cmd := exec.Command(path, m.Command[1:]...)
	cmd.Stdout = w
	err = cmd.Start()
	w.Close()
	if err != nil {
		r.Close()
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	stream := &commandStream{r: r}
	m.mu.Lock()
	if m.streams == nil {
		m.streams = make(map[Stream]*exec.Cmd)
	}
	m.streams[stream] = cmd
	m.mu.Unlock()

	m.Logger.Debug("recorder started", "command", m.Command[0], "pid", cmd.Process.Pid)
	return stream, nil
}

// Release interrupts the recorder, giving it releaseGrace to exit before
// killing it.
func (m *CommandMicrophone) Release(stream Stream) error {
	m.mu.Lock()
	cmd, ok := m.streams[stream]
	delete(m.streams, stream)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}

	select {
	case err := <-done:
		m.Logger.Debug("recorder stopped", "pid", cmd.Process.Pid, "err", err)
	case <-time.After(releaseGrace):
		_ = cmd.Process.Kill()
		<-done
		m.Logger.Warn("recorder killed after grace period", "pid", cmd.Process.Pid)
	}
	return nil
}

// CommandSink plays assets by writing them to a temp file and running an
// external player on it.
type CommandSink struct {
	Command []string
	TempDir string
	// Wait makes Play block until the player exits.
	Wait    bool
	Logger  *slog.Logger
}

// NewCommandSink returns a sink backed by command, or the platform default
// when command is empty.
func NewCommandSink(command []string, logger *slog.Logger) *CommandSink {
	if len(command) == 0 {
		command = DefaultPlayerCommand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSink{Command: command, Logger: logger}
}

// Play starts the player. It returns without waiting for the player to
// finish unless Wait is set.
func (s *CommandSink) Play(ctx context.Context, asset Asset) error {
	if !asset.Valid() {
		return fmt.Errorf("%w: empty asset", ErrPlaybackFailed)
	}
	path, err := exec.LookPath(s.Command[0])
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrPlaybackFailed, s.Command[0])
	}

	f, err := os.CreateTemp(s.TempDir, "chime-*"+asset.Extension())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	name := f.Name()
	if _, err := f.Write(asset.Data); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}

	args := append(append([]string(nil), s.Command[1:]...), name)
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}

	if s.Wait {
		defer os.Remove(name)
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
		}
		return nil
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			s.Logger.Warn("player exited with error", "asset", asset.ID, "err", err)
		}
		os.Remove(name)
	}()
	return nil
}
