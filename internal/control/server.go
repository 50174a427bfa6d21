package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/engine"
	"github.com/jwulff/chime/internal/feature"
)

const maxLine = 1024 * 1024

// ErrAlreadyRunning means another daemon answers on the socket.
var ErrAlreadyRunning = errors.New("daemon already running")

// Server accepts NDJSON commands for an engine.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger

	mu     sync.Mutex
	ln     net.Listener
	path   string
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewServer returns a server for e.
func NewServer(e *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: e, logger: logger, conns: make(map[net.Conn]struct{})}
}

// Listen binds the Unix socket at path. A stale socket file is removed; a
// live one fails with ErrAlreadyRunning.
func (s *Server) Listen(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.DialTimeout("unix", path, 500*time.Millisecond); err == nil {
			conn.Close()
			return fmt.Errorf("%w on %s", ErrAlreadyRunning, path)
		}
		os.Remove(path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.mu.Lock()
	s.ln = ln
	s.path = path
	s.mu.Unlock()
	s.logger.Info("listening", "socket", path)
	return nil
}

// Serve accepts connections until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve: not listening")
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Close stops accepting, drops open connections and removes the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.ln
	conns := s.conns
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for conn := range conns {
		conn.Close()
	}
	if s.path != "" {
		os.Remove(s.path)
	}
	return err
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.forget(conn)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			enc.Encode(Response{Error: fmt.Sprintf("bad command: %v", err)})
			continue
		}

		if cmd.Cmd == CmdSubscribe {
			events := s.engine.Subscribe(64)
			defer s.engine.Unsubscribe(events)
			if err := enc.Encode(Response{OK: true}); err != nil {
				return
			}
			s.stream(conn, enc, events, cmd.Events)
			return
		}

		resp := s.dispatch(ctx, cmd)
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("write response failed", "err", err)
			return
		}
	}
}

// stream forwards engine events until the client hangs up or the engine
// stops.
func (s *Server) stream(conn net.Conn, enc *json.Encoder, events <-chan feature.Event, filter []string) {
	gone := make(chan struct{})
	go func() {
		io.Copy(io.Discard, conn)
		close(gone)
	}()

	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if len(filter) > 0 && !slices.Contains(filter, string(ev.Type)) {
				continue
			}
			if err := enc.Encode(FromEvent(ev)); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(ctx context.Context, cmd Command) Response {
	resp, err := s.run(ctx, cmd)
	if err != nil {
		s.logger.Info("command refused", "cmd", cmd.Cmd, "err", err)
		return Response{Error: err.Error()}
	}
	resp.OK = true
	return resp
}

func (s *Server) run(ctx context.Context, cmd Command) (Response, error) {
	e := s.engine
	switch cmd.Cmd {
	case CmdStatus:
		st, err := e.Status(ctx)
		if err != nil {
			return Response{}, err
		}
		return FromStatus(st), nil

	case CmdSetAlarm:
		asset, err := loadSound(cmd.Sound)
		if err != nil {
			return Response{}, err
		}
		return Response{}, e.SetAlarm(ctx, cmd.Time, asset)

	case CmdCancelAlarm:
		return Response{}, e.CancelAlarm(ctx)

	case CmdStartTimer:
		if cmd.Seconds == nil {
			return Response{}, fmt.Errorf("%w: seconds required", feature.ErrInvalidConfiguration)
		}
		target, err := engine.TimerTarget(float64(*cmd.Seconds))
		if err != nil {
			return Response{}, err
		}
		asset, err := loadSound(cmd.Sound)
		if err != nil {
			return Response{}, err
		}
		return Response{}, e.StartTimer(ctx, target, asset)

	case CmdPauseTimer:
		return Response{}, e.PauseTimer(ctx)

	case CmdResumeTimer:
		return Response{}, e.ResumeTimer(ctx)

	case CmdResetTimer:
		return Response{}, e.ResetTimer(ctx)

	case CmdAddReminder:
		date, err := parseDate(cmd.Date)
		if err != nil {
			return Response{}, err
		}
		asset, err := loadSound(cmd.Sound)
		if err != nil {
			return Response{}, err
		}
		r, err := e.AddReminder(ctx, date, cmd.Time, cmd.Note, asset)
		if err != nil {
			return Response{}, err
		}
		info := FromReminder(r, true)
		return Response{Reminder: &info}, nil

	case CmdListReminders:
		date, err := parseDate(cmd.Date)
		if err != nil {
			return Response{}, err
		}
		list, err := e.Reminders(ctx, date)
		if err != nil {
			return Response{}, err
		}
		resp := Response{Reminders: make([]ReminderInfo, 0, len(list))}
		pending := 0
		for _, entry := range list {
			resp.Reminders = append(resp.Reminders, FromReminder(entry.Reminder, entry.Pending))
			if entry.Pending {
				pending++
			}
		}
		resp.Pending = IntPtr(pending)
		return resp, nil

	case CmdPlayReminder:
		return Response{}, e.PlayReminder(ctx, cmd.ID)
	}
	return Response{}, fmt.Errorf("unknown command %q", cmd.Cmd)
}

func parseDate(s string) (clock.Date, error) {
	if s == "" {
		return clock.Date{}, fmt.Errorf("%w: date required", feature.ErrInvalidConfiguration)
	}
	d, err := clock.ParseDate(s)
	if err != nil {
		return clock.Date{}, fmt.Errorf("%w: %v", feature.ErrInvalidConfiguration, err)
	}
	return d, nil
}

// loadSound reads an audio file from the daemon's filesystem. An empty path
// means no recording.
func loadSound(path string) (*audio.Asset, error) {
	if path == "" {
		return nil, nil
	}
	return audio.LoadFile(path)
}
