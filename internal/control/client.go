package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

var (
	// ErrClosed is returned when the server hangs up.
	ErrClosed = errors.New("connection closed")

	// ErrTimeout is returned when the daemon does not answer a command in
	// time.
	ErrTimeout = errors.New("daemon did not respond")
)

// DefaultTimeout bounds dialing and each command round trip.
const DefaultTimeout = 5 * time.Second

// Client talks to a chime daemon over a Unix socket. Commands are
// serialized; events are read by one goroutine after subscribe.
type Client struct {
	// Timeout bounds each SendCommand. Zero waits forever. A client that
	// timed out must be closed.
	Timeout time.Duration

	mu    sync.Mutex
	conn  net.Conn
	lines *bufio.Scanner
}

// Connect dials the daemon socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	lines := bufio.NewScanner(conn)
	lines.Buffer(make([]byte, 64*1024), maxLine)
	return &Client{Timeout: DefaultTimeout, conn: conn, lines: lines}, nil
}

// Close hangs up.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendCommand writes cmd and waits for its response line. A refused
// command is a successful round trip; see Call.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s: %w", cmd.Cmd, err)
	}

	if c.Timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.Timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return Response{}, c.wrap("send "+cmd.Cmd, err)
	}

	var resp Response
	if err := c.next(&resp); err != nil {
		return Response{}, c.wrap(cmd.Cmd+" response", err)
	}
	return resp, nil
}

// Call is SendCommand with a refused command reported as an error of the
// form "<cmd>: <reason>".
func (c *Client) Call(cmd Command) (Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("%s: %s", cmd.Cmd, resp.Error)
	}
	return resp, nil
}

// ReadEvent blocks for the next streamed event. Only valid after a
// successful subscribe.
func (c *Client) ReadEvent() (Event, error) {
	var ev Event
	if err := c.next(&ev); err != nil {
		return Event{}, c.wrap("event", err)
	}
	return ev, nil
}

// next decodes one NDJSON line into v.
func (c *Client) next(v any) error {
	if !c.lines.Scan() {
		if err := c.lines.Err(); err != nil {
			return err
		}
		return ErrClosed
	}
	if err := json.Unmarshal(c.lines.Bytes(), v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) wrap(what string, err error) error {
	switch {
	case errors.Is(err, ErrClosed):
		return err
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%s: %w", what, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}
