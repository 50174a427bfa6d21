package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeDaemon accepts one connection and hands it to script along with a
// reader over the client's lines.
func fakeDaemon(t *testing.T, script func(conn net.Conn, in *bufio.Reader)) string {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "fake.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	t.Cleanup(func() {
		ln.Close()
		<-done
	})

	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn, bufio.NewReader(conn))
	}()
	return sock
}

func writeLine(conn net.Conn, v any) {
	data, _ := json.Marshal(v)
	conn.Write(append(data, '\n'))
}

// replyOnce answers the first command with resp and reports what it read.
func replyOnce(resp Response, got chan<- Command) func(net.Conn, *bufio.Reader) {
	return func(conn net.Conn, in *bufio.Reader) {
		line, err := in.ReadBytes('\n')
		if err != nil {
			return
		}
		var cmd Command
		json.Unmarshal(line, &cmd)
		if got != nil {
			got <- cmd
		}
		writeLine(conn, resp)
	}
}

func dialFake(t *testing.T, sock string) *Client {
	t.Helper()
	c, err := Connect(sock)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientSendCommand(t *testing.T) {
	sent := make(chan Command, 1)
	sock := fakeDaemon(t, replyOnce(Response{
		OK:     true,
		Status: "alarm 07:30, timer off, 0 pending reminders",
		Alarm:  &AlarmInfo{Armed: true, Time: "07:30"},
	}, sent))
	c := dialFake(t, sock)

	got, err := c.SendCommand(Command{Cmd: CmdSetAlarm, Time: "07:30", Sound: "/tmp/wake.wav"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.OK || got.Alarm == nil || got.Alarm.Time != "07:30" {
		t.Errorf("response = %+v", got)
	}

	cmd := <-sent
	if cmd.Cmd != CmdSetAlarm || cmd.Time != "07:30" || cmd.Sound != "/tmp/wake.wav" {
		t.Errorf("daemon read %+v", cmd)
	}
}

func TestClientConnectFailure(t *testing.T) {
	if _, err := Connect(filepath.Join(t.TempDir(), "missing.sock")); err == nil {
		t.Error("expected error connecting to a missing socket")
	}
}

func TestClientCallRefused(t *testing.T) {
	sock := fakeDaemon(t, replyOnce(Response{Error: "timer is not running"}, nil))
	c := dialFake(t, sock)

	_, err := c.Call(Command{Cmd: CmdPauseTimer})
	if err == nil || err.Error() != "pause_timer: timer is not running" {
		t.Errorf("err = %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	hold := make(chan struct{})
	sock := fakeDaemon(t, func(conn net.Conn, in *bufio.Reader) {
		in.ReadBytes('\n')
		<-hold
	})
	defer close(hold)
	c := dialFake(t, sock)
	c.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.SendCommand(Command{Cmd: CmdStatus})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !strings.HasPrefix(err.Error(), "status response") {
		t.Errorf("err = %q", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("took %v", elapsed)
	}
}

func TestClientReadEvents(t *testing.T) {
	sock := fakeDaemon(t, func(conn net.Conn, in *bufio.Reader) {
		in.ReadBytes('\n')
		writeLine(conn, Response{OK: true})
		writeLine(conn, Event{Event: "armed", Kind: "alarm"})
		writeLine(conn, Event{Event: "fired", Kind: "alarm", AssetID: "01J"})
	})
	c := dialFake(t, sock)

	if _, err := c.Call(Command{Cmd: CmdSubscribe}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := []Event{
		{Event: "armed", Kind: "alarm"},
		{Event: "fired", Kind: "alarm", AssetID: "01J"},
	}
	for i, w := range want {
		ev, err := c.ReadEvent()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if ev != w {
			t.Errorf("event %d = %+v, want %+v", i, ev, w)
		}
	}

	if _, err := c.ReadEvent(); !errors.Is(err, ErrClosed) {
		t.Errorf("after hangup err = %v, want ErrClosed", err)
	}
}

func TestClientBadResponse(t *testing.T) {
	sock := fakeDaemon(t, func(conn net.Conn, in *bufio.Reader) {
		in.ReadBytes('\n')
		conn.Write([]byte("not json\n"))
	})
	c := dialFake(t, sock)

	if _, err := c.SendCommand(Command{Cmd: CmdStatus}); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("err = %v, want decode error", err)
	}
}
