package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	n.Notify("Alarm", "07:30", Info)
	n.Notify("Recording failed", "microphone in use", Destructive)

	out := buf.String()
	if !strings.Contains(out, "level=INFO msg=Alarm body=07:30") {
		t.Errorf("missing info record:\n%s", out)
	}
	if !strings.Contains(out, `level=WARN msg="Recording failed"`) {
		t.Errorf("missing warn record:\n%s", out)
	}
}

func TestMulti(t *testing.T) {
	var got []string
	collect := Func(func(title, body string, severity Severity) {
		got = append(got, title+"/"+severity.String())
	})

	Multi{collect, nil, collect}.Notify("Timer", "done", Destructive)

	if len(got) != 2 || got[0] != "Timer/destructive" {
		t.Errorf("got %v", got)
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic.
	Discard.Notify("x", "y", Info)
}
