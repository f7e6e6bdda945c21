package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)

	s.Start("cloning acme/skills")
	s.Start("ignored while running")
	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, spinnerFrames[0]+" cloning acme/skills (0s)") {
		t.Errorf("output %q does not contain the first frame", out)
	}
	if strings.Contains(out, "ignored") {
		t.Errorf("second Start() replaced the message: %q", out)
	}
	if !strings.HasSuffix(out, "\033[1A\r\033[K") {
		t.Errorf("output %q does not end by clearing the line", out)
	}
}

func TestSpinnerStopBeforeFirstFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)
	s.Start("quick")
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("Stop() before the first frame wrote %q, want nothing", buf.String())
	}
}

func TestSpinNoopOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	stop := New(&buf).Spin("fetching")
	time.Sleep(2 * spinnerInterval)
	stop()

	if buf.Len() != 0 {
		t.Errorf("Spin() wrote %q to a non-terminal writer", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{4 * time.Second, "4s"},
		{65 * time.Second, "1m05s"},
		{10*time.Minute + 1500*time.Millisecond, "10m02s"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
