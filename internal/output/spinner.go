package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner frames using braille characters
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner redraws one status line while a long operation runs.
type Spinner struct {
	out   io.Writer
	mu    sync.Mutex
	on    bool
	stop  chan struct{}
	done  chan struct{}
	start time.Time
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out}
}

// Start begins drawing msg. Starting a running spinner does nothing.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	if s.on {
		s.mu.Unlock()
		return
	}
	s.on = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.start = time.Now()
	stop, done, start := s.stop, s.done, s.start
	s.mu.Unlock()

	go func() {
		defer close(done)
		frame := 0
		drawn := false
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				if drawn {
					// Move up and clear the spinner line
					fmt.Fprint(s.out, "\033[1A\r\033[K")
				}
				return
			case <-ticker.C:
				if drawn {
					fmt.Fprint(s.out, "\033[1A\r\033[K")
				}
				fmt.Fprintf(s.out, "%s %s (%s)\n", spinnerFrames[frame], msg, formatElapsed(time.Since(start)))
				drawn = true
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// Stop clears the spinner line and waits for the drawing goroutine to exit.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.on {
		s.mu.Unlock()
		return
	}
	s.on = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
}

// Spin starts a spinner on terminals and returns the function that stops
// it. On other writers it returns a no-op.
func (p *Printer) Spin(msg string) func() {
	if !p.color {
		return func() {}
	}
	s := NewSpinner(p.w)
	s.Start(msg)
	return s.Stop
}

// formatElapsed formats a duration as "4s" or "1m05s".
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
