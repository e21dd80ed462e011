package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// Spinner animates a message during long operations, like verify
// walking the manifest. Outside a terminal each message prints once
// with no animation.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	message string
	done    chan struct{}
	stopped bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to out, defaulting to stderr.
func NewSpinner(out io.Writer) *Spinner {
	if out == nil {
		out = os.Stderr
	}
	return &Spinner{
		out:   out,
		done:  make(chan struct{}),
		isTTY: ShouldShowProgress(),
	}
}

// Start begins animating with the given message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	s.stopped = false
	s.mu.Unlock()

	if !s.isTTY {
		fmt.Fprintf(s.out, "%s\n", message)
		return
	}
	go s.animate()
}

// SetMessage swaps the message while the spinner runs. Used by verify
// to show which manifest entry is being checked.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if !s.isTTY && !s.stopped {
		fmt.Fprintf(s.out, "%s\n", message)
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	if s.isTTY {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", 80))
	}
}

// StopWithMessage halts the animation and prints a final line.
func (s *Spinner) StopWithMessage(message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	if s.isTTY {
		fmt.Fprintf(s.out, "\r%s\r%s\n", strings.Repeat(" ", 80), message)
	} else {
		fmt.Fprintf(s.out, "%s\n", message)
	}
}

func (s *Spinner) animate() {
	frame := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()

			line := fmt.Sprintf("\r%s %s", spinnerFrames[frame%len(spinnerFrames)], msg)
			if len(line) < 80 {
				line += strings.Repeat(" ", 80-len(line))
			}
			fmt.Fprint(s.out, line)
			frame++
		}
	}
}
