// Package progress renders terminal feedback for long asset downloads.
//
// Canton tarballs run to hundreds of megabytes, so sync and verify
// show a transfer bar while hashing when stdout is a terminal. In CI
// and piped runs the package stays silent.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Overridable for testing.
var IsTerminalFunc = term.IsTerminal

const barWidth = 30

// Writer counts bytes flowing into sink and paints a progress line.
// For tapgen the sink is the SHA-256 hash, not a file: nothing is
// ever written to disk.
type Writer struct {
	sink    io.Writer
	out     io.Writer
	total   int64
	written int64
	start   time.Time
	last    time.Time
	mu      sync.Mutex
}

// NewWriter wraps sink with progress display to out. A total <= 0
// disables the percentage and ETA.
func NewWriter(sink io.Writer, total int64, out io.Writer) *Writer {
	return &Writer{
		sink:  sink,
		out:   out,
		total: total,
		start: time.Now(),
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.sink.Write(p)
	if n > 0 {
		w.mu.Lock()
		w.written += int64(n)
		w.render()
		w.mu.Unlock()
	}
	return n, err
}

// Finish clears the progress line.
func (w *Writer) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "\r%s\r", strings.Repeat(" ", 80))
}

// render paints the current state, rate limited to avoid flicker.
func (w *Writer) render() {
	now := time.Now()
	if now.Sub(w.last) < 100*time.Millisecond {
		return
	}
	w.last = now

	elapsed := now.Sub(w.start).Seconds()
	if elapsed < 0.1 {
		return
	}
	speed := float64(w.written) / elapsed

	var line string
	if w.total > 0 {
		percent := float64(w.written) / float64(w.total) * 100
		if percent > 100 {
			percent = 100
		}

		eta := "--:--"
		if speed > 0 {
			remaining := float64(w.total-w.written) / speed
			if remaining < 0 {
				remaining = 0
			}
			eta = formatDuration(remaining)
		}

		filled := int(percent / 100 * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled)
		if filled < barWidth {
			bar += ">" + strings.Repeat(" ", barWidth-filled-1)
		}

		line = fmt.Sprintf("\r   [%s] %3.0f%% (%s/%s) %s/s ETA: %s",
			bar, percent,
			formatBytes(w.written), formatBytes(w.total),
			formatBytes(int64(speed)), eta)
	} else {
		line = fmt.Sprintf("\r   Downloaded: %s (%s/s)",
			formatBytes(w.written), formatBytes(int64(speed)))
	}

	if len(line) < 80 {
		line += strings.Repeat(" ", 80-len(line))
	}
	_, _ = fmt.Fprint(w.out, line)
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/gb)
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/mb)
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/kb)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatDuration renders seconds as M:SS, or H:MM:SS past the hour.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress reports whether stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}
