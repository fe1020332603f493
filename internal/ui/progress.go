package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/reclaim/internal/progress"
)

// refreshInterval throttles redraws to avoid flickering
const refreshInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// LiveProgress draws a single self-updating status line for CLI commands.
// It is disabled when the output is not a terminal.
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	termWidth  int
	enabled    bool
	lastUpdate time.Time
	drawn      bool
	frame      int
}

// NewLiveProgress creates a live progress line on out
func NewLiveProgress(out *os.File) *LiveProgress {
	fd := int(out.Fd())
	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}

	return &LiveProgress{
		out:       out,
		termWidth: width,
		enabled:   term.IsTerminal(fd),
	}
}

// Watch renders every update published by pr until the returned stop
// function is called. stop clears the line.
func (lp *LiveProgress) Watch(pr *progress.ProgressReporter) (stop func()) {
	updates := pr.Subscribe()
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			case u := <-updates:
				switch p := u.(type) {
				case *progress.ScanProgress:
					lp.Update(progress.FormatScanProgress(p), p.Phase != progress.PhaseScanning)
				case *progress.CleanProgress:
					lp.Update(progress.FormatCleanProgress(p), p.Phase != progress.PhaseCleaning)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
			pr.Unsubscribe(updates)
			lp.Finish()
		})
	}
}

// Update redraws the line. Final updates bypass the throttle.
func (lp *LiveProgress) Update(status string, final bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled {
		return
	}

	now := time.Now()
	if !final && now.Sub(lp.lastUpdate) < refreshInterval {
		return
	}
	lp.lastUpdate = now

	lp.frame = (lp.frame + 1) % len(spinnerFrames)
	line := truncate(spinnerFrames[lp.frame]+" "+status, lp.termWidth-1)
	fmt.Fprintf(lp.out, "\r\033[K%s", line)
	lp.drawn = true
}

// Finish clears the progress line
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.enabled && lp.drawn {
		fmt.Fprint(lp.out, "\r\033[K")
		lp.drawn = false
	}
}

// SetEnabled enables or disables live progress
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// truncate shortens s to width runes
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width < 4 {
		return strings.Repeat(".", max(width, 0))
	}
	return string(r[:width-3]) + "..."
}
