package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner displays an animated progress indicator on stderr. Crawls run
// for minutes, so the elapsed time is rendered next to the message.
// Without a terminal (cron, CI) the animation is replaced by a plain
// line per message change.
type Spinner struct {
	mu      sync.Mutex
	msg     string
	started time.Time
	done    chan struct{}
	tty     bool
}

// NewSpinner creates a new Spinner (not yet running).
func NewSpinner() *Spinner {
	return &Spinner{tty: isatty.IsTerminal(os.Stderr.Fd())}
}

// Start begins the spinner animation with the given message.
func (s *Spinner) Start(msg string) {
	done := make(chan struct{})
	s.mu.Lock()
	s.msg = msg
	s.started = time.Now()
	s.done = done
	s.mu.Unlock()

	if !s.tty {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	go s.run(done)
}

// Update changes the spinner message while it's running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	changed := msg != s.msg
	s.msg = msg
	s.mu.Unlock()

	if !s.tty && changed {
		fmt.Fprintln(os.Stderr, msg)
	}
}

// Stop halts the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	if s.tty {
		fmt.Fprintf(os.Stderr, "\r\033[K")
	}
}

func (s *Spinner) run(done <-chan struct{}) {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.msg
			elapsed := time.Since(s.started).Round(time.Second)
			s.mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%c [%s] %s", frames[i%len(frames)], elapsed, msg)
			i++
		}
	}
}
