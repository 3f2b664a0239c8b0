package spinner

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Spinner renders progress on stderr so command output on stdout stays
// clean. On a non-TTY stderr every method is a no-op.
type Spinner struct {
	chars    []string
	delay    time.Duration
	message  string
	enabled  bool
	active   bool
	mu       sync.Mutex
	stopChan chan bool
}

func New(message string) *Spinner {
	fd := os.Stderr.Fd()
	return &Spinner{
		chars:    []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:    100 * time.Millisecond,
		message:  message,
		enabled:  isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		stopChan: make(chan bool, 1),
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	if !s.enabled || s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		i := 0
		for {
			select {
			case <-s.stopChan:
				return
			default:
				s.mu.Lock()
				if !s.active {
					s.mu.Unlock()
					return
				}
				fmt.Fprintf(os.Stderr, "\r%s %s", s.chars[i%len(s.chars)], s.message)
				s.mu.Unlock()
				i++
				time.Sleep(s.delay)
			}
		}
	}()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.stopChan <- true

	// Clear the spinner line completely and return the cursor.
	fmt.Fprint(os.Stderr, "\r"+strings.Repeat(" ", len(s.message)+10)+"\r")
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
