package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a one-line status while a step runs. Without colors it
// prints the prefix once and no frames.
type Spinner struct {
	frames []rune
	out    io.Writer
	colors *ColorConfig
	delay  time.Duration

	mu     sync.Mutex
	prefix string
	idx    int
	stop   chan struct{}
	done   chan struct{}
}

func NewSpinner(out io.Writer, c *ColorConfig) *Spinner {
	if out == nil {
		out = io.Discard
	}
	if c == nil {
		c = &ColorConfig{Theme: DefaultTheme()}
	}
	return &Spinner{
		frames: []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'},
		out:    out,
		colors: c,
		delay:  120 * time.Millisecond,
	}
}

func (s *Spinner) SetDelay(d time.Duration) {
	if d > 0 {
		s.delay = d
	}
}

// Tick renders the next frame.
func (s *Spinner) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.colors.Enabled {
		return
	}
	frame := s.frames[s.idx%len(s.frames)]
	s.idx++
	fmt.Fprintf(s.out, "\r%c %s", frame, s.prefix)
}

// Start shows prefix and animates it until Stop.
func (s *Spinner) Start(prefix string) {
	s.Stop()
	s.mu.Lock()
	s.prefix = prefix
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	if !s.colors.Enabled {
		fmt.Fprintf(s.out, "  %s...\n", prefix)
	}
	s.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(s.delay)
		defer t.Stop()
		s.Tick()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.Tick()
			}
		}
	}()
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	s.mu.Lock()
	if s.colors.Enabled {
		fmt.Fprint(s.out, "\r\033[K")
	}
	s.mu.Unlock()
}
