// Package progress provides progress indication components.
//
// A [Spinner] shows the current step of one target resolution; a [Bar]
// counts finished targets when several are resolved at once. Both render
// to stderr so stdout stays clean for classpaths and JSON.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
)

// Enabled reports whether stderr is a terminal progress can be drawn on.
func Enabled() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// program runs a bubbletea model on stderr until stopped. It is shared by
// Spinner and Bar.
type program struct {
	mu      sync.Mutex
	prog    *tea.Program
	updates chan tea.Msg
	done    chan struct{}
	running bool
}

func newProgram() *program {
	return &program{
		updates: make(chan tea.Msg, 10),
		done:    make(chan struct{}),
	}
}

// waitFor returns a command delivering the next update, or quitting when
// the update channel is closed.
func waitFor(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

// start runs model unless already running or stderr is not a terminal.
func (p *program) start(model tea.Model) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || !Enabled() {
		return
	}

	profile := colorprofile.Detect(os.Stderr, os.Environ())
	p.prog = tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)
	p.running = true

	go func() {
		_, _ = p.prog.Run()
		close(p.done)
	}()
}

// send delivers msg without blocking. Updates are dropped while the
// channel is full.
func (p *program) send(msg tea.Msg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	select {
	case p.updates <- msg:
	default:
	}
	return true
}

func (p *program) stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// Close under the mutex so send never writes to a closed channel.
	close(p.updates)
	p.mu.Unlock()

	if p.prog != nil {
		p.prog.Quit()
	}

	select {
	case <-p.done:
	case <-time.After(500 * time.Millisecond):
	}

	fmt.Fprint(os.Stderr, "\r\033[K")
}
