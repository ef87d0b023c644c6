package progress

import (
	"fmt"
	"sync"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/tp/internal/ui/styles"
)

// messageUpdate is sent to update the spinner message
type messageUpdate string

// Spinner shows an animated message while a target resolves.
type Spinner struct {
	*program

	msgMu   sync.Mutex
	lastMsg string
}

type spinnerModel struct {
	spinner spinner.Model
	message string
	updates <-chan tea.Msg
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitFor(m.updates))
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messageUpdate:
		m.message = string(msg)
		return m, waitFor(m.updates)
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() tea.View {
	if m.message == "" {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s", m.spinner.View(), m.message))
}

// NewSpinner creates a new spinner with the given message
func NewSpinner(message string) *Spinner {
	return &Spinner{program: newProgram(), lastMsg: message}
}

// Start begins the spinner animation. It does nothing when stderr is not
// a terminal.
func (s *Spinner) Start() {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.PrimaryStyle),
	)
	s.start(spinnerModel{spinner: sp, message: s.Message(), updates: s.updates})
}

// UpdateMessage changes the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.msgMu.Lock()
	s.lastMsg = message
	s.msgMu.Unlock()
	s.send(messageUpdate(message))
}

// Message returns the latest message.
func (s *Spinner) Message() string {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	return s.lastMsg
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	s.stop()
}
