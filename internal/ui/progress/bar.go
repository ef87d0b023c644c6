package progress

import (
	"fmt"
	"sync"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/tp/internal/ui/styles"
)

// barUpdate is sent to advance the bar
type barUpdate struct {
	done    int
	message string
}

// Bar counts finished items of a known total.
type Bar struct {
	*program

	countMu  sync.Mutex
	total    int
	finished int
	message  string
}

type barModel struct {
	bar     progress.Model
	total   int
	done    int
	message string
	updates <-chan tea.Msg
}

func (m barModel) Init() tea.Cmd {
	return waitFor(m.updates)
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case barUpdate:
		m.done = msg.done
		m.message = msg.message
		return m, waitFor(m.updates)
	default:
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		return m, cmd
	}
}

func (m barModel) View() tea.View {
	// Format: [████████░░░░░░░░] 3/7 rcp
	return tea.NewView(fmt.Sprintf("%s %d/%d %s", m.bar.ViewAs(fraction(m.done, m.total)), m.done, m.total, m.message))
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(min(done, total)) / float64(total)
}

// NewBar creates a bar for total items.
func NewBar(total int, message string) *Bar {
	return &Bar{program: newProgram(), total: total, message: message}
}

// Start begins drawing the bar. It does nothing when stderr is not a
// terminal.
func (b *Bar) Start() {
	bar := progress.New(
		progress.WithWidth(30),
		progress.WithoutPercentage(),
		progress.WithColors(styles.Primary, styles.Accent),
	)
	done, msg := b.Done()
	b.start(barModel{bar: bar, total: b.total, done: done, message: msg, updates: b.updates})
}

// Increment marks one more item finished and shows message.
func (b *Bar) Increment(message string) {
	b.countMu.Lock()
	b.finished++
	b.message = message
	u := barUpdate{done: b.finished, message: message}
	b.countMu.Unlock()
	b.send(u)
}

// Done returns the finished count and latest message.
func (b *Bar) Done() (int, string) {
	b.countMu.Lock()
	defer b.countMu.Unlock()
	return b.finished, b.message
}

// Total returns the total count for the bar.
func (b *Bar) Total() int {
	return b.total
}

// Stop stops the bar and clears the line.
func (b *Bar) Stop() {
	b.stop()
}
