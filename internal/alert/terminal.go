package alert

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/robibiruk/meditrack/internal/model"
)

// Styles for the terminal popup.
var (
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorMuted   = lipgloss.Color("#6B7280") // Gray

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Padding(0, 2)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Terminal raises alerts as a styled card on the terminal. When attached to
// an interactive input it reads single-letter responses; otherwise the card
// is printed and the timeout resolves the alert.
type Terminal struct {
	out     io.Writer
	in      io.Reader
	timeout time.Duration

	mu      sync.Mutex
	current *Handle
	started bool
}

// TerminalOptions configures a terminal alerter.
type TerminalOptions struct {
	// Output defaults to stdout.
	Output io.Writer
	// Input defaults to stdin. Set to nil to disable interactive replies.
	Input io.Reader
	// Timeout bounds an unacknowledged alert. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// NewTerminal creates a terminal alerter.
func NewTerminal(opts TerminalOptions) *Terminal {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	in := opts.Input
	if in == nil && interactive() {
		in = os.Stdin
	}
	return &Terminal{out: out, in: in, timeout: opts.Timeout}
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Raise displays the popup. A newly raised alert replaces the pending one,
// which is dismissed, so at most one popup is up at a time.
func (t *Terminal) Raise(r *model.Reminder) (*Handle, error) {
	h := NewHandle(r, t.timeout)

	t.mu.Lock()
	prev := t.current
	t.current = h
	if !t.started && t.in != nil {
		t.started = true
		go t.readReplies()
	}
	t.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	t.render(r)
	return h, nil
}

func (t *Terminal) render(r *model.Reminder) {
	body := fmt.Sprintf("%s\n%s, it is %s.\n\n%s",
		styleTitle.Render("Time to take "+r.Medication),
		r.Name, r.Time,
		styleHelp.Render("[t] mark taken  [d] dismiss"))
	fmt.Fprintln(t.out, styleCard.Render(body))
}

// readReplies consumes single-letter responses for the pending alert.
func (t *Terminal) readReplies() {
	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		reply := strings.ToLower(strings.TrimSpace(scanner.Text()))

		t.mu.Lock()
		h := t.current
		t.mu.Unlock()
		if h == nil {
			continue
		}

		switch reply {
		case "t", "taken":
			h.Ack()
		case "d", "dismiss", "":
			h.Dismiss()
		}
	}
}
