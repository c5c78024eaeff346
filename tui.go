package warden

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	createdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	ruleLine     = strings.Repeat("─", 50)
)

type spinner struct {
	frames []string
	index  int
}

func newSpinner() spinner { return spinner{frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}} }
func (s *spinner) tick() { s.index = (s.index + 1) % len(s.frames) }
func (s spinner) View() string { return s.frames[s.index] }

// Progress animates a one-line status while a check command runs.
type Progress struct {
	out     io.Writer
	spinner spinner
	mu      sync.Mutex
	label   string
	done    chan struct{}
}

func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out, spinner: newSpinner()}
}

func (p *Progress) Start(label string) {
	p.mu.Lock()
	p.label = label
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				p.render()
			}
		}
	}()
}

func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	fmt.Fprint(p.out, "\r\x1b[K")
}

func (p *Progress) render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return
	}
	p.spinner.tick()
	fmt.Fprintf(p.out, "\r%s %s\x1b[K", p.spinner.View(), p.label)
}

func FormatPlan(plan string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("PROPOSED PLAN:") + "\n")
	b.WriteString(dimStyle.Render(ruleLine) + "\n")
	b.WriteString(strings.TrimSpace(plan) + "\n")
	b.WriteString(dimStyle.Render(ruleLine) + "\n")
	return b.String()
}

func FormatWarning(msg string) string {
	return warnStyle.Render("⚠ "+msg) + "\n"
}

// FormatOutcome renders an outcome for the terminal. Security violations
// are always listed first and apart from quality errors.
func FormatOutcome(o Outcome) string {
	var b strings.Builder

	renderList := func(title string, style lipgloss.Style, bullet string, list []string) {
		if len(list) == 0 {
			return
		}
		b.WriteString(style.Render(title) + "\n")
		for _, f := range list {
			b.WriteString(fmt.Sprintf("  %s %s\n", bullet, f))
		}
	}

	switch o := o.(type) {
	case Success:
		b.WriteString(successStyle.Bold(true).Render("Apply successful!") + "\n")
		if o.BackedUp {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (Backup created in %s/)", BackupDir)) + "\n")
		}
		renderList("Written:", createdStyle, "✓", o.Written)
		renderList("Deleted:", deletedStyle, "✗", o.Deleted)
		renderList("Roadmap Updates:", headerStyle, "•", o.RoadmapResults)
	case ValidationFailure:
		b.WriteString(errorStyle.Bold(true).Render("Validation Failed") + "\n")
		security, other := SplitSecurityErrors(o.Errors)
		renderList("Security Violations:", errorStyle, "!", security)
		renderList("Missing Files (Declared but not provided):", warnStyle, "-", o.Missing)
		renderList("Content Errors:", warnStyle, "-", other)
	case ParseError:
		b.WriteString(errorStyle.Render("Parse Error: ") + o.Message + "\n")
	case WriteError:
		b.WriteString(errorStyle.Render("Write Error: ") + o.Message + "\n")
	}
	return b.String()
}

func FormatFeedback(msg string, copied bool) string {
	var b strings.Builder
	b.WriteString("\n" + headerStyle.Render("Paste this back to the AI:") + "\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(msg + "\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 60)) + "\n")
	if copied {
		b.WriteString(successStyle.Render("✓ Copied to clipboard") + "\n")
	}
	return b.String()
}
