// Package report renders the run summary for the terminal. Styled output
// uses lipgloss; plain mode emits the same text without escape sequences,
// for non-TTY output and json logs.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattmre/taskgrid/internal/result"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	succeededStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF87"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Renderer formats one finalized run summary.
type Renderer struct {
	// Styled enables lipgloss colors and weights.
	Styled bool
}

// Render returns the multi-line summary for a run, without a trailing newline.
func (r Renderer) Render(res *result.Results) string {
	var b strings.Builder

	header := fmt.Sprintf("run %s (%s) %s in %s",
		res.RunID, res.Mode, res.Outcome, res.Duration.Round(time.Millisecond))
	b.WriteString(r.paint(headerStyle, header))
	b.WriteByte('\n')

	counts := fmt.Sprintf("  total %d   %s   %s   %s",
		res.Total,
		r.paint(succeededStyle, fmt.Sprintf("succeeded %d", len(res.Succeeded))),
		r.paint(failedStyle, fmt.Sprintf("failed %d", len(res.Failed))),
		r.paint(cancelledStyle, fmt.Sprintf("cancelled %d", len(res.Cancelled))))
	b.WriteString(counts)
	b.WriteByte('\n')

	fmt.Fprintf(&b, "  success rate %.1f%%", res.SuccessRate*100)

	if len(res.Failed) > 0 {
		b.WriteString("\n  failed:")
		for _, tr := range res.Failed {
			line := fmt.Sprintf("\n    - %s (%s, %s): %v",
				tr.TaskID, tr.Status, tr.Duration.Round(time.Millisecond), tr.Err)
			b.WriteString(r.paint(failedStyle, line))
		}
	}
	if len(res.Cancelled) > 0 {
		b.WriteString("\n  cancelled:")
		for _, tr := range res.Cancelled {
			b.WriteString(r.paint(cancelledStyle, fmt.Sprintf("\n    - %s", tr.TaskID)))
		}
	}

	return b.String()
}

func (r Renderer) paint(style lipgloss.Style, s string) string {
	if !r.Styled {
		return s
	}
	return style.Render(s)
}
