package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	makerelease "github.com/bcomnes/makerelease/pkg"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// renderJournal lists which steps of a halted release completed, which one
// failed and which never ran. Colors are only used when w is a terminal.
func renderJournal(w io.Writer, j *makerelease.Journal) string {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true)
	done := r.NewStyle().Foreground(colorSuccess)
	failed := r.NewStyle().Bold(true).Foreground(colorError)
	skipped := r.NewStyle().Foreground(colorMuted)
	hint := r.NewStyle().Foreground(colorWarning)

	var b strings.Builder
	b.WriteString(header.Render("Completed steps:") + "\n")
	completed := j.Completed()
	if len(completed) == 0 {
		b.WriteString("  " + skipped.Render("(none)") + "\n")
	}
	for _, s := range completed {
		b.WriteString("  " + done.Render("✓ "+s.String()) + "\n")
	}
	if s, ok := j.Failed(); ok {
		b.WriteString(header.Render("Failed step:") + "\n")
		b.WriteString("  " + failed.Render("✗ "+s.String()) + "\n")
	}
	if rest := j.NotAttempted(); len(rest) > 0 {
		b.WriteString(header.Render("Not attempted:") + "\n")
		for _, s := range rest {
			b.WriteString("  " + skipped.Render("- "+s.String()) + "\n")
		}
	}
	if changed(completed) {
		b.WriteString(hint.Render("Nothing was rolled back. Reconcile the repositories by hand before retrying.") + "\n")
	}
	return b.String()
}

func changed(steps []makerelease.Step) bool {
	for _, s := range steps {
		if s.Mutating() {
			return true
		}
	}
	return false
}
