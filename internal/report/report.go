// Package report renders a finished review for the terminal or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/sevigo/pr-warden/internal/core"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"

	noDescription = "(none provided)"
	defaultWidth  = 100
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text or json)", s)
	}
}

// Options control how a report is rendered.
type Options struct {
	Format Format
	// Pretty renders the review text as terminal markdown.
	Pretty bool
	// Width is the wrap width for Pretty; zero means 100 columns.
	Width int
	// GlamourStyle overrides automatic style detection for Pretty.
	GlamourStyle string
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// Write renders r to w.
func Write(w io.Writer, r *core.ReviewReport, opts Options) error {
	if opts.Format == FormatJSON {
		return writeJSON(w, r)
	}
	return writeText(w, r, opts)
}

func writeJSON(w io.Writer, r *core.ReviewReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func writeText(w io.Writer, r *core.ReviewReport, opts Options) error {
	pr := r.PullRequest
	separator := strings.Repeat("=", 60)

	var b strings.Builder
	headingColor.Fprintln(&b, separator)
	headingColor.Fprintf(&b, "Pull Request #%d: %s\n", pr.ID, pr.Title)
	headingColor.Fprintln(&b, separator)

	labelColor.Fprint(&b, "Author: ")
	fmt.Fprintln(&b, pr.AuthorDisplayName)
	if pr.SourceBranch != "" && pr.TargetBranch != "" {
		labelColor.Fprint(&b, "Branches: ")
		fmt.Fprintf(&b, "%s -> %s\n", pr.SourceBranch, pr.TargetBranch)
	}
	if pr.URL != "" {
		labelColor.Fprint(&b, "URL: ")
		fmt.Fprintln(&b, pr.URL)
	}

	labelColor.Fprintln(&b, "\nDescription:")
	if pr.HasDescription() {
		fmt.Fprintln(&b, pr.Description)
	} else {
		dimColor.Fprintln(&b, noDescription)
	}

	labelColor.Fprintf(&b, "\nFiles reviewed (%d):\n", len(r.Files))
	for _, f := range r.Files {
		dimColor.Fprintf(&b, "  - %s\n", f)
	}

	labelColor.Fprintln(&b, "\nReview:")
	reviewText := r.Review.ReviewText
	if opts.Pretty {
		rendered, err := renderMarkdown(reviewText, opts)
		if err != nil {
			return err
		}
		reviewText = strings.TrimRight(rendered, "\n")
	}
	fmt.Fprintln(&b, reviewText)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, decisionBanner(r.Review))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func renderMarkdown(md string, opts Options) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.GlamourStyle != "" {
		style = glamour.WithStandardStyle(opts.GlamourStyle)
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering review markdown: %w", err)
	}
	return out, nil
}

func decisionBanner(d core.ReviewDecision) string {
	accent := lipgloss.Color("46")
	switch d.Decision {
	case core.DecisionApproveWithComments:
		accent = lipgloss.Color("226")
	case core.DecisionDecline:
		accent = lipgloss.Color("196")
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(accent).
		Padding(0, 2)

	text := "DECISION: " + string(d.Decision)
	if d.Reason != "" {
		text += "\nREASON: " + d.Reason
	}
	return style.Render(text)
}
