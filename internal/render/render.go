// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws the controller's view-model, the paper listing and
// the document view on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Elambeth/mm-archive/internal/query"
	"github.com/Elambeth/mm-archive/internal/viewer"
	"github.com/Elambeth/mm-archive/pkg/types"
)

const (
	defaultWidth = 80
	barWidth     = 20
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a94a6"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Underline(true)
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#8BC34A")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
)

// Options configures a Renderer.
type Options struct {
	// Width is the wrap width (default 80).
	Width int

	// Plain disables terminal styling for markdown and the in-place
	// progress line, for pipes and tests.
	Plain bool
}

// Renderer writes formatted output to w. Methods are safe for concurrent
// use; progress updates arrive from the simulator goroutine.
type Renderer struct {
	w     io.Writer
	md    *glamour.TermRenderer
	plain bool

	mu           sync.Mutex
	progressLine bool
}

// New returns a Renderer writing to w.
func New(w io.Writer, opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.Plain {
		style = glamour.WithStandardStyle("notty")
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &Renderer{w: w, md: md, plain: opts.Plain}, nil
}

// Update draws whatever the view-model currently shows: a progress line
// while in flight, otherwise nothing (final output comes from Session).
func (r *Renderer) Update(v query.ViewModel) {
	if v.InFlight && !v.Progress.IsZero() {
		r.Progress(v.Progress)
	}
}

// Progress redraws the single progress line in place. A plain renderer
// draws nothing, since the line relies on cursor control.
func (r *Renderer) Progress(st types.ProgressState) {
	if r.plain {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.IsZero() {
		r.clearProgressLocked()
		return
	}
	fmt.Fprintf(r.w, "\r\033[K%s %3d%% %s", ProgressBar(st.Percent, barWidth), st.Percent, mutedStyle.Render(st.Message))
	r.progressLine = true
}

// ClearProgress erases the progress line if one is showing.
func (r *Renderer) ClearProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProgressLocked()
}

func (r *Renderer) clearProgressLocked() {
	if r.progressLine {
		fmt.Fprint(r.w, "\r\033[K")
		r.progressLine = false
	}
}

// ProgressBar renders percent as a fixed-width bar.
func ProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Session draws the resolved or failed session: the question, the answer
// as markdown paragraphs, and the numbered sources in relevance order.
func (r *Renderer) Session(v query.ViewModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProgressLocked()

	switch v.State {
	case query.Failed:
		fmt.Fprintln(r.w, errorStyle.Render("Error: ")+v.Error)
		return nil
	case query.Resolved:
	default:
		return nil
	}

	fmt.Fprintln(r.w, headingStyle.Render("Q: ")+v.Query)
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, headingStyle.Render("Answer"))

	answer, err := r.md.Render(strings.Join(v.Paragraphs, "\n\n"))
	if err != nil {
		return fmt.Errorf("rendering answer: %w", err)
	}
	fmt.Fprint(r.w, answer)

	sources := v.Sources()
	if len(sources) == 0 {
		return nil
	}

	fmt.Fprintln(r.w, headingStyle.Render("Sources"))
	for i, s := range sources {
		fmt.Fprintf(r.w, "  [%d] %s (%d)\n", i+1, s.Title, s.Year)
		fmt.Fprintf(r.w, "      %s\n", linkStyle.Render(fmt.Sprintf("View Page %d →", pageOrFirst(s.Page))))
		if s.Excerpt != "" {
			excerpt, err := r.md.Render(s.Excerpt)
			if err != nil {
				return fmt.Errorf("rendering excerpt: %w", err)
			}
			fmt.Fprint(r.w, indent(strings.TrimRight(excerpt, "\n"), "    "))
			fmt.Fprintln(r.w)
		}
		if len(s.Tags) > 0 {
			fmt.Fprintf(r.w, "      %s\n", renderTags(s.Tags))
		}
	}
	return nil
}

// Papers prints the listing as a table.
func (r *Renderer) Papers(papers []types.Paper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(papers) == 0 {
		fmt.Fprintln(r.w, "No papers found.")
		return
	}

	fmt.Fprintf(r.w, "%-12s  %-4s  %s\n", "ID", "Year", "Title")
	fmt.Fprintln(r.w, strings.Repeat("-", 70))
	for _, p := range papers {
		id := p.ID
		if len(id) > 12 {
			id = id[:9] + "..."
		}
		fmt.Fprintf(r.w, "%-12s  %-4d  %s\n", id, p.Year, p.Title)
	}
	fmt.Fprintf(r.w, "\n%d papers\n", len(papers))
}

// Document prints the document view header for a handoff: title, year,
// tags and the link handed to the viewer. An incomplete handoff prints the
// missing-information message instead.
func (r *Renderer) Document(h viewer.Handoff, link string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.Missing || link == "" {
		fmt.Fprintln(r.w, errorStyle.Render("Error: Missing Paper Information"))
		return
	}
	fmt.Fprintln(r.w, headingStyle.Render(h.Title))
	if h.Year > 0 {
		fmt.Fprintln(r.w, mutedStyle.Render(fmt.Sprintf("%d", h.Year)))
	}
	if len(h.Tags) > 0 {
		fmt.Fprintln(r.w, renderTags(h.Tags))
	}
	fmt.Fprintln(r.w, linkStyle.Render(link))
}

func renderTags(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = tagStyle.Render(t)
	}
	return strings.Join(parts, " ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
