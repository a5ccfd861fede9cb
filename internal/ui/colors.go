package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	bar   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		bar:   NewStyle(t),
	}
}

// Progress renders pct (0-100) as a bar of width cells.
func (p *Palette) Progress(pct float64, width int) string {
	filled := min(max(int(pct/100*float64(width)), 0), width)
	return p.bar.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// Status renders a footer line: err wins over msg, and an empty string means nothing to show.
func (p *Palette) Status(msg string, err error) string {
	switch {
	case err != nil:
		return p.err.Render(fmt.Sprintf("Error: %v", err))
	case msg != "":
		return p.ok.Render(msg)
	}
	return ""
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
