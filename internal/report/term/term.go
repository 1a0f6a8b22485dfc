// Package term renders report documents for the terminal.
package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"scontrini/internal/report"
)

var (
	ColorBorder = lipgloss.Color("#282726")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	dateStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	subtotalStyle = lipgloss.NewStyle().
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen).
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

const (
	dateWidth  = 10
	labelWidth = 18
)

// Render draws the document: header, one or two columns of blocks side by
// side, and the total.
func Render(doc report.Document) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(doc.Header))
	b.WriteString("\n")

	cols := make([]string, 0, len(doc.Columns))
	for _, col := range doc.Columns {
		blocks := make([]string, 0, len(col))
		for _, blk := range col {
			blocks = append(blocks, renderBlock(blk))
		}
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	}
	if len(cols) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, intersperse(cols, "  ")...))
		b.WriteString("\n")
	}

	b.WriteString(totalStyle.Render(doc.Footer))
	b.WriteString("\n")
	return b.String()
}

func renderBlock(blk report.Block) string {
	amountWidth := 0
	for _, a := range blk.Amounts {
		amountWidth = max(amountWidth, lipgloss.Width(a))
	}
	for _, l := range blk.Lines {
		amountWidth = max(amountWidth, lipgloss.Width(l.Amount))
	}
	amountWidth = max(amountWidth, lipgloss.Width(blk.Subtotal))

	var lines []string
	date := dateStyle.Render(fmt.Sprintf("%-*s", dateWidth, blk.Date))
	blank := strings.Repeat(" ", dateWidth)

	if len(blk.Lines) > 0 {
		for i, l := range blk.Lines {
			prefix := blank
			if i == 0 {
				prefix = date
			}
			lines = append(lines, fmt.Sprintf("%s %-*s %*s", prefix, labelWidth, truncate(l.Label, labelWidth), amountWidth, l.Amount))
		}
		return blockStyle.Render(strings.Join(lines, "\n"))
	}

	for i, a := range blk.Amounts {
		prefix := blank
		if i == 0 {
			prefix = date
		}
		lines = append(lines, fmt.Sprintf("%s %*s", prefix, amountWidth, a))
	}
	if len(lines) == 0 {
		lines = append(lines, date)
	}
	if blk.ShowSubtotal {
		lines = append(lines,
			blank+" "+mutedStyle.Render(strings.Repeat("─", amountWidth)),
			blank+" "+subtotalStyle.Render(fmt.Sprintf("%*s", amountWidth, blk.Subtotal)),
		)
	}
	return blockStyle.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func intersperse(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}
