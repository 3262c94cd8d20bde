package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/s1f/internal/parse"
)

// linesPerItem is the number of terminal lines each file occupies.
const linesPerItem = 2

// renderList renders the left panel: the filtered file list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.visible) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No files")
	}

	var lines []string
	for i, idx := range m.visible {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatFileLine(m.files[idx], width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatFileLine formats one file as two lines:
//
//	line 1: [>] path
//	line 2:    format  size  encoding
func formatFileLine(f parse.ExtractedFile, width int, selected bool) []string {
	pathMax := width - 2
	if pathMax < 0 {
		pathMax = 0
	}
	path := f.Meta.Path
	if runewidth.StringWidth(path) > pathMax {
		// keep the file name visible
		path = "…" + runewidth.TruncateLeft(path, runewidth.StringWidth(path)-pathMax+1, "")
	}

	line1 := path
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	details := fmt.Sprintf("%s  %s", humanize.IBytes(uint64(len(f.Content))), orDash(f.Meta.Encoding))
	if runewidth.StringWidth(details) > width-14 && width > 14 {
		details = runewidth.Truncate(details, width-14, "")
	}
	line2 := "    " + styleFormat.Render(fmt.Sprintf("%-9s", f.Separator)) + " " +
		lipgloss.NewStyle().Foreground(colorDim).Render(details)
	if f.Meta.HadEncodingErrors {
		line2 += styleEncodingErrors.Render(" !")
	}
	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
