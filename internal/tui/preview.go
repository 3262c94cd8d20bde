package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/render"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
}

// loadPreviewCmd renders the file preview off the update loop.
func loadPreviewCmd(f parse.ExtractedFile, key, query string, width int, numbers bool) tea.Cmd {
	return func() tea.Msg {
		content, hitLine := render.Content(f, render.ContentOptions{
			Width:       width,
			Query:       query,
			LineNumbers: numbers,
			Color:       true,
		})
		return previewRenderedMsg{key: key, content: content, hitLine: hitLine}
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
