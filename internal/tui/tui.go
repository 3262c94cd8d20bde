package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/search"
)

const debounceDelay = 150 * time.Millisecond

type debounceTickMsg struct {
	query string
}

type model struct {
	title       string
	files       []parse.ExtractedFile
	visible     []int // indexes into files
	query       string
	cursor      int
	listOffset  int
	numbers     bool
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *parse.ExtractedFile
}

func initialModel(title string, files []parse.ExtractedFile, query string) model {
	ti := textinput.New()
	ti.Placeholder = "Filter by path or content..."
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	m := model{
		title:       title,
		files:       files,
		query:       query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
	m.visible = m.filter(query)
	return m
}

// Run browses files until the user quits. Enter copies the selected path to
// the clipboard, or prints it to out when no clipboard is available.
func Run(title string, files []parse.ExtractedFile, query string, out io.Writer) error {
	m := initialModel(title, files, query)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		copyPath(fm.selected.Meta.Path, out)
	}
	return nil
}

func copyPath(p string, out io.Writer) {
	if err := clipboard.WriteAll(p); err != nil {
		fmt.Fprintln(out, p)
		return
	}
	fmt.Fprintf(out, "Copied to clipboard: %s\n", p)
}

// filter returns the files whose path matches every term of query, followed
// by the files that only contain query in their content.
func (m model) filter(query string) []int {
	if strings.TrimSpace(query) == "" {
		all := make([]int, len(m.files))
		for i := range all {
			all[i] = i
		}
		return all
	}
	byPath := search.Filter(m.files, query)
	seen := make(map[int]bool, len(byPath))
	for _, i := range byPath {
		seen[i] = true
	}
	out := byPath
	for i, f := range m.files {
		if !seen[i] && search.Matches(f, query) {
			out = append(out, i)
		}
	}
	return out
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCurrentPreview())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if f, ok := m.current(); ok {
				m.selected = &f
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Numbers):
			m.numbers = !m.numbers
			m.previewKey = ""
			return m, m.loadCurrentPreview()

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if q := m.filterInput.Value(); q != m.query {
			m.query = q
			cmds = append(cmds, scheduleDebouncedFilter(q))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.visible) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := len(m.visible) - m.panelHeight()/linesPerItem
			if maxOffset < 0 {
				maxOffset = 0
			}
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.visible) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}
		return m, nil

	case debounceTickMsg:
		// stale ticks are dropped; only the latest query is applied
		if msg.query != m.query {
			return m, nil
		}
		m.visible = m.filter(msg.query)
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if len(m.visible) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.key != m.currentKey() {
			return m, nil
		}
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			m.preview.SetYOffset(msg.hitLine)
		} else {
			m.preview.GotoTop()
		}
		m.previewKey = msg.key
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

func (m model) current() (parse.ExtractedFile, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return parse.ExtractedFile{}, false
	}
	return m.files[m.visible[m.cursor]], true
}

func (m model) currentKey() string {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return ""
	}
	return fmt.Sprintf("%d:%s:%t", m.visible[m.cursor], m.query, m.numbers)
}

func (m model) loadCurrentPreview() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	k := m.currentKey()
	if k == m.previewKey {
		return nil
	}
	return loadPreviewCmd(f, k, m.query, m.previewWidth(), m.numbers)
}

func scheduleDebouncedFilter(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 35% for the list, minus border padding
	w := m.width*35/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*65/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + m.panelHeight() - 1
	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY/linesPerItem
	}
	if x > lw+2 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%s: %d/%d files", m.title, len(m.visible), len(m.files)),
		"click/up/dn navigate",
		"scroll/C-u/C-d preview",
		"C-n line numbers",
		"Enter copy path",
		"Esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}
