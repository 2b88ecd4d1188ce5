package cli

import (
	"strings"

	"radar/internal/engine/navigation"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.searching {
		return handleSearchInput(msg, m)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.mode = (m.mode + 1) % 3
		return m, nil
	case "1":
		m.filter.Initial = !m.filter.Initial
		return m.refilter(), nil
	case "2":
		m.filter.Lazy = !m.filter.Lazy
		return m.refilter(), nil
	case "/":
		m.searching = true
		cmd := m.searchInput.Focus()
		return m, cmd
	case "n":
		if !m.search.Empty() {
			m.search = m.search.Next()
			return m.jumpToMatch(), nil
		}
		return m, nil
	case "N":
		if !m.search.Empty() {
			m.search = m.search.Prev()
			return m.jumpToMatch(), nil
		}
		return m, nil
	case "[":
		h, path, ok := m.history.Back()
		if !ok {
			return m, nil
		}
		m.history = h
		m, _ = m.openFile(path)
		return m, nil
	case "]":
		h, path, ok := m.history.Forward()
		if !ok {
			return m, nil
		}
		m.history = h
		m, _ = m.openFile(path)
		return m, nil
	}

	switch m.mode {
	case panelChunks:
		if msg.String() == "enter" {
			idx := m.chunkList.Index()
			if idx < 0 || idx >= len(m.chunks) {
				return m, nil
			}
			m = m.selectChunk(m.chunks[idx])
			m.mode = panelFiles
			return m, nil
		}
		var cmd tea.Cmd
		m.chunkList, cmd = m.chunkList.Update(msg)
		return m, cmd
	case panelFiles:
		if msg.String() == "enter" {
			idx := m.fileList.Index()
			if !m.hasChunk || idx < 0 || idx >= len(m.selected.IncludedInputs) {
				return m, nil
			}
			return m.navigateTo(m.selected.IncludedInputs[idx]), nil
		}
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	case panelImporters:
		switch msg.String() {
		case "j", "down":
			if m.importerIdx < len(m.importers)-1 {
				m.importerIdx++
			}
		case "k", "up":
			if m.importerIdx > 0 {
				m.importerIdx--
			}
		case "enter":
			if m.importerIdx < len(m.importers) {
				return m.navigateTo(m.importers[m.importerIdx].Importer), nil
			}
		}
	}
	return m, nil
}

func handleSearchInput(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m.runSearch(strings.TrimSpace(m.searchInput.Value())), nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// refilter rebuilds the chunk list after a filter toggle. The search cursor
// is rebuilt over the new visible set.
func (m model) refilter() model {
	m = m.refreshChunks()
	if term := m.search.Term(); term != "" {
		m.search = navigation.NewSearchCursor(m.chunks, term)
	}
	return m
}
