package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "radar/internal/core/app"
	"radar/internal/engine/analysis"
	"radar/internal/engine/navigation"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	initialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lazyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)

	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#3B82F6"))
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type panelMode int

const (
	panelChunks panelMode = iota
	panelFiles
	panelImporters
)

// analysisMsg carries a watcher reload into the program.
type analysisMsg struct {
	an  *coreapp.Analysis
	err error
}

type model struct {
	an     *coreapp.Analysis
	filter analysis.ChunkFilter
	chunks []analysis.ChunkSummary

	chunkList list.Model
	fileList  list.Model
	mode      panelMode

	selected    analysis.ChunkSummary
	hasChunk    bool
	file        string
	path        []analysis.InclusionStep
	importers   []analysis.ImportSource
	importerIdx int

	history     navigation.History
	search      navigation.SearchCursor
	searchInput textinput.Model
	searching   bool

	status     string
	reloadErr  string
	lastUpdate time.Time
}

func initialModel(an *coreapp.Analysis, filter analysis.ChunkFilter) model {
	chunkList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	chunkList.Title = "Chunks"
	chunkList.SetShowStatusBar(false)
	chunkList.SetFilteringEnabled(false)
	chunkList.SetShowHelp(false)

	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Files"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(false)
	fileList.SetShowHelp(false)

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search inputs"

	m := model{
		filter:      analysis.ChunkFilter{Initial: filter.Initial, Lazy: filter.Lazy},
		chunkList:   chunkList,
		fileList:    fileList,
		searchInput: input,
	}
	m = m.withAnalysis(an)
	if term := strings.TrimSpace(filter.Term); term != "" {
		m.searchInput.SetValue(term)
		m = m.runSearch(term)
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := (msg.Width-h)/2 - 4
		height := (msg.Height-v)/2 - 4
		if height < 5 {
			height = 5
		}
		m.chunkList.SetSize(width, height)
		m.fileList.SetSize(width, height)
		return m, nil
	case analysisMsg:
		if msg.err != nil {
			m.reloadErr = msg.err.Error()
			return m, nil
		}
		m.reloadErr = ""
		return m.withAnalysis(msg.an), nil
	}
	return m, nil
}

// withAnalysis swaps in a new analysis, keeping the selected chunk and file
// when they still exist.
func (m model) withAnalysis(an *coreapp.Analysis) model {
	m.an = an
	m.lastUpdate = time.Now()
	m = m.refreshChunks()

	if m.hasChunk {
		if c, ok := an.Chunk(m.selected.OutputFile); ok {
			m = m.selectChunk(c)
		} else {
			m.hasChunk = false
			m.selected = analysis.ChunkSummary{}
			m.fileList.SetItems(nil)
		}
	}
	if m.file != "" {
		if _, ok := an.Graph.Inputs[m.file]; ok {
			m = m.loadFileDetails(m.file)
		} else {
			m.file, m.path, m.importers = "", nil, nil
		}
	}
	if term := m.search.Term(); term != "" {
		m.search = navigation.NewSearchCursor(m.chunks, term)
	}
	return m
}

func (m model) refreshChunks() model {
	m.chunks = m.an.FilterChunks(m.filter)
	items := make([]list.Item, 0, len(m.chunks))
	for _, c := range m.chunks {
		title := c.OutputFile
		if c.IsEntry {
			title += " (entry)"
		}
		items = append(items, item{
			title: title,
			desc:  fmt.Sprintf("%s | %s | %s", m.an.TypeOf(c.OutputFile), formatBytes(c.Bytes), plural(len(c.IncludedInputs), "input")),
		})
	}
	m.chunkList.SetItems(items)
	return m
}

func (m model) selectChunk(c analysis.ChunkSummary) model {
	m.selected = c
	m.hasChunk = true
	for i, visible := range m.chunks {
		if visible.OutputFile == c.OutputFile {
			m.chunkList.Select(i)
			break
		}
	}

	contributions := make(map[string]int64)
	if out := m.an.Graph.Outputs[c.OutputFile]; out != nil {
		for _, in := range out.Inputs {
			contributions[in.Path] = in.BytesInOutput
		}
	}
	items := make([]list.Item, 0, len(c.IncludedInputs))
	for _, in := range c.IncludedInputs {
		items = append(items, item{title: in, desc: formatBytes(contributions[in]) + " in output"})
	}
	m.fileList.SetItems(items)
	m.fileList.Select(0)
	return m
}

func (m model) loadFileDetails(path string) model {
	m.file = path
	m.path = m.an.InclusionPath(path)
	m.importers = m.an.ImportSources(path)
	m.importerIdx = 0
	for i, in := range m.selected.IncludedInputs {
		if in == path {
			m.fileList.Select(i)
			break
		}
	}
	return m
}

// openFile shows path inside the chunk that best represents it, falling back
// to the currently selected chunk.
func (m model) openFile(path string) (model, bool) {
	var fallback *analysis.ChunkSummary
	if m.hasChunk {
		current := m.selected
		fallback = &current
	}
	chunk, ok := m.an.BestChunk(path, fallback)
	if !ok {
		m.status = fmt.Sprintf("No chunk bundles %s", path)
		return m, false
	}
	m = m.selectChunk(chunk)
	return m.loadFileDetails(path), true
}

// navigateTo opens path and records it in the history.
func (m model) navigateTo(path string) model {
	next, ok := m.openFile(path)
	if !ok {
		return next
	}
	next.history = next.history.Push(path)
	next.status = ""
	return next
}

func (m model) runSearch(term string) model {
	m.search = navigation.NewSearchCursor(m.chunks, term)
	if m.search.Empty() {
		m.status = fmt.Sprintf("No inputs match %q", term)
		return m
	}
	return m.jumpToMatch()
}

func (m model) jumpToMatch() model {
	chunk, file, ok := m.search.Current()
	if !ok {
		return m
	}
	m = m.selectChunk(chunk)
	m = m.loadFileDetails(file)
	m.history = m.history.Push(file)
	ci, ri := m.search.Position()
	m.status = fmt.Sprintf("Match %d/%d in chunk %d/%d", ri+1, len(m.search.Matches(ci)), ci+1, m.search.ChunkCount())
	return m
}

func (m model) View() string {
	initial := initialStyle.Render(fmt.Sprintf("initial %s", formatBytes(m.an.Summary.Initial.TotalBytes)))
	lazy := lazyStyle.Render(fmt.Sprintf("lazy %s", formatBytes(m.an.Summary.Lazy.TotalBytes)))
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | entry %s", m.lastUpdate.Format("15:04:05"), m.an.Entry))

	header := fmt.Sprintf("%s\n%s | %s | %s\n", titleStyle("Bundle Radar"), status, initial, lazy)
	if m.reloadErr != "" {
		header += errorStyle.Render("Reload failed: "+m.reloadErr) + "\n"
	}

	lists := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(panelChunks).Render(m.chunkList.View()),
		m.panel(panelFiles).Render(m.fileList.View()),
	)
	details := m.panel(panelImporters).Render(renderDetails(m))

	footer := renderHelp(m)
	if m.searching {
		footer = m.searchInput.View()
	} else if m.status != "" {
		footer += "\n" + statusStyle.Render(m.status)
	}

	return docStyle.Render(header + "\n" + lists + "\n" + details + "\n" + footer)
}

func (m model) panel(p panelMode) lipgloss.Style {
	if m.mode == p {
		return focusedPanelStyle
	}
	return panelStyle
}

func chunkTypeLabel(t analysis.ChunkType) string {
	if t == analysis.ChunkInitial {
		return initialStyle.Render(t.String())
	}
	return lazyStyle.Render(t.String())
}

func renderDetails(m model) string {
	if m.file == "" {
		return statusStyle.Render("Select a file to see why it is bundled.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.file)

	b.WriteString("Inclusion path:\n")
	if len(m.path) == 0 {
		b.WriteString(statusStyle.Render("  none (entry point or unreachable)") + "\n")
	}
	for i, step := range m.path {
		arrow := "->"
		if step.IsDynamicImport {
			arrow = "~>"
		}
		fmt.Fprintf(&b, "  %d. %s [%s] %s %q\n", i+1, step.File, chunkTypeLabel(step.ImporterChunkType), arrow, step.ImportStatement)
	}

	fmt.Fprintf(&b, "\nImported by (%d):\n", len(m.importers))
	for i, src := range m.importers {
		cursor := "  "
		if m.mode == panelImporters && i == m.importerIdx {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s [%s] %q", cursor, src.Importer, chunkTypeLabel(src.ChunkType), src.ImportStatement)
		if src.ChunkOutputFile != "" {
			line += statusStyle.Render(fmt.Sprintf(" %s %s", src.ChunkOutputFile, formatBytes(src.ChunkSize)))
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHelp(m model) string {
	filters := fmt.Sprintf("[1] initial:%s [2] lazy:%s", onOff(m.filter.Initial), onOff(m.filter.Lazy))
	nav := "[ back ] forward"
	if m.history.HasPrevious() || m.history.HasNext() {
		nav = fmt.Sprintf("[ back ] forward (%d/%d)", m.history.Cursor()+1, m.history.Len())
	}
	return statusStyle.Render(fmt.Sprintf("tab: panel | enter: open | %s | /: search, n/N: next/prev | %s | q: quit", filters, nav))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
