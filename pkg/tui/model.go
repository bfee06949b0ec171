// Package tui is the interactive task tree: a bubbletea program with the
// flattened tree on the left and details of the selected task on the right.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vitorsm/construction-management-client/pkg/source"
	"github.com/vitorsm/construction-management-client/pkg/task"
	"github.com/vitorsm/construction-management-client/pkg/view"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// TasksLoadedMsg carries the result of a fetch.
type TasksLoadedMsg struct {
	Roots []*task.Node
	Err   error
	Took  time.Duration
}

// Options configures a Model.
type Options struct {
	Source      source.Source
	Criteria    task.Criteria
	RollupCosts bool
	Logger      *slog.Logger
	Now         func() time.Time // nil means time.Now
}

// Model is the Bubble Tea model for the task tree.
type Model struct {
	src    source.Source
	keys   KeyMap
	logger *slog.Logger
	now    func() time.Time

	width  int
	height int

	roots     []*task.Node // unfiltered snapshot from the last fetch
	proj      *view.Projection
	expansion *view.ExpansionStore
	criteria  task.Criteria
	rollup    bool

	cursor       int
	focusedPane  int // 0 = tree, 1 = details
	detailScroll int

	loading  bool
	loadErr  error
	loadedAt time.Time

	showHelpModal bool

	// Search input: typing edits criteria.Query live.
	isSearching bool

	// Date range input
	isRangeInput bool
	textInput    textinput.Model

	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int

	allExpanded bool
}

// NewModel creates a new TUI model. Nothing is fetched until Init.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "2024-01-01..2024-03-31"
	ti.CharLimit = 32

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		src:       opts.Source,
		keys:      DefaultKeyMap(),
		logger:    logger,
		now:       now,
		expansion: view.NewExpansionStore(),
		criteria:  opts.Criteria,
		rollup:    opts.RollupCosts,
		textInput: ti,
	}
	m.rebuild()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.fetch())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.detailWidth() - 2)
		return m, tea.ClearScreen

	case FileChangedMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case TasksLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.loadErr = msg.Err
			m.logger.Error("fetching tasks failed", "source", m.sourceName(), "error", msg.Err)
			m.setStatus("Fetch failed: " + msg.Err.Error())
			return m, nil
		}
		m.loadErr = nil
		m.loadedAt = m.now()
		m.roots = msg.Roots
		m.logger.Info("tasks loaded",
			"source", m.sourceName(),
			"tasks", task.Count(msg.Roots),
			"duration_ms", msg.Took.Milliseconds(),
		)
		m.rebuild()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.isRangeInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.isRangeInput {
		return m.handleRangeInput(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	// A search filter that is no longer being typed is cleared by Esc.
	if m.criteria.Query != "" && msg.Type == tea.KeyEsc {
		m.criteria.Query = ""
		m.rebuild()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.focusedPane == 1 {
			if m.detailScroll > 0 {
				m.detailScroll--
			}
		} else if m.cursor > 0 {
			m.cursor--
			m.detailScroll = 0
		}

	case key.Matches(msg, m.keys.Down):
		if m.focusedPane == 1 {
			m.detailScroll++
		} else if m.cursor < len(m.rows())-1 {
			m.cursor++
			m.detailScroll = 0
		}

	case key.Matches(msg, m.keys.Right):
		if row, ok := m.selected(); ok && row.HasChildren && !row.IsExpanded {
			m.expansion.Expand(row.ID())
			m.rebuild()
		}

	case key.Matches(msg, m.keys.Left):
		if row, ok := m.selected(); ok {
			if row.HasChildren && row.IsExpanded {
				m.expansion.Collapse(row.ID())
				m.rebuild()
			} else if idx := view.IndexOf(m.rows(), row.ParentID); row.ParentID != "" && idx >= 0 {
				m.cursor = idx
				m.detailScroll = 0
			}
		}

	case key.Matches(msg, m.keys.Enter):
		if row, ok := m.selected(); ok && row.HasChildren {
			m.expansion.Toggle(row.ID())
			m.rebuild()
		}

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = (m.focusedPane + 1) % 2

	case key.Matches(msg, m.keys.ToggleExpand):
		if m.allExpanded {
			m.expansion.CollapseAll()
			m.allExpanded = false
		} else {
			m.expansion.ExpandAll(m.roots)
			m.allExpanded = true
		}
		m.rebuild()

	case key.Matches(msg, m.keys.FilterTodo):
		m.toggleStatus(task.StatusTodo)

	case key.Matches(msg, m.keys.FilterDoing):
		m.toggleStatus(task.StatusInProgress)

	case key.Matches(msg, m.keys.FilterDone):
		m.toggleStatus(task.StatusDone)

	case key.Matches(msg, m.keys.FilterDelayed):
		m.criteria.DelayedOnly = !m.criteria.DelayedOnly
		m.rebuild()

	case key.Matches(msg, m.keys.DateRange):
		m.isRangeInput = true
		m.textInput.Reset()
		m.textInput.SetValue(task.FormatDateRange(m.criteria.From, m.criteria.To))
		m.textInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.DateMode):
		if m.criteria.DateMode == task.DateWithin {
			m.criteria.DateMode = task.DateOverlap
		} else {
			m.criteria.DateMode = task.DateWithin
		}
		m.setStatus("Date range mode: " + string(m.criteria.DateMode))
		m.rebuild()

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.criteria.Query = ""
		m.rebuild()

	case key.Matches(msg, m.keys.ClearFilters):
		m.criteria = task.Criteria{DateMode: m.criteria.DateMode}
		m.setStatus("Filters cleared")
		m.rebuild()

	case key.Matches(msg, m.keys.Rollup):
		m.rollup = !m.rollup
		if m.rollup {
			m.setStatus("Costs include subtasks")
		} else {
			m.setStatus("Costs are per task")
		}
		m.rebuild()

	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.setStatus("Refetching…")
		return m, m.fetch()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
	}

	return m, nil
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.criteria.Query = ""
		m.rebuild()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Keep the filter, leave the input.
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if q := m.criteria.Query; len(q) > 0 {
			_, size := utf8.DecodeLastRuneInString(q)
			m.criteria.Query = q[:len(q)-size]
		}
		m.applySearch()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes {
			m.criteria.Query += string(msg.Runes)
			m.applySearch()
		}
		return m, nil
	}
}

// applySearch refilters and opens every ancestor of a match so that
// matches are visible.
func (m *Model) applySearch() {
	m.rebuild()
	if strings.TrimSpace(m.criteria.Query) == "" || m.proj == nil {
		return
	}
	m.expansion.ExpandAll(m.proj.Tree)
	m.rebuild()
}

func (m Model) handleRangeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isRangeInput = false
		m.textInput.Blur()
		return m, nil

	case tea.KeyEnter:
		from, to, err := task.ParseDateRange(m.textInput.Value())
		if err != nil {
			m.setStatus("Error: " + err.Error())
			return m, nil
		}
		m.criteria.From, m.criteria.To = from, to
		m.isRangeInput = false
		m.textInput.Blur()
		m.rebuild()
		return m, nil

	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) toggleStatus(s task.Status) {
	m.criteria = m.criteria.ToggleStatus(s)
	m.rebuild()
}

// rebuild reprojects the current snapshot and keeps the cursor on the same
// task when it is still visible.
func (m *Model) rebuild() {
	var curID string
	if row, ok := m.selected(); ok {
		curID = row.ID()
	}

	crit := m.criteria
	crit.Now = m.now()

	p, err := view.Project(context.Background(), m.roots, view.Options{
		Predicate:   crit.Predicate(),
		State:       m.expansion.Snapshot(),
		RollupCosts: m.rollup,
		Now:         crit.Now,
	})
	if err != nil {
		m.logger.Error("projecting tasks failed", "error", err)
		m.setStatus("Filter error: " + err.Error())
		return
	}
	m.proj = p

	if idx := view.IndexOf(p.Rows, curID); curID != "" && idx >= 0 {
		m.cursor = idx
	}
	if m.cursor >= len(p.Rows) {
		m.cursor = len(p.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) fetch() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		if src == nil {
			return TasksLoadedMsg{Err: source.ErrNoSource}
		}
		start := time.Now()
		roots, err := source.Load(context.Background(), src)
		return TasksLoadedMsg{Roots: roots, Err: err, Took: time.Since(start)}
	}
}

func (m Model) rows() []view.Row {
	if m.proj == nil {
		return nil
	}
	return m.proj.Rows
}

func (m Model) selected() (view.Row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return view.Row{}, false
	}
	return rows[m.cursor], true
}

func (m Model) sourceName() string {
	if m.src == nil {
		return ""
	}
	return m.src.String()
}

func (m Model) detailWidth() int {
	return m.detailWidthFor(m.width)
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

// Criteria returns the active filter.
func (m Model) Criteria() task.Criteria {
	return m.criteria
}

// Rows returns the currently visible rows.
func (m Model) Rows() []view.Row {
	return m.rows()
}

// Selected returns the id of the task under the cursor, empty when none.
func (m Model) Selected() string {
	if row, ok := m.selected(); ok {
		return row.ID()
	}
	return ""
}

// Projection returns the current projection.
func (m Model) Projection() *view.Projection {
	return m.proj
}
