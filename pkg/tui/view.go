package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vitorsm/construction-management-client/pkg/source"
	"github.com/vitorsm/construction-management-client/pkg/task"
	"github.com/vitorsm/construction-management-client/pkg/view"
)

const minWidth = 40
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 3
	footerLines := 2

	inputActive := m.isSearching || m.criteria.Query != "" || m.isRangeInput
	if inputActive {
		headerLines++
		b.WriteString(m.renderInputBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	leftWidth := w / 3
	if leftWidth < 20 {
		leftWidth = 20
	}
	rightWidth := m.detailWidthFor(w)

	leftPanel := m.renderTreePanel(leftWidth, contentHeight)
	rightPanel := m.renderDetailPanel(rightWidth, contentHeight)

	sepColor := ColorGrayDim
	if m.focusedPane == 1 {
		sepColor = ColorPurple
	}
	sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
	leftLines := strings.Split(leftPanel, "\n")
	rightLines := strings.Split(rightPanel, "\n")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(lineAt(leftLines, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(lineAt(rightLines, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) detailWidthFor(w int) int {
	left := w / 3
	if left < 20 {
		left = 20
	}
	right := w - left - 1
	if right < 20 {
		right = 20
	}
	return right
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Tasks")

	var stats string
	if m.proj != nil {
		f, t := m.proj.Filtered, m.proj.Total
		stats = fmt.Sprintf("%d/%d shown  %d/%d done  %d delayed", f.Total, t.Total, f.Completed, t.Completed, f.Delayed)
		if m.proj.TotalCosts != (task.Cost{}) {
			stats += "  " + formatCost(m.proj.FilteredCosts)
		}
	}
	if !m.loadedAt.IsZero() {
		stats += "  updated " + m.loadedAt.Format("15:04:05")
	}
	if m.loading {
		stats = "loading…  " + stats
	}
	statsRendered := HeaderCountStyle.Render(stats)

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = "  " + lipgloss.NewStyle().Foreground(ColorCyan).Render(m.statusMsg)
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(statsRendered) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status + statsRendered
}

// renderFilterBar shows the active filter as chips.
func (m Model) renderFilterBar(width int) string {
	chip := func(label string, on bool) string {
		if on {
			return ActiveChipStyle.Render(label)
		}
		return InactiveChipStyle.Render(label)
	}

	parts := []string{FooterStyle.Render("Filter: ")}
	for _, s := range task.Statuses {
		parts = append(parts, chip(string(s), m.criteria.HasStatus(s)))
	}
	parts = append(parts, chip("DELAYED", m.criteria.DelayedOnly))

	dates := task.FormatDateRange(m.criteria.From, m.criteria.To)
	if dates == "" {
		dates = "any date"
	}
	mode := string(m.criteria.DateMode)
	if mode == "" {
		mode = string(task.DateOverlap)
	}
	parts = append(parts, chip(dates+" ("+mode+")", m.criteria.From != nil || m.criteria.To != nil))
	if m.rollup {
		parts = append(parts, chip("ROLLUP", true))
	}

	line := strings.Join(parts, "")
	if lipgloss.Width(line) > width {
		return lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func (m Model) renderInputBar(width int) string {
	if m.isRangeInput {
		return InputPromptStyle.Render(" dates ") + m.textInput.View()
	}

	prefix := SearchBarStyle.Render(" / ")
	query := SearchBarStyle.Render(m.criteria.Query)
	cursor := ""
	if m.isSearching {
		cursor = SearchBarStyle.Render("█")
	}

	countStr := ""
	if m.criteria.Query != "" && m.proj != nil {
		countStr = SearchCountStyle.Render(fmt.Sprintf(" %d shown", m.proj.Filtered.Total))
	}

	left := prefix + query + cursor
	padWidth := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if padWidth < 1 {
		padWidth = 1
	}
	return left + strings.Repeat(" ", padWidth) + countStr
}

func (m Model) renderTreePanel(width, height int) string {
	var lines []string

	// Reserve last line for the source
	treeHeight := height - 1
	if treeHeight < 1 {
		treeHeight = 1
	}

	rows := m.rows()
	switch {
	case m.loadErr != nil && len(m.roots) == 0:
		lines = append(lines, ErrorStyle.Render("Could not load tasks."), FooterStyle.Render("Press R to retry."))
	case len(rows) == 0 && m.loading:
		lines = append(lines, FooterStyle.Render("Loading tasks…"))
	case len(rows) == 0 && m.criteria.IsActive():
		lines = append(lines, FooterStyle.Render("No tasks match. Press 0 to clear filters."))
	case len(rows) == 0:
		lines = append(lines, FooterStyle.Render("No tasks."))
	}

	// Scrolling window
	startIdx := 0
	endIdx := len(rows)
	if len(rows) > treeHeight {
		startIdx = m.cursor - treeHeight/2
		if startIdx < 0 {
			startIdx = 0
		}
		endIdx = startIdx + treeHeight
		if endIdx > len(rows) {
			endIdx = len(rows)
			startIdx = endIdx - treeHeight
		}
	}

	for i := startIdx; i < endIdx; i++ {
		lines = append(lines, m.renderRow(rows[i], i == m.cursor, width))
	}

	for len(lines) < treeHeight {
		lines = append(lines, "")
	}

	lines = append(lines, lipgloss.NewStyle().Foreground(ColorGrayDim).Render(m.sourceLabel()))
	return strings.Join(lines, "\n")
}

func (m Model) sourceLabel() string {
	if fs, ok := m.src.(*source.FileSource); ok && fs.Watchable() {
		return fileHyperlink(fs.Path)
	}
	return m.sourceName()
}

func statusIcon(n *task.Node) string {
	switch n.Status {
	case task.StatusDone:
		return DoneStyle.Render(IconDone)
	case task.StatusInProgress:
		return InProgressStyle.Render(IconInProgress)
	default:
		return TodoStyle.Render(IconTodo)
	}
}

func (m Model) renderRow(row view.Row, isSelected bool, width int) string {
	indent := strings.Repeat(DepthIndent, row.Level)

	expandIcon := "  "
	if row.HasChildren {
		if row.IsExpanded {
			expandIcon = IconExpanded + " "
		} else {
			expandIcon = IconCollapsed + " "
		}
	}

	name := row.Node.Name
	if q := strings.TrimSpace(m.criteria.Query); q != "" {
		name = highlightMatch(name, q, SearchCharStyle)
	}

	delayed := ""
	if task.IsDelayedAt(row.Node, m.now()) {
		delayed = " " + DelayedStyle.Render(IconDelayed)
	}

	left := indent + expandIcon + statusIcon(row.Node) + " " + name + delayed
	right := ProgressStyle.Render(fmt.Sprintf("%3.0f%%", row.Node.Progress))

	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		left = lipgloss.NewStyle().MaxWidth(width - lipgloss.Width(right) - 1).Render(left)
		pad = 1
	}
	line := left + strings.Repeat(" ", pad) + right

	if isSelected {
		line = SelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderDetailPanel(width, height int) string {
	row, ok := m.selected()
	if !ok {
		if m.loadErr != nil {
			return ErrorStyle.Render(" " + m.loadErr.Error())
		}
		return FooterStyle.Render(" Select a task to view details")
	}

	md := m.detailMarkdown(row.Node)

	rendered := md
	if m.glamourRenderer != nil {
		if out, err := m.glamourRenderer.Render(md); err == nil {
			rendered = out
		}
	}
	rendered = strings.TrimRight(rendered, "\n ")
	lines := strings.Split(rendered, "\n")

	scroll := m.detailScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// detailMarkdown describes a task for the details panel.
func (m Model) detailMarkdown(n *task.Node) string {
	var md strings.Builder

	md.WriteString("# " + n.Name + "\n\n")

	meta := []string{
		"**Status:** " + string(n.Status),
		fmt.Sprintf("**Progress:** %.0f%%", n.Progress),
	}
	if task.IsDelayedAt(n, m.now()) {
		meta = append(meta, "**Delayed**")
	}
	md.WriteString(strings.Join(meta, " | ") + "\n\n")

	md.WriteString("- **Planned:** " + formatSpan(n.PlannedStart, n.PlannedEnd) + "\n")
	md.WriteString("- **Actual:** " + formatSpan(n.ActualStart, n.ActualEnd) + "\n")

	own := task.OwnCost(n)
	md.WriteString("- **Cost:** " + formatCost(own) + "\n")
	if m.rollup && m.proj != nil {
		if c, ok := m.proj.RowCosts[n.ID]; ok && n.HasChildren() {
			md.WriteString("- **Cost with subtasks:** " + formatCost(c) + "\n")
		}
	}

	if n.HasChildren() {
		s := task.AggregateAt(n.Children, m.now())
		md.WriteString(fmt.Sprintf("- **Subtasks:** %d (%d done, %d in progress, %d delayed)\n",
			s.Total, s.Completed, s.InProgress, s.Delayed))
	}
	md.WriteString("\n`" + n.ID + "`\n")

	return md.String()
}

func formatSpan(start, end *time.Time) string {
	day := func(t *time.Time) string {
		if t == nil {
			return "—"
		}
		return t.Format(task.DateLayout)
	}
	if start == nil && end == nil {
		return "not set"
	}
	return day(start) + " → " + day(end)
}

func formatCost(c task.Cost) string {
	s := fmt.Sprintf("%.2f / %.2f", c.Actual, c.Planned)
	if c.OverBudget() && c.Planned > 0 {
		s += " (over budget)"
	}
	return s
}

func (m Model) renderFooter() string {
	help := m.keys.ShortHelp()
	switch {
	case m.isRangeInput:
		help = "YYYY-MM-DD..YYYY-MM-DD (either side optional)  enter apply  esc cancel"
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.criteria.Query != "":
		help = "esc clear search  ↑↓ nav  enter expand"
	case m.focusedPane == 1:
		help = "↑↓ scroll details  tab tree  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

// highlightMatch styles the first case-insensitive occurrence of query.
func highlightMatch(name, query string, style lipgloss.Style) string {
	idx := strings.Index(strings.ToLower(name), strings.ToLower(query))
	if idx < 0 || idx+len(query) > len(name) {
		return name
	}
	return name[:idx] + style.Render(name[idx:idx+len(query)]) + name[idx+len(query):]
}

// fileHyperlink wraps a file path in an OSC 8 terminal hyperlink so it's clickable.
func fileHyperlink(path string) string {
	return fmt.Sprintf("\x1b]8;;file://%s\x1b\\%s\x1b]8;;\x1b\\", path, path)
}

func lineAt(lines []string, idx int, width int) string {
	if idx >= len(lines) {
		return strings.Repeat(" ", width)
	}
	line := lines[idx]
	if lw := lipgloss.Width(line); lw < width {
		return line + strings.Repeat(" ", width-lw)
	}
	return line
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}
