package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/justsurfingit/pipeline-board/internal/board"
	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/settings"
)

// Fixed vertical layout: title row, status row, column header row, then
// cards. hitTest depends on this geometry, so View and hitTest must agree.
const (
	topOffset   = 3
	minColWidth = 18
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusedHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	cardStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	grabbedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("1")).Padding(0, 1)
	toastStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func (m *Model) colWidth() int {
	w := m.width / len(pipeline.Stages)
	if w < minColWidth {
		w = minColWidth
	}
	return w
}

func (m *Model) cardHeight() int {
	if m.board.Settings().Density() == settings.DensityCompact {
		return 1
	}
	return 3
}

func (m *Model) View() string {
	if m.mode == modeDetail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	cols := make([]string, 0, len(pipeline.Stages))
	for i, st := range pipeline.Stages {
		cols = append(cols, m.renderColumn(st, i == m.focusCol))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) titleLine() string {
	total := 0
	for _, st := range pipeline.Stages {
		total += m.board.Count(st)
	}
	title := fmt.Sprintf("Pipeline Board — %d jobs", total)
	if m.board.BulkMode() {
		title += fmt.Sprintf("  [bulk: %d selected]", m.board.SelectionCount())
	}
	if q := m.board.Search(); q != "" {
		title += fmt.Sprintf("  [filter: %s]", q)
	}
	return titleStyle.Render(title)
}

// statusLine is one row shared by the error banner, the undo toast, and the
// modal prompts, in that priority order.
func (m *Model) statusLine() string {
	switch m.mode {
	case modeSearch:
		return promptStyle.Render("search: ") + m.searchInput.View()
	case modeConfirm:
		return promptStyle.Render(fmt.Sprintf(
			"Move %d jobs to %s? (y/n)", m.board.SelectionCount(), m.pendingTarget.Label()))
	case modeDeadline:
		return promptStyle.Render("deadline: ") + m.deadlineInput.View()
	}
	if msg := m.board.Err(); msg != "" {
		return errorStyle.Render(msg + "  (esc to dismiss)")
	}
	if m.board.CanUndo() {
		secs := int(m.board.UndoRemaining().Seconds()) + 1
		return toastStyle.Render(fmt.Sprintf(
			"Updated %d jobs — press u to undo (%ds)", m.board.UndoCount(), secs))
	}
	return ""
}

func (m *Model) renderColumn(st pipeline.Stage, focused bool) string {
	w := m.colWidth()
	var b strings.Builder

	header := fmt.Sprintf("%s (%d)", st.Label(), m.board.Count(st))
	if m.board.BulkMode() {
		header = checkMark(m.board.StageCheckState(st)) + " " + header
	}
	if m.board.Settings().SortRecent(st) {
		header += " ↓"
	}
	hs := headerStyle
	if focused {
		hs = focusedHeader
	}
	b.WriteString(hs.Render(pad(header, w)))
	b.WriteString("\n")

	if m.board.Settings().Collapsed(st) {
		b.WriteString(mutedStyle.Render(pad("(collapsed)", w)))
		return b.String()
	}

	jobs := m.board.VisibleJobs(st)
	for i, rec := range jobs {
		b.WriteString(m.renderCard(rec, focused && m.cursor[st] == i))
	}
	return b.String()
}

func (m *Model) renderCard(rec *pipeline.JobRecord, underCursor bool) string {
	w := m.colWidth()
	style := cardStyle
	switch {
	case m.grabbedID != nil && *m.grabbedID == rec.ID:
		style = grabbedStyle
	case underCursor:
		style = cursorStyle
	case m.board.IsSelected(rec.ID):
		style = selectedStyle
	}

	mark := ""
	if m.board.BulkMode() {
		if m.board.IsSelected(rec.ID) {
			mark = "[x] "
		} else {
			mark = "[ ] "
		}
	}

	if m.cardHeight() == 1 {
		line := fmt.Sprintf("%s%s — %s", mark, rec.Title, rec.CompanyName)
		return style.Render(pad(line, w)) + "\n"
	}

	second := rec.CompanyName
	if rec.ApplicationDeadline != nil {
		second += "  due " + rec.ApplicationDeadline.Format("Jan 2")
	}
	var b strings.Builder
	b.WriteString(style.Render(pad(mark+rec.Title, w)))
	b.WriteString("\n")
	b.WriteString(style.Render(pad("  "+second, w)))
	b.WriteString("\n")
	b.WriteString(pad("", w))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) detailView() string {
	rec, st, ok := m.board.Find(m.detailID)
	if !ok {
		return "Job not found — press esc"
	}
	lines := []string{
		titleStyle.Render(rec.Title),
		rec.CompanyName,
		"",
		"Stage:    " + st.Label(),
		"Changed:  " + rec.LastStatusChange.Format("2006-01-02 15:04"),
	}
	if rec.ApplicationDeadline != nil {
		lines = append(lines, "Deadline: "+rec.ApplicationDeadline.Format("2006-01-02"))
	}
	if rec.Location != "" {
		lines = append(lines, "Location: "+rec.Location)
	}
	if rec.JobType != "" {
		lines = append(lines, "Type:     "+rec.JobType)
	}
	if rec.JobLink != "" {
		lines = append(lines, "Link:     "+rec.JobLink)
	}
	if rec.Notes != "" {
		lines = append(lines, "", rec.Notes)
	}
	lines = append(lines, "", mutedStyle.Render("esc to close"))
	return strings.Join(lines, "\n")
}

func (m *Model) helpLine() string {
	if m.board.BulkMode() {
		return "x/space select · 1-6 move to stage · D deadline · b exit bulk · u undo · q quit"
	}
	return "space grab/drop · enter details · b bulk · / search · s sort · c collapse · v density · r reload · q quit"
}

// hitTest maps terminal coordinates to a column and, when the point lands
// on a card, the card itself. ok is false outside any column.
func (m *Model) hitTest(x, y int) (pipeline.Stage, *pipeline.JobRecord, bool) {
	col := x / m.colWidth()
	if x < 0 || col < 0 || col >= len(pipeline.Stages) {
		return "", nil, false
	}
	st := pipeline.Stages[col]
	if y < topOffset-1 {
		return "", nil, false
	}
	if y == topOffset-1 || m.board.Settings().Collapsed(st) {
		// Header row or a collapsed column: a valid drop target, no card.
		return st, nil, true
	}
	idx := (y - topOffset) / m.cardHeight()
	jobs := m.board.VisibleJobs(st)
	if idx < 0 || idx >= len(jobs) {
		return st, nil, true
	}
	return st, jobs[idx], true
}

func checkMark(cs board.CheckState) string {
	switch cs {
	case board.Checked:
		return "[x]"
	case board.Indeterminate:
		return "[-]"
	}
	return "[ ]"
}

// pad trims or right-pads s to exactly w cells (ASCII-ish approximation;
// good enough for the fixed-grid hit test).
func pad(s string, w int) string {
	runes := []rune(s)
	if len(runes) >= w {
		return string(runes[:w-1]) + " "
	}
	return s + strings.Repeat(" ", w-len(runes))
}
