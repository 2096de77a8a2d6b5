// Package tui renders the pipeline board in the terminal. It is a thin
// view: every board rule lives in internal/board, and this model calls it
// synchronously from Update, which keeps all state mutation on the event
// loop goroutine.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/justsurfingit/pipeline-board/internal/board"
	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/settings"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeConfirm
	modeDeadline
	modeDetail
)

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Grab     key.Binding
	Open     key.Binding
	Bulk     key.Binding
	Select   key.Binding
	Deadline key.Binding
	Undo     key.Binding
	Search   key.Binding
	Sort     key.Binding
	Collapse key.Binding
	Density  key.Binding
	Reload   key.Binding
	Dismiss  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h")),
		Right:    key.NewBinding(key.WithKeys("right", "l")),
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		Grab:     key.NewBinding(key.WithKeys(" ")),
		Open:     key.NewBinding(key.WithKeys("enter")),
		Bulk:     key.NewBinding(key.WithKeys("b")),
		Select:   key.NewBinding(key.WithKeys("x")),
		Deadline: key.NewBinding(key.WithKeys("D")),
		Undo:     key.NewBinding(key.WithKeys("u")),
		Search:   key.NewBinding(key.WithKeys("/")),
		Sort:     key.NewBinding(key.WithKeys("s")),
		Collapse: key.NewBinding(key.WithKeys("c")),
		Density:  key.NewBinding(key.WithKeys("v")),
		Reload:   key.NewBinding(key.WithKeys("r")),
		Dismiss:  key.NewBinding(key.WithKeys("esc")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	}
}

// undoExpireMsg fires when a bulk operation's undo window closes. The token
// makes a stale timer for a superseded snapshot a no-op.
type undoExpireMsg struct{ token uuid.UUID }

// tickMsg drives the undo-toast countdown.
type tickMsg time.Time

type Model struct {
	board *board.Board
	coord *board.Coordinator

	keys     keyMap
	focusCol int
	cursor   map[pipeline.Stage]int

	// grabbedID is the keyboard-picked-up card, nil when none.
	grabbedID   *uint
	grabbedFrom pipeline.Stage

	mode          mode
	searchInput   textinput.Model
	deadlineInput textinput.Model
	pendingTarget pipeline.Stage
	detailID      uint

	width  int
	height int
}

func NewModel(b *board.Board) *Model {
	search := textinput.New()
	search.Placeholder = "title or company"
	search.CharLimit = 64

	deadline := textinput.New()
	deadline.Placeholder = "YYYY-MM-DD (empty clears)"
	deadline.CharLimit = 10

	m := &Model{
		board:         b,
		keys:          defaultKeyMap(),
		cursor:        make(map[pipeline.Stage]int),
		searchInput:   search,
		deadlineInput: deadline,
	}
	m.coord = board.NewCoordinator(b, func(jobID uint) {
		m.detailID = jobID
		m.mode = modeDetail
	})
	return m
}

// Run loads the board and starts the program.
func Run(b *board.Board) error {
	if err := b.Load(context.Background()); err != nil {
		return err
	}
	p := tea.NewProgram(NewModel(b), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case undoExpireMsg:
		m.board.ExpireUndo(msg.token)
		return m, nil
	case tickMsg:
		if m.board.CanUndo() {
			return m, tickCmd()
		}
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeConfirm:
			return m.handleConfirmKey(msg)
		case modeDeadline:
			return m.handleDeadlineKey(msg)
		case modeDetail:
			if key.Matches(msg, m.keys.Dismiss, m.keys.Open, m.keys.Quit) {
				m.mode = modeNormal
			}
			return m, nil
		default:
			return m.handleNormalKey(msg)
		}
	}
	return m, nil
}

func (m *Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	stage := m.focusedStage()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		if m.focusCol > 0 {
			m.focusCol--
		}
	case key.Matches(msg, m.keys.Right):
		if m.focusCol < len(pipeline.Stages)-1 {
			m.focusCol++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor[stage] > 0 {
			m.cursor[stage]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[stage] < len(m.board.VisibleJobs(stage))-1 {
			m.cursor[stage]++
		}
	case key.Matches(msg, m.keys.Grab):
		if m.board.BulkMode() {
			if rec := m.cardUnderCursor(); rec != nil {
				m.board.ToggleSelect(rec.ID)
			}
			return m, nil
		}
		return m.grabOrDrop()
	case key.Matches(msg, m.keys.Open):
		if rec := m.cardUnderCursor(); rec != nil {
			m.detailID = rec.ID
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.Bulk):
		m.board.SetBulkMode(!m.board.BulkMode())
		m.grabbedID = nil
	case key.Matches(msg, m.keys.Select):
		if m.board.BulkMode() {
			if rec := m.cardUnderCursor(); rec != nil {
				m.board.ToggleSelect(rec.ID)
			}
		}
	case key.Matches(msg, m.keys.Deadline):
		if m.board.BulkMode() && m.board.SelectionCount() > 0 {
			m.deadlineInput.SetValue("")
			m.deadlineInput.Focus()
			m.mode = modeDeadline
		}
	case key.Matches(msg, m.keys.Undo):
		_ = m.board.Undo(context.Background())
	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue(m.board.Search())
		m.searchInput.Focus()
		m.mode = modeSearch
	case key.Matches(msg, m.keys.Sort):
		m.board.Settings().SetSortRecent(stage, !m.board.Settings().SortRecent(stage))
	case key.Matches(msg, m.keys.Collapse):
		m.board.Settings().SetCollapsed(stage, !m.board.Settings().Collapsed(stage))
	case key.Matches(msg, m.keys.Density):
		if m.board.Settings().Density() == settings.DensityCozy {
			m.board.Settings().SetDensity(settings.DensityCompact)
		} else {
			m.board.Settings().SetDensity(settings.DensityCozy)
		}
	case key.Matches(msg, m.keys.Reload):
		_ = m.board.Load(context.Background())
	case key.Matches(msg, m.keys.Dismiss):
		switch {
		case m.grabbedID != nil:
			m.grabbedID = nil
		case m.board.Err() != "":
			m.board.DismissError()
		case m.board.CanUndo():
			m.board.DismissUndo()
		}
	default:
		// Number keys are bulk-move targets while selecting.
		if m.board.BulkMode() && m.board.SelectionCount() > 0 {
			if st, ok := stageForDigit(msg.String()); ok {
				return m.initiateBulkMove(st)
			}
		}
	}
	m.clampCursor(stage)
	return m, nil
}

// grabOrDrop is the keyboard drag: first press picks up the card under the
// cursor, the second drops it at the cursor position: a reorder within
// the same column, a cross-stage move otherwise.
func (m *Model) grabOrDrop() (tea.Model, tea.Cmd) {
	stage := m.focusedStage()
	if m.grabbedID == nil {
		if rec := m.cardUnderCursor(); rec != nil {
			id := rec.ID
			m.grabbedID = &id
			m.grabbedFrom = stage
		}
		return m, nil
	}

	id := *m.grabbedID
	m.grabbedID = nil
	var beforeID *uint
	if over := m.cardUnderCursor(); over != nil && over.ID != id {
		overID := over.ID
		beforeID = &overID
	}
	if stage == m.grabbedFrom {
		if beforeID != nil {
			from := indexOf(m.board.Jobs(stage), id)
			to := indexOf(m.board.Jobs(stage), *beforeID)
			if from >= 0 && to >= 0 {
				m.board.ReorderCard(stage, from, to)
			}
		}
		return m, nil
	}
	_ = m.board.MoveCard(context.Background(), id, stage, beforeID)
	return m, nil
}

func (m *Model) initiateBulkMove(target pipeline.Stage) (tea.Model, tea.Cmd) {
	if m.board.NeedsConfirmation() {
		m.pendingTarget = target
		m.mode = modeConfirm
		return m, nil
	}
	return m.performBulkMove(target)
}

func (m *Model) performBulkMove(target pipeline.Stage) (tea.Model, tea.Cmd) {
	if err := m.board.BulkMove(context.Background(), target); err != nil {
		return m, nil
	}
	return m, m.undoCmds()
}

// undoCmds schedules the window expiry for the just-armed snapshot plus the
// countdown tick.
func (m *Model) undoCmds() tea.Cmd {
	token, ok := m.board.UndoToken()
	if !ok {
		return nil
	}
	expire := tea.Tick(board.UndoWindow, func(time.Time) tea.Msg {
		return undoExpireMsg{token: token}
	})
	return tea.Batch(expire, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.board.SetSearch(m.searchInput.Value())
		m.mode = modeNormal
		m.clampAllCursors()
		return m, nil
	case "esc":
		m.board.SetSearch("")
		m.searchInput.SetValue("")
		m.mode = modeNormal
		m.clampAllCursors()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.mode = modeNormal
		return m.performBulkMove(m.pendingTarget)
	case "n", "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) handleDeadlineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeNormal
		raw := m.deadlineInput.Value()
		var deadline *time.Time
		if raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return m, nil
			}
			deadline = &t
		}
		if err := m.board.BulkSetDeadline(context.Background(), deadline); err != nil {
			return m, nil
		}
		return m, m.undoCmds()
	case "esc":
		m.mode = modeNormal
	}
	var cmd tea.Cmd
	m.deadlineInput, cmd = m.deadlineInput.Update(msg)
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if st, rec, ok := m.hitTest(msg.X, msg.Y); ok && rec != nil {
			m.coord.Begin(board.PointerMouse, rec.ID, st, float64(msg.X), float64(msg.Y), time.Now())
		}
	case tea.MouseActionMotion:
		m.coord.Move(float64(msg.X), float64(msg.Y), time.Now())
	case tea.MouseActionRelease:
		target := board.DropTarget{}
		if st, rec, ok := m.hitTest(msg.X, msg.Y); ok {
			target.Stage = st
			target.Valid = true
			if rec != nil {
				id := rec.ID
				target.OverJobID = &id
			}
		}
		_ = m.coord.Drop(context.Background(), target)
	}
	return m, nil
}

func (m *Model) focusedStage() pipeline.Stage {
	return pipeline.Stages[m.focusCol]
}

func (m *Model) cardUnderCursor() *pipeline.JobRecord {
	stage := m.focusedStage()
	jobs := m.board.VisibleJobs(stage)
	i := m.cursor[stage]
	if i < 0 || i >= len(jobs) {
		return nil
	}
	return jobs[i]
}

func (m *Model) clampCursor(st pipeline.Stage) {
	n := len(m.board.VisibleJobs(st))
	if m.cursor[st] >= n {
		m.cursor[st] = n - 1
	}
	if m.cursor[st] < 0 {
		m.cursor[st] = 0
	}
}

func (m *Model) clampAllCursors() {
	for _, st := range pipeline.Stages {
		m.clampCursor(st)
	}
}

func stageForDigit(s string) (pipeline.Stage, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '6' {
		return "", false
	}
	return pipeline.Stages[s[0]-'1'], true
}

func indexOf(jobs []*pipeline.JobRecord, id uint) int {
	for i, rec := range jobs {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
