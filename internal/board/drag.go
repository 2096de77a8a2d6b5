package board

import (
	"context"
	"math"
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

// PointerKind distinguishes mouse-style pointers from touch, which gets a
// larger activation distance plus a hold delay so scrolling isn't
// misread as dragging.
type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
)

const (
	mouseDragThresholdPx = 5.0
	touchDragThresholdPx = 8.0
	touchDragHoldDelay   = 150 * time.Millisecond
)

// DropTarget describes where a pointer was released. Valid is false when
// the release happened outside any recognized column.
type DropTarget struct {
	Stage pipeline.Stage
	// OverJobID is the card under the pointer, nil when released on empty
	// column space.
	OverJobID *uint
	Valid     bool
}

// Coordinator translates pointer gestures into board mutations. It carries
// the single in-progress drag: a second Begin while one is active is
// rejected, so no two drags can be in flight.
type Coordinator struct {
	board  *Board
	onOpen func(jobID uint) // click (sub-threshold release) opens details

	active    bool
	dragging  bool
	kind      PointerKind
	jobID     uint
	fromStage pipeline.Stage
	startX    float64
	startY    float64
	startedAt time.Time
}

func NewCoordinator(b *Board, onOpen func(jobID uint)) *Coordinator {
	return &Coordinator{board: b, onOpen: onOpen}
}

// Begin records a pointer press on a card. Returns false when another drag
// is already active or the card doesn't exist.
func (c *Coordinator) Begin(kind PointerKind, jobID uint, st pipeline.Stage, x, y float64, at time.Time) bool {
	if c.active {
		return false
	}
	if _, _, ok := c.board.Find(jobID); !ok {
		return false
	}
	c.active = true
	c.dragging = false
	c.kind = kind
	c.jobID = jobID
	c.fromStage = st
	c.startX, c.startY = x, y
	c.startedAt = at
	return true
}

// Move feeds pointer motion. The drag activates once the movement threshold
// is passed (distance for mouse, distance plus hold delay for touch), which
// is what separates a drag from a click.
func (c *Coordinator) Move(x, y float64, at time.Time) {
	if !c.active || c.dragging {
		return
	}
	dist := math.Hypot(x-c.startX, y-c.startY)
	switch c.kind {
	case PointerTouch:
		if dist >= touchDragThresholdPx && at.Sub(c.startedAt) >= touchDragHoldDelay {
			c.dragging = true
		}
	default:
		if dist >= mouseDragThresholdPx {
			c.dragging = true
		}
	}
}

// Dragging returns the id being dragged, if the gesture has activated.
func (c *Coordinator) Dragging() (uint, bool) {
	if c.active && c.dragging {
		return c.jobID, true
	}
	return 0, false
}

// Drop finishes the gesture. Whatever happens, click, reorder, move or
// no-op, the in-progress drag state is cleared.
func (c *Coordinator) Drop(ctx context.Context, target DropTarget) error {
	if !c.active {
		return nil
	}
	jobID, fromStage, wasDrag := c.jobID, c.fromStage, c.dragging
	c.reset()

	if !wasDrag {
		if c.onOpen != nil {
			c.onOpen(jobID)
		}
		return nil
	}
	if !target.Valid || !target.Stage.Valid() {
		return nil
	}

	if target.Stage == fromStage {
		// Dropped back into its own column: a reorder when released over a
		// different card, otherwise nothing.
		if target.OverJobID == nil || *target.OverJobID == jobID {
			return nil
		}
		from := c.board.store.IndexOf(fromStage, jobID)
		to := c.board.store.IndexOf(fromStage, *target.OverJobID)
		if from < 0 || to < 0 {
			return nil
		}
		c.board.ReorderCard(fromStage, from, to)
		return nil
	}

	return c.board.MoveCard(ctx, jobID, target.Stage, target.OverJobID)
}

// Cancel aborts the gesture, clearing drag state without any mutation.
func (c *Coordinator) Cancel() {
	c.reset()
}

func (c *Coordinator) reset() {
	c.active = false
	c.dragging = false
	c.jobID = 0
	c.fromStage = ""
}
