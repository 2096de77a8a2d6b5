package board

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

func dragBoard(t *testing.T) (*Board, *fakeRemote) {
	t.Helper()
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "One", pipeline.StageInterested),
		job(2, "Two", pipeline.StageApplied),
		job(3, "Three", pipeline.StageApplied),
	}}
	return newTestBoard(t, f), f
}

// snapshot captures the full board partition for state-unchanged assertions.
func snapshot(b *Board) map[pipeline.Stage][]uint {
	out := map[pipeline.Stage][]uint{}
	for _, st := range pipeline.Stages {
		out[st] = append([]uint(nil), stageOrder(b, st)...)
	}
	return out
}

func at(s float64) time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s * float64(time.Second)))
}

func TestSubThresholdReleaseIsClick(t *testing.T) {
	b, f := dragBoard(t)
	var opened []uint
	c := NewCoordinator(b, func(id uint) { opened = append(opened, id) })

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 10, 10, at(0))
	c.Move(12, 11, at(0.1)) // under 5px
	before := snapshot(b)
	overID := uint(2)
	if err := c.Drop(context.Background(), DropTarget{Stage: pipeline.StageApplied, OverJobID: &overID, Valid: true}); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if !reflect.DeepEqual(opened, []uint{1}) {
		t.Errorf("opened = %v, want click on job 1", opened)
	}
	if !reflect.DeepEqual(snapshot(b), before) {
		t.Error("click must not mutate the board")
	}
	if len(f.updates) != 0 {
		t.Errorf("click must not persist anything, got %v", f.updates)
	}
}

func TestMouseActivationThreshold(t *testing.T) {
	b, _ := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(3, 3, at(0.1))
	if _, ok := c.Dragging(); ok {
		t.Error("4.2px of travel must not activate a mouse drag")
	}
	c.Move(4, 3, at(0.2))
	if _, ok := c.Dragging(); !ok {
		t.Error("5px of travel must activate a mouse drag")
	}
}

func TestTouchNeedsDistanceAndDelay(t *testing.T) {
	b, _ := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerTouch, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(10, 0, at(0.05)) // far enough, too soon
	if _, ok := c.Dragging(); ok {
		t.Error("touch drag must not activate before the hold delay")
	}
	c.Move(10, 0, at(0.2))
	if _, ok := c.Dragging(); !ok {
		t.Error("touch drag must activate after distance and delay")
	}
}

func TestSecondBeginRejectedWhileActive(t *testing.T) {
	b, _ := dragBoard(t)
	c := NewCoordinator(b, nil)

	if !c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0)) {
		t.Fatal("first begin rejected")
	}
	if c.Begin(PointerMouse, 2, pipeline.StageApplied, 0, 0, at(0.1)) {
		t.Error("a second drag must not start while one is active")
	}
}

func TestDropOnSelfLeavesStateUnchanged(t *testing.T) {
	b, f := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 2, pipeline.StageApplied, 0, 0, at(0))
	c.Move(20, 0, at(0.1))
	before := snapshot(b)
	selfID := uint(2)
	c.Drop(context.Background(), DropTarget{Stage: pipeline.StageApplied, OverJobID: &selfID, Valid: true})

	if !reflect.DeepEqual(snapshot(b), before) {
		t.Error("drop on self must leave board state unchanged")
	}
	if len(f.updates) != 0 {
		t.Errorf("drop on self must not persist, got %v", f.updates)
	}
	if _, ok := c.Dragging(); ok {
		t.Error("drag state must clear after drop")
	}
}

func TestDropOutsideAnyColumnIsNoop(t *testing.T) {
	b, f := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(30, 0, at(0.1))
	before := snapshot(b)
	c.Drop(context.Background(), DropTarget{Valid: false})

	if !reflect.DeepEqual(snapshot(b), before) {
		t.Error("drop outside must not mutate the board")
	}
	if len(f.updates) != 0 {
		t.Errorf("drop outside must not persist, got %v", f.updates)
	}
	if _, ok := c.Dragging(); ok {
		t.Error("drag state must clear even on a no-op drop")
	}
}

func TestCrossStageDropAboveCard(t *testing.T) {
	b, f := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(40, 0, at(0.1))
	overID := uint(2)
	if err := c.Drop(context.Background(), DropTarget{Stage: pipeline.StageApplied, OverJobID: &overID, Valid: true}); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{1, 2, 3}) {
		t.Errorf("applied = %v, want [1 2 3]", got)
	}
	rec, _, _ := b.Find(1)
	if rec.Status != pipeline.StageApplied {
		t.Errorf("status = %s, want applied", rec.Status)
	}
	if len(f.updates) != 1 {
		t.Errorf("want exactly one persist call, got %d", len(f.updates))
	}
	checkSingleOwner(t, b)
}

func TestSameStageDropReorders(t *testing.T) {
	b, f := dragBoard(t)
	c := NewCoordinator(b, nil)

	// Drag 3 over 2 within applied.
	c.Begin(PointerMouse, 3, pipeline.StageApplied, 0, 0, at(0))
	c.Move(0, 20, at(0.1))
	overID := uint(2)
	c.Drop(context.Background(), DropTarget{Stage: pipeline.StageApplied, OverJobID: &overID, Valid: true})

	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{3, 2}) {
		t.Errorf("applied = %v, want [3 2]", got)
	}
	if len(f.updates) != 0 {
		t.Errorf("reorders are client-side only, got persist calls %v", f.updates)
	}
}

func TestCrossStageDropFailureRevertsAndClears(t *testing.T) {
	b, f := dragBoard(t)
	f.updateErr = errors.New("api down")
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(40, 0, at(0.1))
	if err := c.Drop(context.Background(), DropTarget{Stage: pipeline.StageRejected, Valid: true}); err == nil {
		t.Fatal("want persist error to propagate")
	}

	if got := stageOrder(b, pipeline.StageInterested); !equalIDs(got, []uint{1}) {
		t.Errorf("interested = %v, want [1] after revert", got)
	}
	if b.Err() == "" {
		t.Error("want banner after failed drop")
	}
	if _, ok := c.Dragging(); ok {
		t.Error("drag state must clear regardless of outcome")
	}
}

func TestCancelClearsWithoutMutation(t *testing.T) {
	b, _ := dragBoard(t)
	c := NewCoordinator(b, nil)

	c.Begin(PointerMouse, 1, pipeline.StageInterested, 0, 0, at(0))
	c.Move(40, 0, at(0.1))
	before := snapshot(b)
	c.Cancel()

	if !reflect.DeepEqual(snapshot(b), before) {
		t.Error("cancel must not mutate the board")
	}
	if !c.Begin(PointerMouse, 2, pipeline.StageApplied, 0, 0, at(1)) {
		t.Error("a new drag must be possible after cancel")
	}
}
