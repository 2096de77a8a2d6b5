package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/remote"
)

// UndoWindow is how long a completed bulk operation can be undone.
const UndoWindow = 6 * time.Second

// CheckState is the tri-state of a stage's bulk checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Indeterminate
)

type undoKind int

const (
	undoStatus undoKind = iota
	undoDeadline
)

// undoState snapshots per-job pre-operation values. The token guards
// against a stale expiry clearing a newer snapshot.
type undoState struct {
	token     uuid.UUID
	kind      undoKind
	statuses  map[uint]pipeline.Stage
	deadlines map[uint]*time.Time
	expiresAt time.Time
	count     int
}

// SetBulkMode enables or disables bulk mode. Leaving bulk mode cancels the
// selection.
func (b *Board) SetBulkMode(on bool) {
	b.bulkMode = on
	if !on {
		b.selection = make(map[uint]struct{})
	}
}

func (b *Board) BulkMode() bool { return b.bulkMode }

// ToggleSelect adds or removes a job from the selection set. Only available
// while bulk mode is on; unknown ids are ignored.
func (b *Board) ToggleSelect(id uint) {
	if !b.bulkMode {
		return
	}
	if _, ok := b.selection[id]; ok {
		delete(b.selection, id)
		return
	}
	if _, _, ok := b.store.Find(id); ok {
		b.selection[id] = struct{}{}
	}
}

func (b *Board) IsSelected(id uint) bool {
	_, ok := b.selection[id]
	return ok
}

func (b *Board) SelectionCount() int { return len(b.selection) }

// SelectedIDs returns the selection in ascending id order, so API payloads
// are deterministic.
func (b *Board) SelectedIDs() []uint {
	ids := make([]uint, 0, len(b.selection))
	for id := range b.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StageCheckState reports the stage's checkbox: Checked when every selected
// job belongs to the stage, Indeterminate when only some do, Unchecked when
// none do or the selection is empty.
func (b *Board) StageCheckState(st pipeline.Stage) CheckState {
	if len(b.selection) == 0 {
		return Unchecked
	}
	in := 0
	for id := range b.selection {
		if _, stage, ok := b.store.Find(id); ok && stage == st {
			in++
		}
	}
	switch {
	case in == 0:
		return Unchecked
	case in == len(b.selection):
		return Checked
	default:
		return Indeterminate
	}
}

// NeedsConfirmation reports whether a bulk move of the current selection
// must be confirmed first: strictly more jobs than the threshold.
func (b *Board) NeedsConfirmation() bool {
	return len(b.selection) > b.settings.BulkConfirmThreshold()
}

// BulkMove transitions every selected job to target with a single API call.
// Unlike the single-card drag path there is no optimistic mutation: the UI
// waits for the round trip. On success the board reloads, the selection
// clears, and a timed undo of each job's prior status is armed. On failure
// the selection is left untouched and the banner is set.
func (b *Board) BulkMove(ctx context.Context, target pipeline.Stage) error {
	ids := b.SelectedIDs()
	if len(ids) == 0 {
		return nil
	}
	prior := make(map[uint]pipeline.Stage, len(ids))
	for _, id := range ids {
		if rec, _, ok := b.store.Find(id); ok {
			prior[id] = rec.Status
		}
	}

	if err := b.remote.BulkUpdateStatus(ctx, ids, target); err != nil {
		b.log.Warn("bulk move failed", "count", len(ids), "target", target, "err", err)
		b.setError(fmt.Sprintf("Couldn't move %d jobs to %s", len(ids), target.Label()))
		return err
	}

	if err := b.Load(ctx); err != nil {
		return err
	}
	b.armUndo(undoStatus, prior, nil)
	b.selection = make(map[uint]struct{})
	return nil
}

// BulkSetDeadline sets (or clears, when deadline is nil) the application
// deadline of every selected job, following the same snapshot -> apply ->
// reload -> timed-undo pattern as BulkMove.
func (b *Board) BulkSetDeadline(ctx context.Context, deadline *time.Time) error {
	ids := b.SelectedIDs()
	if len(ids) == 0 {
		return nil
	}
	prior := make(map[uint]*time.Time, len(ids))
	for _, id := range ids {
		if rec, _, ok := b.store.Find(id); ok {
			if rec.ApplicationDeadline != nil {
				d := *rec.ApplicationDeadline
				prior[id] = &d
			} else {
				prior[id] = nil
			}
		}
	}

	if err := b.remote.BulkUpdateDeadline(ctx, ids, deadline); err != nil {
		b.log.Warn("bulk deadline failed", "count", len(ids), "err", err)
		b.setError(fmt.Sprintf("Couldn't update the deadline on %d jobs", len(ids)))
		return err
	}

	if err := b.Load(ctx); err != nil {
		return err
	}
	b.armUndo(undoDeadline, nil, prior)
	b.selection = make(map[uint]struct{})
	return nil
}

func (b *Board) armUndo(kind undoKind, statuses map[uint]pipeline.Stage, deadlines map[uint]*time.Time) {
	n := len(statuses)
	if kind == undoDeadline {
		n = len(deadlines)
	}
	b.undo = &undoState{
		token:     uuid.New(),
		kind:      kind,
		statuses:  statuses,
		deadlines: deadlines,
		expiresAt: b.now().Add(UndoWindow),
		count:     n,
	}
}

// CanUndo reports whether an undo snapshot exists and its window is open.
// Expiry is evaluated lazily against the clock, so a snapshot that outlived
// its window reads as absent even before anything clears it.
func (b *Board) CanUndo() bool {
	return b.undo != nil && b.now().Before(b.undo.expiresAt)
}

// UndoRemaining is how long the undo affordance stays valid; zero when
// there is nothing to undo.
func (b *Board) UndoRemaining() time.Duration {
	if !b.CanUndo() {
		return 0
	}
	return b.undo.expiresAt.Sub(b.now())
}

// UndoCount is the number of jobs the pending undo would restore.
func (b *Board) UndoCount() int {
	if !b.CanUndo() {
		return 0
	}
	return b.undo.count
}

// UndoToken identifies the current snapshot so a delayed expiry can be
// scheduled against it.
func (b *Board) UndoToken() (uuid.UUID, bool) {
	if b.undo == nil {
		return uuid.UUID{}, false
	}
	return b.undo.token, true
}

// ExpireUndo clears the snapshot the token refers to. A timer firing for a
// superseded snapshot is a harmless no-op.
func (b *Board) ExpireUndo(token uuid.UUID) {
	if b.undo != nil && b.undo.token == token {
		b.undo = nil
	}
}

// DismissUndo discards the snapshot without applying it.
func (b *Board) DismissUndo() { b.undo = nil }

// Undo reapplies each snapshotted job's pre-operation value with individual
// PATCH calls, then reloads. After the window (or with no snapshot) it is a
// no-op. Partial failures surface on the banner like any forward action.
func (b *Board) Undo(ctx context.Context) error {
	if !b.CanUndo() {
		b.undo = nil
		return nil
	}
	snap := b.undo
	b.undo = nil

	var errs []error
	switch snap.kind {
	case undoStatus:
		for _, id := range sortedKeys(snap.statuses) {
			status := snap.statuses[id]
			if err := b.remote.UpdateJob(ctx, id, remote.JobPatch{Status: &status}); err != nil {
				errs = append(errs, fmt.Errorf("job %d: %w", id, err))
			}
		}
	case undoDeadline:
		for _, id := range sortedKeys(snap.deadlines) {
			patch := remote.JobPatch{}
			if d := snap.deadlines[id]; d != nil {
				patch.ApplicationDeadline = d
			} else {
				patch.ClearDeadline = true
			}
			if err := b.remote.UpdateJob(ctx, id, patch); err != nil {
				errs = append(errs, fmt.Errorf("job %d: %w", id, err))
			}
		}
	}
	if len(errs) > 0 {
		b.setError(fmt.Sprintf("Undo only partially applied (%d of %d failed)", len(errs), snap.count))
	}
	if err := b.Load(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
