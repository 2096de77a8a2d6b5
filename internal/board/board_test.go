package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/remote"
	"github.com/justsurfingit/pipeline-board/internal/settings"
)

type updateCall struct {
	id    uint
	patch remote.JobPatch
}

type bulkStatusCall struct {
	ids    []uint
	target pipeline.Stage
}

type bulkDeadlineCall struct {
	ids      []uint
	deadline *time.Time
}

// fakeRemote is an in-memory Jobs API: successful mutations apply to its
// job list, so a board Load after a mutation sees server-authoritative
// state, exactly like the real collaborator.
type fakeRemote struct {
	jobs []pipeline.JobRecord

	listErr         error
	countsErr       error
	updateErr       error
	bulkStatusErr   error
	bulkDeadlineErr error

	updates       []updateCall
	bulkStatus    []bulkStatusCall
	bulkDeadlines []bulkDeadlineCall
}

func (f *fakeRemote) ListJobs(ctx context.Context) ([]pipeline.JobRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]pipeline.JobRecord(nil), f.jobs...), nil
}

func (f *fakeRemote) StageCounts(ctx context.Context) (map[pipeline.Stage]int, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	counts := map[pipeline.Stage]int{}
	for _, j := range f.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (f *fakeRemote) UpdateJob(ctx context.Context, id uint, patch remote.JobPatch) error {
	f.updates = append(f.updates, updateCall{id: id, patch: patch})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.jobs {
		if f.jobs[i].ID != id {
			continue
		}
		if patch.Status != nil {
			f.jobs[i].Status = *patch.Status
		}
		if patch.ClearDeadline {
			f.jobs[i].ApplicationDeadline = nil
		} else if patch.ApplicationDeadline != nil {
			d := *patch.ApplicationDeadline
			f.jobs[i].ApplicationDeadline = &d
		}
	}
	return nil
}

func (f *fakeRemote) BulkUpdateStatus(ctx context.Context, ids []uint, target pipeline.Stage) error {
	f.bulkStatus = append(f.bulkStatus, bulkStatusCall{ids: append([]uint(nil), ids...), target: target})
	if f.bulkStatusErr != nil {
		return f.bulkStatusErr
	}
	for _, id := range ids {
		for i := range f.jobs {
			if f.jobs[i].ID == id {
				f.jobs[i].Status = target
			}
		}
	}
	return nil
}

func (f *fakeRemote) BulkUpdateDeadline(ctx context.Context, ids []uint, deadline *time.Time) error {
	f.bulkDeadlines = append(f.bulkDeadlines, bulkDeadlineCall{ids: append([]uint(nil), ids...), deadline: deadline})
	if f.bulkDeadlineErr != nil {
		return f.bulkDeadlineErr
	}
	for _, id := range ids {
		for i := range f.jobs {
			if f.jobs[i].ID == id {
				if deadline == nil {
					f.jobs[i].ApplicationDeadline = nil
				} else {
					d := *deadline
					f.jobs[i].ApplicationDeadline = &d
				}
			}
		}
	}
	return nil
}

func job(id uint, title string, st pipeline.Stage) pipeline.JobRecord {
	return pipeline.JobRecord{
		ID:               id,
		Title:            title,
		CompanyName:      "Acme",
		Status:           st,
		LastStatusChange: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
	}
}

func newTestBoard(t *testing.T, f *fakeRemote, opts ...Option) *Board {
	t.Helper()
	b := New(f, settings.Load(settings.NewMemoryPort()), opts...)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return b
}

// stageOrder returns the id sequence of a stage, for order assertions.
func stageOrder(b *Board, st pipeline.Stage) []uint {
	var ids []uint
	for _, rec := range b.Jobs(st) {
		ids = append(ids, rec.ID)
	}
	return ids
}

// checkSingleOwner asserts the board invariant: every id in exactly one
// stage's sequence.
func checkSingleOwner(t *testing.T, b *Board) {
	t.Helper()
	seen := map[uint]pipeline.Stage{}
	for _, st := range pipeline.Stages {
		for _, rec := range b.Jobs(st) {
			if prev, dup := seen[rec.ID]; dup {
				t.Fatalf("job %d appears in both %s and %s", rec.ID, prev, st)
			}
			seen[rec.ID] = st
		}
	}
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadPartitionsByStatus(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "Backend", pipeline.StageInterested),
		job(2, "Frontend", pipeline.StageApplied),
		job(3, "SRE", pipeline.Stage("bogus")),
		job(4, "Data", pipeline.StageApplied),
	}}
	b := newTestBoard(t, f)

	if got := stageOrder(b, pipeline.StageInterested); !equalIDs(got, []uint{1, 3}) {
		t.Errorf("interested = %v, want [1 3] (unknown status defaults to interested)", got)
	}
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{2, 4}) {
		t.Errorf("applied = %v, want [2 4]", got)
	}
	checkSingleOwner(t, b)
}

func TestLoadStatsFailureFallsBackToLocalCounts(t *testing.T) {
	f := &fakeRemote{
		jobs:      []pipeline.JobRecord{job(1, "A", pipeline.StageOffer), job(2, "B", pipeline.StageOffer)},
		countsErr: errors.New("stats down"),
	}
	b := New(f, settings.Load(settings.NewMemoryPort()))
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("stats failure must be non-fatal, got %v", err)
	}
	if got := b.Count(pipeline.StageOffer); got != 2 {
		t.Errorf("Count(offer) = %d, want 2 from list length", got)
	}
	if b.Err() != "" {
		t.Errorf("stats failure must not raise a banner, got %q", b.Err())
	}
}

func TestLoadFailureSetsBanner(t *testing.T) {
	f := &fakeRemote{listErr: errors.New("boom")}
	b := New(f, settings.Load(settings.NewMemoryPort()))
	if err := b.Load(context.Background()); err == nil {
		t.Fatal("want error from failed load")
	}
	if b.Err() == "" {
		t.Error("want error banner after failed load")
	}
	b.DismissError()
	if b.Err() != "" {
		t.Error("banner must clear on dismiss")
	}
}

func TestReorderSkippedUnderFilterAndSort(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "Alpha", pipeline.StageApplied),
		job(2, "Beta", pipeline.StageApplied),
	}}
	b := newTestBoard(t, f)

	b.SetSearch("alpha")
	b.ReorderCard(pipeline.StageApplied, 0, 1)
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{1, 2}) {
		t.Errorf("reorder under filter must be skipped, got %v", got)
	}

	b.SetSearch("")
	b.Settings().SetSortRecent(pipeline.StageApplied, true)
	b.ReorderCard(pipeline.StageApplied, 0, 1)
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{1, 2}) {
		t.Errorf("reorder under recency sort must be skipped, got %v", got)
	}

	b.Settings().SetSortRecent(pipeline.StageApplied, false)
	b.ReorderCard(pipeline.StageApplied, 0, 1)
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{2, 1}) {
		t.Errorf("plain reorder = %v, want [2 1]", got)
	}
}

func TestVisibleJobsFilterAndSortDoNotMutateOrder(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "Alpha", pipeline.StageApplied),
		job(2, "Beta", pipeline.StageApplied),
		job(3, "Gamma", pipeline.StageApplied),
	}}
	b := newTestBoard(t, f)

	b.SetSearch("beta")
	vis := b.VisibleJobs(pipeline.StageApplied)
	if len(vis) != 1 || vis[0].ID != 2 {
		t.Fatalf("filtered view = %v, want just job 2", vis)
	}

	b.SetSearch("")
	b.Settings().SetSortRecent(pipeline.StageApplied, true)
	vis = b.VisibleJobs(pipeline.StageApplied)
	// job() gives later ids later timestamps, so recency puts 3 first.
	if vis[0].ID != 3 {
		t.Errorf("recency view starts with %d, want 3", vis[0].ID)
	}
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{1, 2, 3}) {
		t.Errorf("insertion order mutated by view: %v", got)
	}
}

func TestMoveCardOptimisticOrderAndPersist(t *testing.T) {
	// Drag job 1 from interested onto applied, dropped above job 2.
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "One", pipeline.StageInterested),
		job(2, "Two", pipeline.StageApplied),
	}}
	b := newTestBoard(t, f)

	beforeID := uint(2)
	if err := b.MoveCard(context.Background(), 1, pipeline.StageApplied, &beforeID); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{1, 2}) {
		t.Errorf("applied order = %v, want [1 2]", got)
	}
	rec, st, _ := b.Find(1)
	if st != pipeline.StageApplied || rec.Status != pipeline.StageApplied {
		t.Errorf("job 1 stage = %s status = %s, want applied", st, rec.Status)
	}
	if len(f.updates) != 1 || f.updates[0].id != 1 || *f.updates[0].patch.Status != pipeline.StageApplied {
		t.Errorf("persist call = %+v, want one status patch for job 1", f.updates)
	}
	checkSingleOwner(t, b)
}

func TestMoveCardFailureRevertsToServerState(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{
		job(1, "One", pipeline.StageInterested),
		job(2, "Two", pipeline.StageApplied),
	}}
	b := newTestBoard(t, f)
	f.updateErr = errors.New("api down")

	if err := b.MoveCard(context.Background(), 1, pipeline.StageApplied, nil); err == nil {
		t.Fatal("want error from failed persist")
	}
	// Board must equal a fresh load: job 1 back in interested.
	if got := stageOrder(b, pipeline.StageInterested); !equalIDs(got, []uint{1}) {
		t.Errorf("interested = %v, want [1] after revert", got)
	}
	if got := stageOrder(b, pipeline.StageApplied); !equalIDs(got, []uint{2}) {
		t.Errorf("applied = %v, want [2] after revert", got)
	}
	if b.Err() == "" {
		t.Error("want error banner after failed move")
	}
	checkSingleOwner(t, b)
}

func TestMoveCardUnknownIDIsNoop(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{job(1, "One", pipeline.StageInterested)}}
	b := newTestBoard(t, f)

	if err := b.MoveCard(context.Background(), 99, pipeline.StageOffer, nil); err != nil {
		t.Fatalf("unknown id must be a silent no-op, got %v", err)
	}
	if len(f.updates) != 0 {
		t.Errorf("no persist call expected, got %v", f.updates)
	}
	if b.Err() != "" {
		t.Errorf("no banner expected, got %q", b.Err())
	}
}

func TestMoveCardSameStageIsNoop(t *testing.T) {
	f := &fakeRemote{jobs: []pipeline.JobRecord{job(1, "One", pipeline.StageInterested)}}
	b := newTestBoard(t, f)

	if err := b.MoveCard(context.Background(), 1, pipeline.StageInterested, nil); err != nil {
		t.Fatalf("same-stage move: %v", err)
	}
	if len(f.updates) != 0 {
		t.Errorf("no persist call expected, got %v", f.updates)
	}
}
