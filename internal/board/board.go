package board

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/remote"
	"github.com/justsurfingit/pipeline-board/internal/settings"
)

// Remote is the board's view of the Jobs API. *remote.Client satisfies it;
// tests substitute fakes.
type Remote interface {
	ListJobs(ctx context.Context) ([]pipeline.JobRecord, error)
	StageCounts(ctx context.Context) (map[pipeline.Stage]int, error)
	UpdateJob(ctx context.Context, id uint, patch remote.JobPatch) error
	BulkUpdateStatus(ctx context.Context, ids []uint, target pipeline.Stage) error
	BulkUpdateDeadline(ctx context.Context, ids []uint, deadline *time.Time) error
}

// Board owns all client-side pipeline state: the stage partition, the
// search/sort view, the bulk selection, and the undo snapshot. Mutations are
// optimistic on the single-card path and reconcile by full reload on any
// persistence failure. Not safe for concurrent use; drive it from one
// event loop.
type Board struct {
	store    *Store
	remote   Remote
	settings *settings.Settings
	log      *slog.Logger
	now      func() time.Time

	searchQuery string
	lastErr     string

	bulkMode  bool
	selection map[uint]struct{}
	undo      *undoState
}

type Option func(*Board)

func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.log = l }
}

// WithClock injects the time source used for status-change timestamps and
// the undo window.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

func New(r Remote, prefs *settings.Settings, opts ...Option) *Board {
	b := &Board{
		store:     NewStore(),
		remote:    r,
		settings:  prefs,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		selection: make(map[uint]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Settings exposes the preference object the board was constructed with.
func (b *Board) Settings() *settings.Settings { return b.settings }

// Load replaces the whole board from the authoritative source. The jobs
// fetch is fatal to the load; the stats fetch is best-effort and a failure
// there falls back to locally computed counts.
func (b *Board) Load(ctx context.Context) error {
	jobs, err := b.remote.ListJobs(ctx)
	if err != nil {
		b.log.Error("board load failed", "err", err)
		b.setError("Couldn't load the board — check the Jobs API and retry")
		return err
	}
	b.store.ReplaceAll(jobs)

	counts, err := b.remote.StageCounts(ctx)
	if err != nil {
		b.log.Debug("stats fetch failed, using local counts", "err", err)
		b.store.ClearCounts()
	} else {
		b.store.SetCounts(counts)
	}
	return nil
}

// Jobs returns the stage's sequence in insertion order.
func (b *Board) Jobs(st pipeline.Stage) []*pipeline.JobRecord {
	return b.store.Jobs(st)
}

// VisibleJobs applies the current search filter and the stage's recency
// sort to produce the rendered list. The underlying insertion order is
// never mutated.
func (b *Board) VisibleJobs(st pipeline.Stage) []*pipeline.JobRecord {
	src := b.store.Jobs(st)
	out := make([]*pipeline.JobRecord, 0, len(src))
	q := strings.ToLower(strings.TrimSpace(b.searchQuery))
	for _, rec := range src {
		if q != "" &&
			!strings.Contains(strings.ToLower(rec.Title), q) &&
			!strings.Contains(strings.ToLower(rec.CompanyName), q) {
			continue
		}
		out = append(out, rec)
	}
	if b.settings.SortRecent(st) {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastStatusChange.After(out[j].LastStatusChange)
		})
	}
	return out
}

func (b *Board) Count(st pipeline.Stage) int { return b.store.Count(st) }

func (b *Board) Find(id uint) (*pipeline.JobRecord, pipeline.Stage, bool) {
	return b.store.Find(id)
}

func (b *Board) SetSearch(q string) { b.searchQuery = q }
func (b *Board) Search() string     { return b.searchQuery }

// Err returns the current banner message, empty when there is none.
func (b *Board) Err() string   { return b.lastErr }
func (b *Board) DismissError() { b.lastErr = "" }

func (b *Board) setError(msg string) { b.lastErr = msg }

// ReorderCard reorders within one stage. While a search filter or the
// stage's recency sort is active the rendered list doesn't correspond 1:1
// to insertion order, so the reorder is silently skipped rather than
// corrupting state. Reorders are client session state and are not persisted.
func (b *Board) ReorderCard(st pipeline.Stage, from, to int) {
	if strings.TrimSpace(b.searchQuery) != "" || b.settings.SortRecent(st) {
		return
	}
	b.store.Reorder(st, from, to)
}

// MoveCard performs a cross-stage move: optimistic local mutation first,
// then a persistence call. On persistence failure the board reloads from
// the authoritative source instead of attempting a partial rollback, and
// the error banner is set.
func (b *Board) MoveCard(ctx context.Context, id uint, to pipeline.Stage, beforeID *uint) error {
	rec, from, ok := b.store.Find(id)
	if !ok || from == to {
		return nil
	}
	b.store.Move(id, from, to, beforeID, b.now())

	status := to
	if err := b.remote.UpdateJob(ctx, id, remote.JobPatch{Status: &status}); err != nil {
		b.log.Warn("move persist failed, reloading", "job", id, "err", err)
		// Full refetch instead of partial rollback; the reload banner is
		// only overwritten if the reload itself fails too.
		b.setError(fmt.Sprintf("Couldn't move %q to %s — board reloaded", rec.Title, to.Label()))
		_ = b.Load(ctx)
		return err
	}
	return nil
}
