// Package board implements the pipeline board: the stage-partitioned job
// store, the drag/drop coordinator, and the bulk selection engine. It is
// headless (rendering and gesture sources live elsewhere) and, like a UI
// model, it is meant to be driven from a single goroutine.
package board

import (
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

// Store partitions the visible jobs into per-stage ordered sequences. Every
// job id lives in exactly one stage's sequence; operations referencing an id
// that isn't where the caller expects are defensive no-ops.
type Store struct {
	columns map[pipeline.Stage][]*pipeline.JobRecord

	// apiCounts holds the server's aggregate counts when the stats fetch
	// succeeded; nil means fall back to list lengths.
	apiCounts map[pipeline.Stage]int
}

func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.columns = make(map[pipeline.Stage][]*pipeline.JobRecord, len(pipeline.Stages))
	for _, st := range pipeline.Stages {
		s.columns[st] = nil
	}
}

// ReplaceAll swaps in a fresh partition of jobs, keyed by each record's
// status (unknown statuses file under interested). The previous cached
// copies are discarded wholesale.
func (s *Store) ReplaceAll(jobs []pipeline.JobRecord) {
	s.reset()
	for i := range jobs {
		rec := jobs[i] // copy: the store owns its cached records
		rec.Status = pipeline.ParseStage(string(rec.Status))
		s.columns[rec.Status] = append(s.columns[rec.Status], &rec)
	}
}

// SetCounts installs server-side aggregate counts.
func (s *Store) SetCounts(counts map[pipeline.Stage]int) {
	s.apiCounts = counts
}

// ClearCounts drops server counts; Count falls back to list lengths.
func (s *Store) ClearCounts() {
	s.apiCounts = nil
}

// Count returns the stage's aggregate count: the server's figure when
// available, otherwise the local list length.
func (s *Store) Count(st pipeline.Stage) int {
	if s.apiCounts != nil {
		if n, ok := s.apiCounts[st]; ok {
			return n
		}
	}
	return len(s.columns[st])
}

// Jobs returns the stage's sequence in insertion order. Callers must not
// reorder the returned slice directly.
func (s *Store) Jobs(st pipeline.Stage) []*pipeline.JobRecord {
	return s.columns[st]
}

// Find locates a job by id across all stages.
func (s *Store) Find(id uint) (*pipeline.JobRecord, pipeline.Stage, bool) {
	for _, st := range pipeline.Stages {
		for _, rec := range s.columns[st] {
			if rec.ID == id {
				return rec, st, true
			}
		}
	}
	return nil, "", false
}

// IndexOf returns the position of id within the stage's sequence, or -1.
func (s *Store) IndexOf(st pipeline.Stage, id uint) int {
	for i, rec := range s.columns[st] {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Reorder moves the card at from to position to within one stage. Out of
// range indexes make it a no-op; it never touches other stages.
func (s *Store) Reorder(st pipeline.Stage, from, to int) bool {
	col := s.columns[st]
	if from < 0 || from >= len(col) || to < 0 || to >= len(col) || from == to {
		return false
	}
	rec := col[from]
	col = append(col[:from], col[from+1:]...)
	col = append(col[:to], append([]*pipeline.JobRecord{rec}, col[to:]...)...)
	s.columns[st] = col
	return true
}

// Move takes id out of from, rewrites its status and last-change timestamp,
// and inserts it into to: before beforeID when that id is present there,
// otherwise at the head. A stale from stage or unknown id is a no-op.
func (s *Store) Move(id uint, from, to pipeline.Stage, beforeID *uint, now time.Time) bool {
	idx := s.IndexOf(from, id)
	if idx < 0 || !to.Valid() {
		return false
	}
	col := s.columns[from]
	rec := col[idx]
	s.columns[from] = append(col[:idx], col[idx+1:]...)

	rec.Status = to
	rec.LastStatusChange = now

	at := 0
	if beforeID != nil {
		if i := s.IndexOf(to, *beforeID); i >= 0 {
			at = i
		}
	}
	dst := s.columns[to]
	s.columns[to] = append(dst[:at], append([]*pipeline.JobRecord{rec}, dst[at:]...)...)
	return true
}
