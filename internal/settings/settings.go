// Package settings holds the board's persisted user preferences behind an
// explicit object with an injected persistence port, so board logic can be
// tested without a real storage backend.
package settings

import (
	"strconv"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

// Preference keys. Absent or malformed values silently default.
const (
	keyCollapsedPrefix  = "board.collapsed."
	keySortRecentPrefix = "board.sort_recent."
	keyDensity          = "board.density"
	keyBulkThreshold    = "board.bulk_confirm_threshold"
)

const (
	DensityCozy    = "cozy"
	DensityCompact = "compact"

	// DefaultBulkConfirmThreshold is the selection size above which a bulk
	// move asks for confirmation.
	DefaultBulkConfirmThreshold = 5
)

// Port is the persistence backend for preferences: a flat string key-value
// store. Implementations: MemoryPort (tests) and FilePort (Viper-backed).
type Port interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Settings is the explicit preference object handed to the board at
// construction. Reads are served from memory; writes go through the port
// best-effort (a failed write keeps the in-memory value).
type Settings struct {
	port Port

	collapsed  map[pipeline.Stage]bool
	sortRecent map[pipeline.Stage]bool
	density    string
	threshold  int
}

// Load reads every known key from the port, defaulting silently.
func Load(port Port) *Settings {
	s := &Settings{
		port:       port,
		collapsed:  make(map[pipeline.Stage]bool),
		sortRecent: make(map[pipeline.Stage]bool),
		density:    DensityCozy,
		threshold:  DefaultBulkConfirmThreshold,
	}
	for _, st := range pipeline.Stages {
		s.collapsed[st] = readBool(port, keyCollapsedPrefix+string(st))
		s.sortRecent[st] = readBool(port, keySortRecentPrefix+string(st))
	}
	if v, ok := port.Get(keyDensity); ok && (v == DensityCozy || v == DensityCompact) {
		s.density = v
	}
	if v, ok := port.Get(keyBulkThreshold); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.threshold = n
		}
	}
	return s
}

func readBool(port Port, key string) bool {
	v, ok := port.Get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func (s *Settings) Collapsed(st pipeline.Stage) bool { return s.collapsed[st] }

func (s *Settings) SetCollapsed(st pipeline.Stage, v bool) {
	s.collapsed[st] = v
	_ = s.port.Set(keyCollapsedPrefix+string(st), strconv.FormatBool(v))
}

// SortRecent reports whether the stage's rendered list is sorted by recency
// instead of insertion order.
func (s *Settings) SortRecent(st pipeline.Stage) bool { return s.sortRecent[st] }

func (s *Settings) SetSortRecent(st pipeline.Stage, v bool) {
	s.sortRecent[st] = v
	_ = s.port.Set(keySortRecentPrefix+string(st), strconv.FormatBool(v))
}

func (s *Settings) Density() string { return s.density }

func (s *Settings) SetDensity(d string) {
	if d != DensityCozy && d != DensityCompact {
		return
	}
	s.density = d
	_ = s.port.Set(keyDensity, d)
}

// BulkConfirmThreshold is the selection size above which bulk moves require
// explicit confirmation.
func (s *Settings) BulkConfirmThreshold() int { return s.threshold }

func (s *Settings) SetBulkConfirmThreshold(n int) {
	if n < 0 {
		return
	}
	s.threshold = n
	_ = s.port.Set(keyBulkThreshold, strconv.Itoa(n))
}

// MemoryPort is an in-memory Port for tests and ephemeral sessions.
type MemoryPort struct {
	values map[string]string
}

func NewMemoryPort() *MemoryPort {
	return &MemoryPort{values: make(map[string]string)}
}

func (m *MemoryPort) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryPort) Set(key, value string) error {
	m.values[key] = value
	return nil
}
