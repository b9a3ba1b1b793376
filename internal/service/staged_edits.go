package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
)

// ErrNotStaged is returned when committing a cell that has no pending edit.
var ErrNotStaged = errors.New("cell has no staged edit")

// CellKey identifies one cell of the marking table.
type CellKey struct {
	ComponentID string
	TraineeID   string
}

// String renders the key as componentID_traineeID.
func (k CellKey) String() string {
	return k.ComponentID + "_" + k.TraineeID
}

// CommitFunc persists a single staged cell.
type CommitFunc func(ctx context.Context, entry dto.SaveEntryRequest) error

type stagedCell struct {
	entry   dto.SaveEntryRequest
	version uint64
}

// StagedEdits holds unsaved cell edits until they are committed. A cell leaves
// the arena only after a successful commit, so failed cells can be retried.
type StagedEdits struct {
	mu      sync.Mutex
	cells   map[CellKey]stagedCell
	version uint64
}

// NewStagedEdits constructs an empty arena.
func NewStagedEdits() *StagedEdits {
	return &StagedEdits{cells: make(map[CellKey]stagedCell)}
}

// Stage records an edit, replacing any earlier edit of the same cell.
func (s *StagedEdits) Stage(entry dto.SaveEntryRequest) CellKey {
	key := CellKey{ComponentID: entry.ComponentID, TraineeID: entry.TraineeID}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.cells[key] = stagedCell{entry: entry, version: s.version}
	return key
}

// Discard drops a staged edit and reports whether one existed.
func (s *StagedEdits) Discard(key CellKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cells[key]
	delete(s.cells, key)
	return ok
}

// Get returns the staged edit of a cell.
func (s *StagedEdits) Get(key CellKey) (dto.SaveEntryRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cell, ok := s.cells[key]
	return cell.entry, ok
}

// Len returns the number of staged cells.
func (s *StagedEdits) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cells)
}

// Pending lists staged cells sorted by key.
func (s *StagedEdits) Pending() []CellKey {
	s.mu.Lock()
	keys := make([]CellKey, 0, len(s.cells))
	for key := range s.cells {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Commit persists one cell through fn. The cell is removed only when fn
// succeeds and nobody restaged it in the meantime.
func (s *StagedEdits) Commit(ctx context.Context, key CellKey, fn CommitFunc) error {
	s.mu.Lock()
	cell, ok := s.cells[key]
	s.mu.Unlock()
	if !ok {
		return ErrNotStaged
	}
	if err := fn(ctx, cell.entry); err != nil {
		return err
	}
	s.mu.Lock()
	if current, ok := s.cells[key]; ok && current.version == cell.version {
		delete(s.cells, key)
	}
	s.mu.Unlock()
	return nil
}

// CommitAll commits every pending cell in key order. Failed cells stay staged
// and are returned with their errors.
func (s *StagedEdits) CommitAll(ctx context.Context, fn CommitFunc) ([]CellKey, map[CellKey]error) {
	committed := make([]CellKey, 0)
	failures := make(map[CellKey]error)
	for _, key := range s.Pending() {
		if err := ctx.Err(); err != nil {
			failures[key] = err
			continue
		}
		if err := s.Commit(ctx, key, fn); err != nil {
			failures[key] = err
			continue
		}
		committed = append(committed, key)
	}
	return committed, failures
}
