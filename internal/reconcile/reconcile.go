// Package reconcile keeps a client-side projection of board state consistent
// under optimistic local commands and pushed server events. All authoritative
// writes funnel through a single Apply entry point; pushed changes are
// deduplicated by each entity's monotonic version counter, so the echo of a
// client's own command is recognized and dropped without comparing payloads.
package reconcile

import (
	"sync"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

// Kind identifies which entity a change descriptor targets.
type Kind string

const (
	KindBoard  Kind = "board"
	KindColumn Kind = "column"
	KindTask   Kind = "task"
)

// Descriptor describes one authoritative change: an upsert carrying the full
// entity, or a deletion carrying just the id. Exactly one entity pointer is
// set for upserts, matching Kind.
type Descriptor struct {
	Kind   Kind
	Board  *domain.Board
	Column *domain.Column
	Task   *domain.Task

	// Deleted marks a removal; EntityID names the removed entity.
	Deleted  bool
	EntityID string
}

// BoardChange builds an upsert descriptor for a board.
func BoardChange(board *domain.Board) Descriptor {
	return Descriptor{Kind: KindBoard, Board: board, EntityID: board.ID}
}

// ColumnChange builds an upsert descriptor for a column.
func ColumnChange(column *domain.Column) Descriptor {
	return Descriptor{Kind: KindColumn, Column: column, EntityID: column.ID}
}

// TaskChange builds an upsert descriptor for a task.
func TaskChange(task *domain.Task) Descriptor {
	return Descriptor{Kind: KindTask, Task: task, EntityID: task.ID}
}

// Deletion builds a deletion descriptor.
func Deletion(kind Kind, entityID string) Descriptor {
	return Descriptor{Kind: kind, Deleted: true, EntityID: entityID}
}

type snapshot struct {
	kind    Kind
	board   *domain.Board
	column  *domain.Column
	task    *domain.Task
	existed bool
}

// Store holds the reconciled projection. Apply is the only writer of
// confirmed state; Stage overlays optimistic local edits that either get
// confirmed by the pushed echo or rolled back with Revert.
type Store struct {
	mu sync.Mutex

	boards  map[string]*domain.Board
	columns map[string]*domain.Column
	tasks   map[string]*domain.Task

	// seen records the highest confirmed version per entity id. A pushed
	// change at or below this version is a duplicate and is dropped. The
	// record outlives the entity: after a deletion it acts as a tombstone
	// so a replayed pre-deletion upsert cannot resurrect the entity.
	seen map[string]int64

	// staged holds pre-Stage snapshots for rollback, keyed by entity id.
	staged map[string]snapshot
}

// NewStore creates an empty reconciliation store.
func NewStore() *Store {
	return &Store{
		boards:  make(map[string]*domain.Board),
		columns: make(map[string]*domain.Column),
		tasks:   make(map[string]*domain.Task),
		seen:    make(map[string]int64),
		staged:  make(map[string]snapshot),
	}
}

// Apply applies an authoritative change. It returns true when the change
// advanced local state and false when it was a duplicate (an echo of an
// already-applied command or an out-of-order older version).
//
// Conflicting changes to the same entity resolve last-writer-wins: the
// higher version replaces local state wholesale.
func (s *Store) Apply(d Descriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Deleted {
		return s.applyDeletion(d)
	}

	version := d.version()
	if version <= s.seen[d.EntityID] {
		return false
	}

	switch d.Kind {
	case KindBoard:
		s.boards[d.EntityID] = d.Board
	case KindColumn:
		s.columns[d.EntityID] = d.Column
	case KindTask:
		s.tasks[d.EntityID] = d.Task
	}

	s.seen[d.EntityID] = version
	// Confirmed state supersedes any optimistic overlay for this entity.
	delete(s.staged, d.EntityID)
	return true
}

func (s *Store) applyDeletion(d Descriptor) bool {
	existed := false
	switch d.Kind {
	case KindBoard:
		_, existed = s.boards[d.EntityID]
		delete(s.boards, d.EntityID)
	case KindColumn:
		_, existed = s.columns[d.EntityID]
		delete(s.columns, d.EntityID)
	case KindTask:
		_, existed = s.tasks[d.EntityID]
		delete(s.tasks, d.EntityID)
	}
	// The version record in seen stays behind as a tombstone. Only a write
	// with a strictly newer version may bring the id back.
	delete(s.staged, d.EntityID)
	return existed
}

// Stage overlays an optimistic local change before the server confirms it.
// The previous state is snapshotted once per entity; Revert restores it if
// the command fails. The confirmed version counter is not advanced, so the
// pushed echo still applies and replaces the overlay with server truth.
func (s *Store) Stage(d Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.staged[d.EntityID]; !already {
		s.staged[d.EntityID] = s.snapshotOf(d.Kind, d.EntityID)
	}

	switch d.Kind {
	case KindBoard:
		if d.Deleted {
			delete(s.boards, d.EntityID)
		} else {
			s.boards[d.EntityID] = d.Board
		}
	case KindColumn:
		if d.Deleted {
			delete(s.columns, d.EntityID)
		} else {
			s.columns[d.EntityID] = d.Column
		}
	case KindTask:
		if d.Deleted {
			delete(s.tasks, d.EntityID)
		} else {
			s.tasks[d.EntityID] = d.Task
		}
	}
}

// Revert rolls back a staged optimistic change, restoring the entity to its
// last confirmed state. No-op when nothing is staged for the id.
func (s *Store) Revert(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.staged[entityID]
	if !ok {
		return
	}
	delete(s.staged, entityID)

	switch snap.kind {
	case KindBoard:
		if snap.existed {
			s.boards[entityID] = snap.board
		} else {
			delete(s.boards, entityID)
		}
	case KindColumn:
		if snap.existed {
			s.columns[entityID] = snap.column
		} else {
			delete(s.columns, entityID)
		}
	case KindTask:
		if snap.existed {
			s.tasks[entityID] = snap.task
		} else {
			delete(s.tasks, entityID)
		}
	}
}

// Board returns the current projection of a board.
func (s *Store) Board(id string) (*domain.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	return b, ok
}

// Column returns the current projection of a column.
func (s *Store) Column(id string) (*domain.Column, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.columns[id]
	return c, ok
}

// Task returns the current projection of a task.
func (s *Store) Task(id string) (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Tasks returns every task currently projected.
func (s *Store) Tasks() []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

func (s *Store) snapshotOf(kind Kind, entityID string) snapshot {
	snap := snapshot{kind: kind}
	switch kind {
	case KindBoard:
		snap.board, snap.existed = s.boards[entityID]
	case KindColumn:
		snap.column, snap.existed = s.columns[entityID]
	case KindTask:
		snap.task, snap.existed = s.tasks[entityID]
	}
	return snap
}

func (d Descriptor) version() int64 {
	switch d.Kind {
	case KindBoard:
		if d.Board != nil {
			return d.Board.Version
		}
	case KindColumn:
		if d.Column != nil {
			return d.Column.Version
		}
	case KindTask:
		if d.Task != nil {
			return d.Task.Version
		}
	}
	return 0
}
