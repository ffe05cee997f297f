// Package history implements bounded undo/redo stacks over immutable
// snapshots.
//
// A [Manager] stores whole states, not diffs. Callers are expected to use
// persistent values (copy-on-write slices of immutable elements) so that a
// snapshot costs one slice header per collection and consecutive snapshots
// share everything that did not change.
//
// One [Manager.Record] call corresponds to one user-visible step: a rename
// that rewrites hundreds of references is recorded once, and undone at once.
package history

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLimit bounds the undo stack when no limit is given.
const DefaultLimit = 100

// Entry is one recorded step.
type Entry[T any] struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	At    time.Time `json:"at"`
	State T         `json:"-"`
}

// Manager holds the undo and redo stacks. It is not safe for concurrent use.
type Manager[T any] struct {
	past   []Entry[T]
	future []Entry[T]
	limit  int
	now    func() time.Time
}

// New creates a manager keeping at most limit undo steps. A limit <= 0
// means [DefaultLimit].
func New[T any](limit int) *Manager[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager[T]{limit: limit, now: time.Now}
}

// Record pushes the state before a step and clears the redo stack. The
// oldest step is dropped when the limit is exceeded.
func (m *Manager[T]) Record(label string, before T) Entry[T] {
	e := Entry[T]{ID: uuid.New(), Label: label, At: m.now(), State: before}
	m.past = append(m.past, e)
	if over := len(m.past) - m.limit; over > 0 {
		clear(m.past[:over])
		m.past = m.past[over:]
	}
	clear(m.future)
	m.future = m.future[:0]
	return e
}

// Undo pops the last step, pushes current onto the redo stack and returns
// the state to restore.
func (m *Manager[T]) Undo(current T) (T, Entry[T], bool) {
	if len(m.past) == 0 {
		var zero T
		return zero, Entry[T]{}, false
	}
	e := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, Entry[T]{ID: e.ID, Label: e.Label, At: m.now(), State: current})
	return e.State, e, true
}

// Redo pops the last undone step, pushes current onto the undo stack and
// returns the state to restore.
func (m *Manager[T]) Redo(current T) (T, Entry[T], bool) {
	if len(m.future) == 0 {
		var zero T
		return zero, Entry[T]{}, false
	}
	e := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, Entry[T]{ID: e.ID, Label: e.Label, At: m.now(), State: current})
	return e.State, e, true
}

// CanUndo reports whether there is a step to undo.
func (m *Manager[T]) CanUndo() bool { return len(m.past) > 0 }

// CanRedo reports whether there is a step to redo.
func (m *Manager[T]) CanRedo() bool { return len(m.future) > 0 }

// Clear drops both stacks.
func (m *Manager[T]) Clear() {
	clear(m.past)
	clear(m.future)
	m.past = m.past[:0]
	m.future = m.future[:0]
}

// Len returns the sizes of the undo and redo stacks.
func (m *Manager[T]) Len() (undo, redo int) { return len(m.past), len(m.future) }

// Limit returns the undo bound.
func (m *Manager[T]) Limit() int { return m.limit }

// UndoLabels returns the labels of undoable steps, most recent first.
func (m *Manager[T]) UndoLabels() []string {
	labels := make([]string, len(m.past))
	for i := range m.past {
		labels[i] = m.past[len(m.past)-1-i].Label
	}
	return labels
}
