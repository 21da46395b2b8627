// Package history keeps the per-session undo and redo stacks of whole-document
// snapshots.
package history

import (
	"sync"

	"melina-board/internal/document"
	"melina-board/internal/models"
)

// Capacity is the number of snapshots each stack retains.
const Capacity = 31

type Mode int

const (
	Idle Mode = iota
	// ApplyingHistory is held while a restored snapshot propagates. Commits
	// observed in this mode are the restore itself and are not recorded.
	ApplyingHistory
)

// Target is the document the manager restores snapshots into.
type Target interface {
	Snapshot() models.Document
	Committed() models.Document
	Restore(d models.Document, done func()) document.Change
}

// Confirm asks the user before a destructive operation.
type Confirm func() bool

type Manager struct {
	mu     sync.Mutex
	target Target
	undo   []models.Document
	redo   []models.Document
	mode   Mode
}

func NewManager(target Target) *Manager {
	return &Manager{target: target}
}

// Attach creates a manager for store and registers it as the store's recorder.
func Attach(store *document.Store) *Manager {
	m := NewManager(store)
	store.SetRecorder(m)
	return m
}

// RecordIfChanged pushes previous onto the undo stack and clears redo, unless
// the two documents are equal or a restore is in flight.
func (m *Manager) RecordIfChanged(previous, next models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == ApplyingHistory || models.Equal(previous, next) {
		return
	}
	m.undo = push(m.undo, previous.Clone())
	m.redo = nil
}

// Undo restores the most recent snapshot. It returns false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	return m.step(&m.undo, &m.redo)
}

// Redo re-applies the most recently undone snapshot.
func (m *Manager) Redo() bool {
	return m.step(&m.redo, &m.undo)
}

func (m *Manager) step(from, to *[]models.Document) bool {
	m.mu.Lock()
	if m.mode == ApplyingHistory || len(*from) == 0 {
		m.mu.Unlock()
		return false
	}
	last := len(*from) - 1
	entry := (*from)[last]
	*from = (*from)[:last]
	m.mode = ApplyingHistory
	m.mu.Unlock()

	ch := m.target.Restore(entry, m.settle)

	m.mu.Lock()
	*to = push(*to, ch.Previous)
	m.mu.Unlock()
	return true
}

// ClearAll empties the board after confirm approves. The cleared board stays
// undoable; undo restores the last committed document, never a gesture that
// was still in progress. It returns false when aborted or when nothing
// committed is on the board.
func (m *Manager) ClearAll(confirm Confirm) bool {
	if confirm == nil || !confirm() {
		return false
	}

	current := m.target.Committed()
	if len(current) == 0 {
		return false
	}

	m.mu.Lock()
	if m.mode == ApplyingHistory {
		m.mu.Unlock()
		return false
	}
	m.undo = push(m.undo, current)
	m.redo = nil
	m.mode = ApplyingHistory
	m.mu.Unlock()

	m.target.Restore(models.Document{}, m.settle)
	return true
}

// settle is the one-shot acknowledgement the store calls after observers saw
// the restored document.
func (m *Manager) settle() {
	m.mu.Lock()
	m.mode = Idle
	m.mu.Unlock()
}

func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

// push appends d and evicts the oldest entries beyond Capacity
func push(stack []models.Document, d models.Document) []models.Document {
	stack = append(stack, d)
	if over := len(stack) - Capacity; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
