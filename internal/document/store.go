// Package document holds the canonical shape list of one client.
package document

import (
	"sync"

	"melina-board/internal/models"
)

// Cause tells observers where a change came from.
type Cause int

const (
	// Draft is an in-progress edit, such as a stroke still being drawn.
	Draft Cause = iota
	// Commit is a completed local edit.
	Commit
	// History is an undo, redo or clear.
	History
	// Remote is a replacement received from the shared channel.
	Remote
)

func (c Cause) String() string {
	switch c {
	case Draft:
		return "draft"
	case Commit:
		return "commit"
	case History:
		return "history"
	case Remote:
		return "remote"
	}
	return "unknown"
}

// Mutation maps the current document to the next one. It receives a private
// copy and may modify it freely.
type Mutation func(models.Document) models.Document

// Replace is a mutation that swaps in d wholesale
func Replace(d models.Document) Mutation {
	return func(models.Document) models.Document { return d.Clone() }
}

// Identity leaves the document as it is, used to commit an already applied draft
func Identity(d models.Document) models.Document { return d }

// Change is what observers receive after the document was replaced.
type Change struct {
	Previous models.Document
	Current  models.Document
	Cause    Cause
}

// Recorder is notified of committed edits that changed the document.
type Recorder interface {
	RecordIfChanged(previous, next models.Document)
}

// Observer runs synchronously after each change and must not call back into
// the store.
type Observer func(Change)

type Store struct {
	mu       sync.Mutex
	shapes   models.Document
	baseline models.Document
	recorder Recorder

	obsMu     sync.Mutex
	observers map[int]Observer
	order     []int
	nextObs   int

	// serializes notification so observers see changes in apply order
	notifyMu sync.Mutex
}

func NewStore(initial models.Document) *Store {
	return &Store{
		shapes:    initial.Clone(),
		baseline:  initial.Clone(),
		observers: make(map[int]Observer),
	}
}

// SetRecorder wires the history manager, nil disables recording.
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// Snapshot returns a copy of the current document
func (s *Store) Snapshot() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shapes.Clone()
}

// Committed returns a copy of the document as of the last commit, without
// any in-progress edit.
func (s *Store) Committed() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

// Subscribe registers an observer and returns a func that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.order = append(s.order, id)
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			delete(s.observers, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Apply runs m against the current document. In-progress edits pass
// committed=false; they change what is shown but not the history. A committed
// apply records the last committed state in history when the result differs
// from it, so committing an already-drawn stroke records the pre-stroke board
// and a no-op drag records nothing.
func (s *Store) Apply(m Mutation, committed bool) Change {
	cause := Draft
	if committed {
		cause = Commit
	}
	return s.apply(m, cause, nil)
}

// Restore replaces the document on behalf of the history manager. done runs
// once every observer has seen the change.
func (s *Store) Restore(d models.Document, done func()) Change {
	return s.apply(Replace(d), History, done)
}

// ApplyRemote replaces the document with d unless it is structurally equal to
// the current one. Remote replacements move the committed baseline but are
// never recorded in history.
func (s *Store) ApplyRemote(d models.Document) (Change, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if models.Equal(s.shapes, d) {
		s.mu.Unlock()
		return Change{}, false
	}
	ch := Change{Previous: s.shapes, Current: d.Clone(), Cause: Remote}
	s.shapes = ch.Current
	s.baseline = ch.Current
	s.mu.Unlock()

	s.notify(ch)
	return ch.clone(), true
}

func (s *Store) apply(m Mutation, cause Cause, done func()) Change {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.shapes
	next := m(prev.Clone())
	s.shapes = next

	recorder := s.recorder
	record := false
	var baseline models.Document
	if cause != Draft {
		baseline = s.baseline
		record = !models.Equal(baseline, next)
		s.baseline = next
	}
	s.mu.Unlock()

	if record && recorder != nil {
		recorder.RecordIfChanged(baseline.Clone(), next.Clone())
	}

	ch := Change{Previous: prev, Current: next, Cause: cause}
	if record || !models.Equal(prev, next) {
		s.notify(ch)
	}
	if done != nil {
		done()
	}
	return ch.clone()
}

func (s *Store) notify(ch Change) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o(ch.clone())
	}
}

func (c Change) clone() Change {
	return Change{Previous: c.Previous.Clone(), Current: c.Current.Clone(), Cause: c.Cause}
}
