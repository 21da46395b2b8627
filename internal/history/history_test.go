package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melina-board/internal/document"
	"melina-board/internal/models"
)

func addCircle(store *document.Store, id string) {
	store.Apply(func(d models.Document) models.Document {
		return append(d, models.NewCircle(id, 10, 10, 5, "#000", 1))
	}, true)
}

func TestUndoRedoRestoresExactDocuments(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	addCircle(store, "a")
	before := store.Snapshot()
	addCircle(store, "b")
	after := store.Snapshot()

	require.True(t, h.Undo())
	assert.True(t, models.Equal(before, store.Snapshot()))

	require.True(t, h.Redo())
	assert.True(t, models.Equal(after, store.Snapshot()))

	undo, redo := h.Len()
	assert.Equal(t, 2, undo)
	assert.Zero(t, redo)
}

func TestUndoDoesNotRecordItsOwnRestore(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	addCircle(store, "a")
	require.True(t, h.Undo())

	undo, redo := h.Len()
	assert.Zero(t, undo)
	assert.Equal(t, 1, redo)
	assert.Equal(t, Idle, h.Mode())
}

func TestCommitAfterUndoClearsRedo(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	addCircle(store, "a")
	addCircle(store, "b")
	require.True(t, h.Undo())
	require.True(t, h.CanRedo())

	addCircle(store, "c")
	assert.False(t, h.CanRedo())
	assert.False(t, h.Redo())

	ids := []string{}
	for _, s := range store.Snapshot() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	assert.False(t, h.Undo())
	assert.False(t, h.Redo())
	assert.False(t, h.CanUndo())
	assert.Empty(t, store.Snapshot())
}

func TestUndoStackIsBounded(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	for i := 0; i < Capacity+1; i++ {
		addCircle(store, fmt.Sprintf("c%d", i))
	}
	undo, _ := h.Len()
	assert.Equal(t, Capacity, undo)

	// the oldest snapshot, the empty board, was evicted
	for h.Undo() {
	}
	assert.Len(t, store.Snapshot(), 1)
	assert.Equal(t, "c0", store.Snapshot()[0].ID)
}

func TestRecordIfChangedSkipsEqualDocuments(t *testing.T) {
	h := NewManager(document.NewStore(nil))
	doc := models.Document{models.NewCircle("a", 0, 0, 5, "#000", 1)}

	h.RecordIfChanged(doc, doc.Clone())
	assert.False(t, h.CanUndo())

	h.RecordIfChanged(nil, doc)
	assert.True(t, h.CanUndo())
}

func TestClearAllNeedsConfirmation(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)
	addCircle(store, "a")

	assert.False(t, h.ClearAll(nil))
	assert.False(t, h.ClearAll(func() bool { return false }))
	assert.Len(t, store.Snapshot(), 1)

	assert.True(t, h.ClearAll(func() bool { return true }))
	assert.Empty(t, store.Snapshot())
	assert.False(t, h.CanRedo())

	// clearing is undoable
	require.True(t, h.Undo())
	assert.Len(t, store.Snapshot(), 1)
}

func TestClearAllLeavesDraftOutOfUndo(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)
	addCircle(store, "a")
	committed := store.Snapshot()

	store.Apply(func(d models.Document) models.Document {
		return append(d, models.NewStroke("s", 1, 1, "#000", 5, false))
	}, false)
	require.Len(t, store.Snapshot(), 2)

	require.True(t, h.ClearAll(func() bool { return true }))
	assert.Empty(t, store.Snapshot())

	require.True(t, h.Undo())
	assert.True(t, models.Equal(committed, store.Snapshot()), models.Diff(committed, store.Snapshot()))
}

func TestClearAllOnEmptyBoard(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)

	assert.False(t, h.ClearAll(func() bool { return true }))
	assert.False(t, h.CanUndo())
}

func TestModeHeldUntilObserversSawRestore(t *testing.T) {
	store := document.NewStore(nil)
	h := Attach(store)
	addCircle(store, "a")

	var seen []Mode
	store.Subscribe(func(ch document.Change) {
		if ch.Cause == document.History {
			seen = append(seen, h.Mode())
		}
	})

	require.True(t, h.Undo())
	assert.Equal(t, []Mode{ApplyingHistory}, seen)
	assert.Equal(t, Idle, h.Mode())
}
