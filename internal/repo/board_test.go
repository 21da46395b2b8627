package repo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melina-board/internal/boardid"
	"melina-board/internal/config"
	"melina-board/internal/models"
)

// Runs against a real database when TEST_DB_URL is set.
func TestBoardRepoAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	db, err := config.ConnectDB(dsn, false)
	require.NoError(t, err)
	defer config.CloseDB(db)
	require.NoError(t, config.MigrateAllModels(db))

	r := NewBoardRepository(db)
	id := boardid.Generate()
	defer db.Delete(&models.Board{}, "id = ?", id)

	_, err = r.GetBoard(id)
	assert.ErrorIs(t, err, ErrBoardNotFound)

	rev, err := r.SaveDocument(id, []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	rev, err = r.SaveDocument(id, []byte(`[{"id":"a","type":"circle","x":1,"y":1,"radius":5}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	board, err := r.GetBoard(id)
	require.NoError(t, err)
	doc, err := board.Shapes()
	require.NoError(t, err)
	assert.Len(t, doc, 1)

	boards, err := r.GetAllBoards()
	require.NoError(t, err)
	assert.NotEmpty(t, boards)
	assert.Empty(t, boards[0].Document)
}
