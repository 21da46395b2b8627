package repo

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"melina-board/internal/boardid"
	"melina-board/internal/models"
)

var ErrBoardNotFound = errors.New("board not found")

// BoardRepo represents the repository for the board model
type BoardRepo struct {
	db *gorm.DB
}

type BoardRepoInterface interface {
	CreateBoard(board *models.Board) (string, error)
	GetAllBoards() ([]models.Board, error)
	GetBoard(id string) (*models.Board, error)
	SaveDocument(id string, document []byte) (int64, error)
}

func NewBoardRepository(db *gorm.DB) BoardRepoInterface {
	return &BoardRepo{db: db}
}

// CreateBoard stores a new board, generating its id when unset
func (r *BoardRepo) CreateBoard(board *models.Board) (string, error) {
	if board.ID == "" {
		board.ID = boardid.Generate()
	}
	if len(board.Document) == 0 {
		board.Document = datatypes.JSON("[]")
	}
	board.CreatedAt = time.Now()
	board.UpdatedAt = time.Now()
	err := r.db.Create(board).Error
	return board.ID, err
}

// GetAllBoards returns every board without its document, newest first
func (r *BoardRepo) GetAllBoards() ([]models.Board, error) {
	var boards []models.Board
	err := r.db.
		Select("id", "title", "revision", "created_at", "updated_at").
		Order("updated_at desc").
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepo) GetBoard(id string) (*models.Board, error) {
	var board models.Board
	err := r.db.First(&board, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// SaveDocument replaces the board's document, creating the board on first
// write, and returns the new revision. Concurrent writers race and the last
// one wins.
func (r *BoardRepo) SaveDocument(id string, document []byte) (int64, error) {
	now := time.Now()
	board := models.Board{
		ID:        id,
		Document:  datatypes.JSON(document),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"document":   datatypes.JSON(document),
				"revision":   gorm.Expr("boards.revision + 1"),
				"updated_at": now,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "revision"}}},
	).Create(&board).Error
	if err != nil {
		return 0, err
	}
	return board.Revision, nil
}
