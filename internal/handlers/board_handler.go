package handlers

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"melina-board/internal/boardid"
	"melina-board/internal/codec"
	"melina-board/internal/export"
	"melina-board/internal/libraries"
	"melina-board/internal/metrics"
	"melina-board/internal/models"
	"melina-board/internal/repo"
)

// Relay forwards a written document to other server instances.
type Relay interface {
	Write(ctx context.Context, key string, value []byte) error
}

// ClientIDHeader lets an HTTP writer that also holds a websocket exclude that
// socket from the broadcast of its own write.
const ClientIDHeader = "X-Client-Id"

// for simple crud operations service layer is not required
type BoardHandler struct {
	repo    repo.BoardRepoInterface
	hub     *libraries.Hub
	relay   Relay
	baseURL string
	logger  zerolog.Logger
}

func NewBoardHandler(repo repo.BoardRepoInterface, hub *libraries.Hub, relay Relay, baseURL string, logger zerolog.Logger) *BoardHandler {
	return &BoardHandler{
		repo:    repo,
		hub:     hub,
		relay:   relay,
		baseURL: baseURL,
		logger:  logger,
	}
}

// function to create a board
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var dto struct {
		Title string `json:"title"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&dto); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	id, err := h.repo.CreateBoard(&models.Board{Title: dto.Title})
	if err != nil {
		h.logger.Error().Err(err).Msg("error creating board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"message": "Board created successfully",
	})
}

// function to get all boards
func (h *BoardHandler) GetAllBoards(c *fiber.Ctx) error {
	boards, err := h.repo.GetAllBoards()
	if err != nil {
		h.logger.Error().Err(err).Msg("error getting boards")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get boards",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"boards": boards,
	})
}

// GetBoardByID answers with the bare document, "[]" for a board nobody wrote.
func (h *BoardHandler) GetBoardByID(c *fiber.Ctx) error {
	boardId, ok := boardParam(c)
	if !ok {
		return invalidBoardID(c)
	}

	doc, revision, err := h.load(boardId)
	if err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error getting board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get board",
		})
	}

	c.Set("X-Board-Revision", strconv.FormatInt(revision, 10))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(doc)
}

// SaveBoard replaces the whole document. The last writer wins.
func (h *BoardHandler) SaveBoard(c *fiber.Ctx) error {
	boardId, ok := boardParam(c)
	if !ok {
		return invalidBoardID(c)
	}

	revision, err := h.write(c.UserContext(), boardId, c.Body(), c.Get(ClientIDHeader), "http")
	if errors.Is(err, models.ErrInvalidDocument) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board data JSON",
		})
	}
	if err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error saving board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save board",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  "Data saved successfully",
		"revision": revision,
	})
}

// function to clear board
func (h *BoardHandler) ClearBoard(c *fiber.Ctx) error {
	boardId, ok := boardParam(c)
	if !ok {
		return invalidBoardID(c)
	}

	if _, err := h.write(c.UserContext(), boardId, []byte("[]"), c.Get(ClientIDHeader), "http"); err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error clearing board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear board",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Board cleared successfully",
	})
}

// ShareLinks returns both link forms: one naming the board and one carrying
// its current document.
func (h *BoardHandler) ShareLinks(c *fiber.Ctx) error {
	boardId, ok := boardParam(c)
	if !ok {
		return invalidBoardID(c)
	}
	base := c.Query("base", h.baseURL)

	raw, _, err := h.load(boardId)
	if err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error getting board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get board",
		})
	}
	doc, err := models.UnmarshalDocument(raw)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Stored board is corrupt",
		})
	}
	token, err := codec.Encode(doc)
	if err != nil {
		return err
	}

	boardLink, err := boardid.Link(base, boardid.ForBoard(boardId))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid base URL",
		})
	}
	stateLink, err := boardid.Link(base, boardid.ForToken(token))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"board_link": boardLink,
		"state_link": stateLink,
	})
}

// ExportPDF renders the current document as an attachment.
func (h *BoardHandler) ExportPDF(c *fiber.Ctx) error {
	boardId, ok := boardParam(c)
	if !ok {
		return invalidBoardID(c)
	}

	raw, _, err := h.load(boardId)
	if err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error getting board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get board",
		})
	}
	doc, err := models.UnmarshalDocument(raw)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Stored board is corrupt",
		})
	}

	var buf bytes.Buffer
	if err := export.PDF(&buf, doc); err != nil {
		h.logger.Error().Err(err).Str("board_id", boardId).Msg("error exporting board")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export board",
		})
	}

	c.Attachment(boardId + ".pdf")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// ProcessBoardWrite handles board_write messages from websocket clients.
func (h *BoardHandler) ProcessBoardWrite(hub *libraries.Hub, client *libraries.Client, payload *libraries.BoardPayload) error {
	if !boardid.Valid(payload.BoardId) {
		return boardid.ErrInvalidID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.write(ctx, payload.BoardId, payload.Document, client.ID, "ws")
	if errors.Is(err, models.ErrInvalidDocument) {
		return errors.New("Invalid board data JSON")
	}
	if err != nil {
		h.logger.Error().Err(err).Str("board_id", payload.BoardId).Msg("error saving board")
		return errors.New("Failed to save board")
	}
	return nil
}

// RelayUpdate re-broadcasts a write made on another instance. It is already
// stored, so only local subscribers are notified.
func (h *BoardHandler) RelayUpdate(boardId string, document []byte) {
	if _, err := models.UnmarshalDocument(document); err != nil {
		h.logger.Warn().Err(err).Str("board_id", boardId).Msg("dropping malformed relayed board")
		return
	}
	metrics.BoardWrites.WithLabelValues("relay").Inc()
	h.hub.BroadcastBoard(boardId, document, "")
}

// write validates, stores and announces a document.
func (h *BoardHandler) write(ctx context.Context, boardId string, body []byte, exclude, source string) (int64, error) {
	doc, err := models.UnmarshalDocument(body)
	if err != nil {
		return 0, err
	}
	data, err := models.MarshalDocument(doc)
	if err != nil {
		return 0, err
	}

	revision, err := h.repo.SaveDocument(boardId, data)
	if err != nil {
		return 0, err
	}
	metrics.BoardWrites.WithLabelValues(source).Inc()

	h.hub.BroadcastBoard(boardId, data, exclude)
	if h.relay != nil {
		if err := h.relay.Write(ctx, boardId, data); err != nil {
			h.logger.Warn().Err(err).Str("board_id", boardId).Msg("relay failed")
		}
	}
	return revision, nil
}

func (h *BoardHandler) load(boardId string) ([]byte, int64, error) {
	board, err := h.repo.GetBoard(boardId)
	if errors.Is(err, repo.ErrBoardNotFound) {
		return []byte("[]"), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if len(board.Document) == 0 {
		return []byte("[]"), board.Revision, nil
	}
	return []byte(board.Document), board.Revision, nil
}

func boardParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("boardId")
	return id, boardid.Valid(id)
}

func invalidBoardID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid board ID",
	})
}
