package libraries

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"melina-board/internal/metrics"
)

// WebSocketMessageType names the messages exchanged on /ws
type WebSocketMessageType string

const (
	WebSocketMessageTypePing         WebSocketMessageType = "ping"
	WebSocketMessageTypePong         WebSocketMessageType = "pong"
	WebSocketMessageTypeError        WebSocketMessageType = "error"
	WebSocketMessageTypeSubscribe    WebSocketMessageType = "subscribe"
	WebSocketMessageTypeUnsubscribe  WebSocketMessageType = "unsubscribe"
	WebSocketMessageTypeBoardWrite   WebSocketMessageType = "board_write"
	WebSocketMessageTypeBoardUpdated WebSocketMessageType = "board_updated"
)

type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Done is closed once the hub has dropped the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

type subscription struct {
	client  *Client
	boardID string
	add     bool
}

type broadcast struct {
	boardID string
	message []byte
	exclude string
}

// Hub fans board updates out to the connections subscribed to each board.
// All maps are owned by the Run goroutine.
type Hub struct {
	Clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client

	boards    map[string]map[string]*Client
	subscribe chan subscription
	broadcast chan broadcast
	stop      chan struct{}
	stopOnce  sync.Once
	logger    zerolog.Logger
}

type WebSocketMessage struct {
	Type WebSocketMessageType `json:"type"`
	Data interface{}          `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SubscribePayload struct {
	BoardId string `json:"board_id"`
}

// BoardPayload carries a whole document, for board_write and board_updated.
type BoardPayload struct {
	BoardId  string          `json:"board_id"`
	Document json.RawMessage `json:"document"`
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		boards:     make(map[string]map[string]*Client),
		subscribe:  make(chan subscription),
		broadcast:  make(chan broadcast, 64),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.ID] = client
			metrics.WebsocketConnections.Inc()
		case client := <-h.Unregister:
			if _, exists := h.Clients[client.ID]; exists {
				delete(h.Clients, client.ID)
				for boardID, subs := range h.boards {
					delete(subs, client.ID)
					if len(subs) == 0 {
						delete(h.boards, boardID)
					}
				}
				client.close()
				metrics.WebsocketConnections.Dec()
			}
		case sub := <-h.subscribe:
			h.applySubscription(sub)
		case b := <-h.broadcast:
			for id, client := range h.boards[b.boardID] {
				if id == b.exclude {
					continue
				}
				select {
				case client.Send <- b.message:
					metrics.Broadcasts.Inc()
				default:
					h.logger.Warn().Str("client_id", id).Msg("send buffer full, dropping update")
				}
			}
		case <-h.stop:
			for _, client := range h.Clients {
				client.close()
			}
			return
		}
	}
}

func (h *Hub) applySubscription(sub subscription) {
	if _, exists := h.Clients[sub.client.ID]; !exists {
		return
	}
	subs := h.boards[sub.boardID]
	if sub.add {
		if subs == nil {
			subs = make(map[string]*Client)
			h.boards[sub.boardID] = subs
		}
		subs[sub.client.ID] = sub.client
		return
	}
	delete(subs, sub.client.ID)
	if len(subs) == 0 {
		delete(h.boards, sub.boardID)
	}
}

// Stop ends Run and releases every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) Join(client *Client) {
	select {
	case h.Register <- client:
	case <-h.stop:
		client.close()
	}
}

func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stop:
	}
}

func (h *Hub) Subscribe(client *Client, boardId string) {
	select {
	case h.subscribe <- subscription{client: client, boardID: boardId, add: true}:
	case <-h.stop:
	}
}

func (h *Hub) Unsubscribe(client *Client, boardId string) {
	select {
	case h.subscribe <- subscription{client: client, boardID: boardId}:
	case <-h.stop:
	}
}

// BroadcastBoard sends document to every subscriber of boardId except the
// client with id exclude. Pass "" to reach everyone.
func (h *Hub) BroadcastBoard(boardId string, document []byte, exclude string) {
	msg, err := json.Marshal(WebSocketMessage{
		Type: WebSocketMessageTypeBoardUpdated,
		Data: &BoardPayload{BoardId: boardId, Document: document},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal board update")
		return
	}
	select {
	case h.broadcast <- broadcast{boardID: boardId, message: msg, exclude: exclude}:
	case <-h.stop:
	}
}

func (h *Hub) SendMessage(client *Client, message []byte) {
	select {
	case client.Send <- message:
	case <-client.done:
	default:
		h.logger.Warn().Str("client_id", client.ID).Msg("send buffer full, dropping message")
	}
}

// SendErrorMessage sends a standardized error message to a client
func SendErrorMessage(hub *Hub, client *Client, errorMsg string) {
	sendTyped(hub, client, WebSocketMessage{
		Type: WebSocketMessageTypeError,
		Data: &ErrorPayload{Message: errorMsg},
	})
}

func sendPongMessage(hub *Hub, client *Client) {
	sendTyped(hub, client, WebSocketMessage{Type: WebSocketMessageTypePong})
}

func sendTyped(hub *Hub, client *Client, message WebSocketMessage) {
	b, err := json.Marshal(message)
	if err != nil {
		hub.logger.Error().Err(err).Str("type", string(message.Type)).Msg("failed to marshal response")
		return
	}
	hub.SendMessage(client, b)
}

// ParseWebSocketMessage decodes an incoming message, typing Data by message
// type.
func ParseWebSocketMessage(msg []byte) (*WebSocketMessage, error) {
	var rawMessage struct {
		Type WebSocketMessageType `json:"type"`
		Data json.RawMessage      `json:"data,omitempty"`
	}
	if err := json.Unmarshal(msg, &rawMessage); err != nil {
		return nil, err
	}

	message := &WebSocketMessage{
		Type: rawMessage.Type,
	}

	if len(rawMessage.Data) > 0 {
		switch rawMessage.Type {
		case WebSocketMessageTypeSubscribe, WebSocketMessageTypeUnsubscribe:
			var payload SubscribePayload
			if err := json.Unmarshal(rawMessage.Data, &payload); err != nil {
				return nil, err
			}
			message.Data = &payload
		case WebSocketMessageTypeBoardWrite, WebSocketMessageTypeBoardUpdated:
			var payload BoardPayload
			if err := json.Unmarshal(rawMessage.Data, &payload); err != nil {
				return nil, err
			}
			message.Data = &payload
		case WebSocketMessageTypeError:
			var payload ErrorPayload
			if err := json.Unmarshal(rawMessage.Data, &payload); err != nil {
				return nil, err
			}
			message.Data = &payload
		default:
			var data interface{}
			if err := json.Unmarshal(rawMessage.Data, &data); err != nil {
				return nil, err
			}
			message.Data = data
		}
	}

	return message, nil
}

// BoardWriteProcessor persists a document written over the socket and
// announces it to the other subscribers.
type BoardWriteProcessor interface {
	ProcessBoardWrite(hub *Hub, client *Client, payload *BoardPayload) error
}

func WebSocketHandler(hub *Hub, processor BoardWriteProcessor) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := NewClient(conn)
		log := hub.logger.With().Str("client_id", client.ID).Logger()

		hub.Join(client)

		// Write loop
		go func() {
			defer func() {
				hub.Leave(client)
				conn.Close()
			}()
			for {
				select {
				case msg := <-client.Send:
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						log.Debug().Err(err).Msg("write error")
						return
					}
				case <-client.done:
					return
				}
			}
		}()

		// Read loop
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("read error")
				break
			}

			message, err := ParseWebSocketMessage(msg)
			if err != nil {
				SendErrorMessage(hub, client, "Invalid JSON format")
				continue
			}

			switch message.Type {
			case WebSocketMessageTypePing:
				sendPongMessage(hub, client)
			case WebSocketMessageTypeSubscribe, WebSocketMessageTypeUnsubscribe:
				payload, ok := message.Data.(*SubscribePayload)
				if !ok || payload.BoardId == "" {
					SendErrorMessage(hub, client, "Board ID is required")
					continue
				}
				if message.Type == WebSocketMessageTypeSubscribe {
					hub.Subscribe(client, payload.BoardId)
				} else {
					hub.Unsubscribe(client, payload.BoardId)
				}
			case WebSocketMessageTypeBoardWrite:
				payload, ok := message.Data.(*BoardPayload)
				if !ok || payload.BoardId == "" {
					SendErrorMessage(hub, client, "Board ID is required")
					continue
				}
				if err := processor.ProcessBoardWrite(hub, client, payload); err != nil {
					SendErrorMessage(hub, client, err.Error())
				}
			default:
				SendErrorMessage(hub, client, "Type is invalid or not provided")
			}
		}

		hub.Leave(client)
		conn.Close()
	})
}
