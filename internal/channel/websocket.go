package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"melina-board/internal/libraries"
)

const (
	wsPath     = "/api/v1/ws"
	boardsPath = "/api/v1/boards/"
	writeWait  = 10 * time.Second
)

var ErrConnectionClosed = errors.New("board server connection closed")

// WebsocketChannel talks to the board server. Writes and change
// notifications travel over one socket; reads use the HTTP API.
type WebsocketChannel struct {
	base   *url.URL
	conn   *websocket.Conn
	http   *http.Client
	logger zerolog.Logger

	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]map[int]func([]byte)
	next int

	done      chan struct{}
	closeOnce sync.Once
}

// DialWebsocket connects to the server at baseURL, for example
// http://localhost:3000.
func DialWebsocket(ctx context.Context, baseURL string, logger zerolog.Logger) (*WebsocketChannel, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	ws := *base
	switch base.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	ws.Path = base.Path + wsPath

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ws.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ws.String(), err)
	}

	c := &WebsocketChannel{
		base:   base,
		conn:   conn,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
		subs:   make(map[string]map[int]func([]byte)),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WebsocketChannel) Read(ctx context.Context, key string) ([]byte, bool, error) {
	u := *c.base
	u.Path = c.base.Path + boardsPath + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("read %s: unexpected status %d", key, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return body, true, nil
}

func (c *WebsocketChannel) Write(ctx context.Context, key string, value []byte) error {
	return c.send(ctx, libraries.WebSocketMessage{
		Type: libraries.WebSocketMessageTypeBoardWrite,
		Data: &libraries.BoardPayload{BoardId: key, Document: value},
	})
}

// Subscribe asks the server for updates to key the first time anyone local
// subscribes to it.
func (c *WebsocketChannel) Subscribe(key string, fn func([]byte)) (func(), error) {
	c.mu.Lock()
	first := len(c.subs[key]) == 0
	if first {
		c.subs[key] = make(map[int]func([]byte))
	}
	id := c.next
	c.next++
	c.subs[key][id] = fn
	c.mu.Unlock()

	if first {
		err := c.send(context.Background(), libraries.WebSocketMessage{
			Type: libraries.WebSocketMessageTypeSubscribe,
			Data: &libraries.SubscribePayload{BoardId: key},
		})
		if err != nil {
			c.mu.Lock()
			delete(c.subs[key], id)
			c.mu.Unlock()
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[key], id)
			last := len(c.subs[key]) == 0
			if last {
				delete(c.subs, key)
			}
			c.mu.Unlock()
			if last {
				_ = c.send(context.Background(), libraries.WebSocketMessage{
					Type: libraries.WebSocketMessageTypeUnsubscribe,
					Data: &libraries.SubscribePayload{BoardId: key},
				})
			}
		})
	}, nil
}

func (c *WebsocketChannel) send(ctx context.Context, msg libraries.WebSocketMessage) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *WebsocketChannel) readLoop() {
	defer c.shutdown()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn().Err(err).Msg("board server connection lost")
			}
			return
		}
		msg, err := libraries.ParseWebSocketMessage(raw)
		if err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed server message")
			continue
		}
		switch payload := msg.Data.(type) {
		case *libraries.BoardPayload:
			if msg.Type == libraries.WebSocketMessageTypeBoardUpdated {
				c.dispatch(payload.BoardId, payload.Document)
			}
		case *libraries.ErrorPayload:
			c.logger.Warn().Str("error", payload.Message).Msg("board server rejected a message")
		}
	}
}

func (c *WebsocketChannel) dispatch(key string, value []byte) {
	c.mu.Lock()
	fns := make([]func([]byte), 0, len(c.subs[key]))
	for _, fn := range c.subs[key] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(append([]byte(nil), value...))
	}
}

// Done is closed when the connection has ended.
func (c *WebsocketChannel) Done() <-chan struct{} {
	return c.done
}

func (c *WebsocketChannel) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *WebsocketChannel) Close() error {
	c.shutdown()
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
