// Package channel provides the shared key-value cells boards sync through.
// Every implementation notifies subscribers of other handles when a cell is
// written, never the handle that wrote it.
package channel

import (
	"context"
	"sync"
)

// MemoryHub is an in-process set of cells. Each Channel call hands out a
// handle that behaves like one browser tab on a shared storage area.
type MemoryHub struct {
	mu    sync.Mutex
	cells map[string][]byte
	subs  map[string]map[int]memorySub
	next  int
}

type memorySub struct {
	owner *MemoryChannel
	fn    func([]byte)
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		cells: make(map[string][]byte),
		subs:  make(map[string]map[int]memorySub),
	}
}

// Channel returns a new handle on the hub.
func (h *MemoryHub) Channel() *MemoryChannel {
	return &MemoryChannel{hub: h}
}

type MemoryChannel struct {
	hub *MemoryHub
}

func (c *MemoryChannel) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	v, ok := c.hub.cells[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Write replaces the cell and delivers the value to the other handles'
// subscribers before returning.
func (c *MemoryChannel) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := c.hub
	h.mu.Lock()
	h.cells[key] = append([]byte(nil), value...)
	var deliver []func([]byte)
	for _, s := range h.subs[key] {
		if s.owner != c {
			deliver = append(deliver, s.fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range deliver {
		fn(append([]byte(nil), value...))
	}
	return nil
}

func (c *MemoryChannel) Subscribe(key string, fn func([]byte)) (func(), error) {
	h := c.hub
	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]memorySub)
	}
	h.subs[key][id] = memorySub{owner: c, fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs[key], id)
		h.mu.Unlock()
	}, nil
}
