// Package syncer keeps a local document store and a shared remote cell in
// step. Local commits are written out after a quiet period, remote writes
// replace the local document unless it already matches.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"melina-board/internal/document"
	"melina-board/internal/metrics"
	"melina-board/internal/models"
)

const DefaultDebounce = 300 * time.Millisecond

// Channel is a shared key-value cell with change notification. Subscribers
// are not called for writes made through the same Channel.
type Channel interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Subscribe(key string, fn func([]byte)) (func(), error)
}

// Store is the part of the document store the adapter drives.
type Store interface {
	Snapshot() models.Document
	Subscribe(o document.Observer) func()
	ApplyRemote(d models.Document) (document.Change, bool)
}

// Notice reports a non-fatal sync failure. Local editing is unaffected.
type Notice struct {
	Op  string
	Err error
}

func (n Notice) Error() string { return n.Op + ": " + n.Err.Error() }

type Options struct {
	BoardID  string
	Channel  Channel
	Store    Store
	Debounce time.Duration
	// Logger defaults to the zero logger, which discards.
	Logger   zerolog.Logger
	OnNotice func(Notice)
}

type Adapter struct {
	key      string
	ch       Channel
	store    Store
	debounce time.Duration
	log      zerolog.Logger
	onNotice func(Notice)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	timer      *time.Timer
	pending    bool
	remoteSeen uint64
	started    bool
	closed     bool
	unsubStore func()
	unsubChan  func()

	// one write in flight at a time
	writeMu sync.Mutex
}

var ErrClosed = errors.New("sync adapter closed")

func New(opts Options) (*Adapter, error) {
	if opts.BoardID == "" {
		return nil, errors.New("board id is required")
	}
	if opts.Channel == nil || opts.Store == nil {
		return nil, errors.New("channel and store are required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		key:      opts.BoardID,
		ch:       opts.Channel,
		store:    opts.Store,
		debounce: opts.Debounce,
		log:      opts.Logger.With().Str("board_id", opts.BoardID).Logger(),
		onNotice: opts.OnNotice,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start listens for remote writes, then loads the stored document. A remote
// write delivered while the load is in flight is newer than what the load
// returns, so the loaded value is dropped. A stored value that does not
// decode leaves the local document empty.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	unsubChan, err := a.ch.Subscribe(a.key, a.onRemote)
	if err != nil {
		a.notice("subscribe", err)
		unsubChan = func() {}
	}

	a.mu.Lock()
	seen := a.remoteSeen
	a.mu.Unlock()

	data, ok, err := a.ch.Read(ctx, a.key)
	switch {
	case err != nil:
		a.notice("read", err)
	case ok:
		doc, err := models.UnmarshalDocument(data)
		if err != nil {
			a.notice("decode", err)
			doc = models.Document{}
		}
		a.mu.Lock()
		overtaken := a.remoteSeen != seen
		a.mu.Unlock()
		if !overtaken {
			a.store.ApplyRemote(doc)
		}
	}

	unsubStore := a.store.Subscribe(a.onChange)

	a.mu.Lock()
	a.unsubChan, a.unsubStore = unsubChan, unsubStore
	closed := a.closed
	a.mu.Unlock()
	if closed {
		unsubChan()
		unsubStore()
		return ErrClosed
	}

	a.log.Debug().Bool("loaded", ok).Msg("sync started")
	return nil
}

func (a *Adapter) onChange(ch document.Change) {
	if ch.Cause != document.Commit && ch.Cause != document.History {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.debounce, a.fire)
		return
	}
	a.timer.Reset(a.debounce)
}

func (a *Adapter) fire() {
	a.mu.Lock()
	if a.closed || !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.mu.Unlock()

	_ = a.write(a.ctx)
}

// write sends the document as it is now, not as it was when scheduled.
func (a *Adapter) write(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	data, err := models.MarshalDocument(a.store.Snapshot())
	if err != nil {
		a.notice("encode", err)
		return err
	}
	if err := a.ch.Write(ctx, a.key, data); err != nil {
		a.notice("write", err)
		return err
	}
	metrics.SyncWrites.Inc()
	a.log.Debug().Int("bytes", len(data)).Msg("document written")
	return nil
}

func (a *Adapter) onRemote(data []byte) {
	a.mu.Lock()
	closed := a.closed
	a.remoteSeen++
	a.mu.Unlock()
	if closed {
		return
	}

	doc, err := models.UnmarshalDocument(data)
	if err != nil {
		a.notice("decode", err)
		return
	}
	if _, applied := a.store.ApplyRemote(doc); applied {
		metrics.RemoteApplied.Inc()
		a.log.Debug().Int("shapes", len(doc)).Msg("remote document applied")
	}
}

// Pending reports whether a write is scheduled.
func (a *Adapter) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Flush writes a scheduled document now instead of waiting for the timer.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if !a.pending {
		a.mu.Unlock()
		return nil
	}
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	return a.write(ctx)
}

// Close drops any scheduled write and stops listening. It waits for a write
// already in flight.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
	}
	unsubChan, unsubStore := a.unsubChan, a.unsubStore
	a.mu.Unlock()

	if unsubChan != nil {
		unsubChan()
	}
	if unsubStore != nil {
		unsubStore()
	}
	a.cancel()
	a.writeMu.Lock()
	a.writeMu.Unlock()
}

func (a *Adapter) notice(op string, err error) {
	metrics.SyncErrors.WithLabelValues(op).Inc()
	a.log.Warn().Err(err).Str("op", op).Msg("sync failure")
	if a.onNotice != nil {
		a.onNotice(Notice{Op: op, Err: err})
	}
}
