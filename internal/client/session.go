// Package client assembles everything one browser tab runs for a board:
// document store, history, tool machine and remote sync.
package client

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"melina-board/internal/boardid"
	"melina-board/internal/codec"
	"melina-board/internal/document"
	"melina-board/internal/history"
	"melina-board/internal/imageimport"
	"melina-board/internal/metrics"
	"melina-board/internal/models"
	"melina-board/internal/syncer"
	"melina-board/internal/tools"
)

var ErrNotShared = errors.New("board is not shared through a channel")

type Options struct {
	// Fragment is the URL fragment the session was opened with.
	Fragment string
	// Channel is required for shared boards and ignored for standalone ones.
	Channel  syncer.Channel
	Debounce time.Duration
	Images   imageimport.ImageStore
	Logger   zerolog.Logger
	OnNotice func(syncer.Notice)
	Tools    []tools.Option
}

type Session struct {
	fragment boardid.Fragment
	store    *document.Store
	history  *history.Manager
	machine  *tools.Machine
	adapter  *syncer.Adapter
	importer *imageimport.Importer
	log      zerolog.Logger
}

func New(opts Options) (*Session, error) {
	f, err := boardid.Resolve(opts.Fragment)
	if err != nil {
		return nil, err
	}
	log := opts.Logger.With().Str("fragment_mode", modeName(f.Mode)).Logger()

	var initial models.Document
	if f.Mode == boardid.Standalone {
		initial, err = codec.Decode(f.Token)
		if err != nil {
			metrics.CodecFailures.Inc()
			log.Warn().Err(err).Msg("could not load board from link")
			if opts.OnNotice != nil {
				opts.OnNotice(syncer.Notice{Op: "decode", Err: err})
			}
			initial = nil
		}
	}

	store := document.NewStore(initial)
	s := &Session{
		fragment: f,
		store:    store,
		history:  history.Attach(store),
		machine:  tools.New(store, opts.Tools...),
		importer: imageimport.NewImporter(opts.Images),
		log:      log,
	}

	if f.Mode == boardid.Shared {
		if opts.Channel == nil {
			return nil, errors.New("shared board needs a channel")
		}
		s.adapter, err = syncer.New(syncer.Options{
			BoardID:  f.BoardID,
			Channel:  opts.Channel,
			Store:    store,
			Debounce: opts.Debounce,
			Logger:   opts.Logger,
			OnNotice: opts.OnNotice,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func modeName(m boardid.Mode) string {
	if m == boardid.Standalone {
		return "standalone"
	}
	return "shared"
}

// Start loads the shared board and begins syncing. Standalone sessions have
// nothing to start.
func (s *Session) Start(ctx context.Context) error {
	if s.adapter == nil {
		return nil
	}
	return s.adapter.Start(ctx)
}

// Fragment is what the URL should show. When Generated is set the caller
// replaces the page's fragment with it.
func (s *Session) Fragment() boardid.Fragment {
	return s.fragment
}

func (s *Session) Machine() *tools.Machine   { return s.machine }
func (s *Session) History() *history.Manager { return s.history }
func (s *Session) Document() models.Document { return s.store.Snapshot() }

// Subscribe observes every document change, for redrawing.
func (s *Session) Subscribe(o document.Observer) func() {
	return s.store.Subscribe(o)
}

func (s *Session) Undo() bool { return s.history.Undo() }
func (s *Session) Redo() bool { return s.history.Redo() }

// Clear empties the board once confirm agrees.
func (s *Session) Clear(confirm history.Confirm) bool {
	return s.history.ClearAll(confirm)
}

// ImportImage adds the image in r to the board as one committed edit.
func (s *Session) ImportImage(ctx context.Context, r io.Reader) (models.Shape, error) {
	shape, err := s.importer.Import(ctx, r)
	if err != nil {
		return models.Shape{}, err
	}
	s.store.Apply(func(d models.Document) models.Document {
		return append(d, shape)
	}, true)
	return shape, nil
}

// ShareLink builds a link to this board. A standalone link carries the
// current document; a shared link names the board.
func (s *Session) ShareLink(base string, standalone bool) (string, error) {
	if standalone {
		token, err := codec.Encode(s.store.Snapshot())
		if err != nil {
			return "", err
		}
		return boardid.Link(base, boardid.ForToken(token))
	}
	if s.fragment.Mode != boardid.Shared {
		return "", ErrNotShared
	}
	return boardid.Link(base, boardid.ForBoard(s.fragment.BoardID))
}

// Flush writes any pending change now.
func (s *Session) Flush(ctx context.Context) error {
	if s.adapter == nil {
		return nil
	}
	return s.adapter.Flush(ctx)
}

func (s *Session) Close() {
	if s.adapter != nil {
		s.adapter.Close()
	}
	s.log.Debug().Msg("session closed")
}
