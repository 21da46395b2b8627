package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/rs/zerolog"

	"melina-board/internal/boardid"
	"melina-board/internal/channel"
	"melina-board/internal/codec"
	"melina-board/internal/discovery"
	"melina-board/internal/export"
	"melina-board/internal/models"
)

const requestTimeout = 15 * time.Second

type ctl struct {
	out   io.Writer
	stdin io.Reader
	log   zerolog.Logger
}

func (c *ctl) encode(opts docopt.Opts) error {
	doc, err := c.readDocument(mustString(opts, "<file>"))
	if err != nil {
		return err
	}
	token, err := codec.Encode(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, token)
	return err
}

func (c *ctl) decode(opts docopt.Opts) error {
	doc, err := codec.Decode(mustString(opts, "<token>"))
	if err != nil {
		return err
	}
	return c.writeDocument(opts, doc)
}

func (c *ctl) link(opts docopt.Opts) error {
	base, err := opts.String("--base_url")
	if err != nil || base == "" {
		base = DefaultBaseURL
	}

	var f boardid.Fragment
	if id, err := opts.String("--board"); err == nil && id != "" {
		if !boardid.Valid(id) {
			return fmt.Errorf("%w: %q", boardid.ErrInvalidID, id)
		}
		f = boardid.ForBoard(id)
	} else if path, err := opts.String("--file"); err == nil && path != "" {
		doc, err := c.readDocument(path)
		if err != nil {
			return err
		}
		token, err := codec.Encode(doc)
		if err != nil {
			return err
		}
		f = boardid.ForToken(token)
	} else {
		f = boardid.ForBoard(boardid.Generate())
	}

	link, err := boardid.Link(base, f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, link)
	return err
}

func (c *ctl) export(opts docopt.Opts) error {
	doc, err := c.readDocument(mustString(opts, "<file>"))
	if err != nil {
		return err
	}
	out, err := os.Create(mustString(opts, "<out>"))
	if err != nil {
		return err
	}
	if err := export.PDF(out, doc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (c *ctl) pull(opts docopt.Opts) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	ch, err := channel.DialWebsocket(ctx, mustString(opts, "<server>"), c.log)
	if err != nil {
		return err
	}
	defer ch.Close()

	id := mustString(opts, "<board_id>")
	data, ok, err := ch.Read(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Info().Str("board_id", id).Msg("board has no stored document")
		return c.writeDocument(opts, models.Document{})
	}
	doc, err := models.UnmarshalDocument(data)
	if err != nil {
		return err
	}
	return c.writeDocument(opts, doc)
}

func (c *ctl) push(opts docopt.Opts) error {
	doc, err := c.readDocument(mustString(opts, "<file>"))
	if err != nil {
		return err
	}
	data, err := models.MarshalDocument(doc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	ch, err := channel.DialWebsocket(ctx, mustString(opts, "<server>"), c.log)
	if err != nil {
		return err
	}
	defer ch.Close()

	id := mustString(opts, "<board_id>")
	if err := ch.Write(ctx, id, data); err != nil {
		return err
	}
	c.log.Info().Str("board_id", id).Int("shapes", len(doc)).Msg("board pushed")
	return nil
}

func (c *ctl) discover(opts docopt.Opts) error {
	timeout := DefaultDiscoverTimeout
	if s, err := opts.String("--timeout"); err == nil && s != "" {
		timeout, err = time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("bad timeout: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var found int
	err := discovery.Browse(ctx, timeout, func(s discovery.Server) {
		found++
		fmt.Fprintf(c.out, "%s\t%s\n", s.Name, s.BaseURL())
	})
	if err != nil {
		return err
	}
	if found == 0 {
		c.log.Info().Dur("timeout", timeout).Msg("no board servers answered")
	}
	return nil
}

func (c *ctl) readDocument(path string) (models.Document, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return models.UnmarshalDocument(data)
}

func (c *ctl) writeDocument(opts docopt.Opts, doc models.Document) error {
	data, err := models.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if path, err := opts.String("--out"); err == nil && path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

func mustString(opts docopt.Opts, key string) string {
	s, err := opts.String(key)
	if err != nil {
		panic(err)
	}
	return s
}
