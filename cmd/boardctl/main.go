package main

import (
	"fmt"
	"os"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/rs/zerolog"
)

const BoardctlVersion = "0.1.0"

const DefaultBaseURL = "http://localhost:8000/"
const DefaultDiscoverTimeout = 2 * time.Second

func main() {
	usage := fmt.Sprintf(
		`Board control.

Documents are JSON arrays of shapes. A file argument of "-" reads stdin.

The default urls are:
    base_url: %s

Usage:
    boardctl encode <file>
    boardctl decode <token> [--out=<out>]
    boardctl link (--board=<board_id> | --file=<file> | --new) [--base_url=<base_url>]
    boardctl export <file> <out>
    boardctl pull <server> <board_id> [--out=<out>]
    boardctl push <server> <board_id> <file>
    boardctl discover [--timeout=<timeout>]
    boardctl -h | --help
    boardctl --version

Options:
    -h --help                  Show this screen.
    --version                  Show version.
    --out=<out>                Write to a file instead of stdout.
    --board=<board_id>         Link to a shared board.
    --file=<file>              Link to a standalone board carrying the document.
    --new                      Link to a freshly generated shared board.
    --base_url=<base_url>      Page the link points at.
    --timeout=<timeout>        Browse time with units: ms, s, m [default: 2s].`,
		DefaultBaseURL,
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], BoardctlVersion)
	if err != nil {
		panic(err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	c := &ctl{out: os.Stdout, stdin: os.Stdin, log: log}

	if encode_, _ := opts.Bool("encode"); encode_ {
		err = c.encode(opts)
	} else if decode_, _ := opts.Bool("decode"); decode_ {
		err = c.decode(opts)
	} else if link_, _ := opts.Bool("link"); link_ {
		err = c.link(opts)
	} else if export_, _ := opts.Bool("export"); export_ {
		err = c.export(opts)
	} else if pull_, _ := opts.Bool("pull"); pull_ {
		err = c.pull(opts)
	} else if push_, _ := opts.Bool("push"); push_ {
		err = c.push(opts)
	} else if discover_, _ := opts.Bool("discover"); discover_ {
		err = c.discover(opts)
	}
	if err != nil {
		log.Error().Err(err).Msg("boardctl failed")
		os.Exit(1)
	}
}
