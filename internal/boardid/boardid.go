// Package boardid derives the board a client works on from the addressable
// fragment of its URL and builds shareable links.
package boardid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	Prefix   = "board-"
	stateKey = "state="
	maxLen   = 128
)

var ErrInvalidID = errors.New("invalid board id")

// Generate returns a fresh id, a millisecond timestamp followed by a random
// suffix.
func Generate() string {
	return Prefix + strings.ToLower(ulid.Make().String())
}

// Valid reports whether id can be used as a board key.
func Valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

type Mode int

const (
	// Shared boards sync through the remote channel keyed by BoardID.
	Shared Mode = iota
	// Standalone boards carry their whole document in Token.
	Standalone
)

type Fragment struct {
	Mode    Mode
	BoardID string
	Token   string
	// Generated is set when no id was present; the caller publishes String()
	// back to the URL so the page becomes shareable.
	Generated bool
}

// Resolve interprets a URL fragment, with or without the leading '#'.
func Resolve(fragment string) (Fragment, error) {
	f := strings.TrimPrefix(fragment, "#")
	switch {
	case f == "":
		return Fragment{Mode: Shared, BoardID: Generate(), Generated: true}, nil
	case strings.HasPrefix(f, stateKey):
		token := strings.TrimPrefix(f, stateKey)
		if token == "" {
			return Fragment{}, fmt.Errorf("%w: empty state token", ErrInvalidID)
		}
		return Fragment{Mode: Standalone, Token: token}, nil
	case !Valid(f):
		return Fragment{}, fmt.Errorf("%w: %q", ErrInvalidID, f)
	}
	return Fragment{Mode: Shared, BoardID: f}, nil
}

// ForBoard is the fragment of a shared board.
func ForBoard(id string) Fragment {
	return Fragment{Mode: Shared, BoardID: id}
}

// ForToken is the fragment of a standalone board.
func ForToken(token string) Fragment {
	return Fragment{Mode: Standalone, Token: token}
}

// String is the fragment text without '#'.
func (f Fragment) String() string {
	if f.Mode == Standalone {
		return stateKey + f.Token
	}
	return f.BoardID
}

// Link embeds the fragment into base, replacing any fragment base had.
func Link(base string, f Fragment) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Fragment = f.String()
	u.RawFragment = ""
	return u.String(), nil
}

// Watcher notices when the fragment is changed from outside, for example by
// navigating back. Switching boards is not live, a change means reload.
type Watcher struct {
	current string
}

func NewWatcher(f Fragment) *Watcher {
	return &Watcher{current: f.String()}
}

// NeedsReload reports whether fragment names a different board than the one
// loaded.
func (w *Watcher) NeedsReload(fragment string) bool {
	return strings.TrimPrefix(fragment, "#") != w.current
}
