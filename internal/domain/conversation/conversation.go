// Package conversation holds the dialogue history carried between
// question-answering calls. History is an immutable value: Append
// returns a new value, callers keep whichever snapshot they need.
package conversation

import (
	"errors"
	"strings"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxTurnSize bounds a single turn's text (32 KB).
const MaxTurnSize = 32 * 1024

var (
	ErrInvalidRole  = errors.New("conversation: invalid role")
	ErrEmptyTurn    = errors.New("conversation: empty turn text")
	ErrTurnTooLarge = errors.New("conversation: turn text too large")
)

// Turn is one utterance in the dialogue.
type Turn struct {
	role Role
	text string
}

// NewTurn validates and builds a turn.
func NewTurn(role Role, text string) (Turn, error) {
	switch role {
	case RoleUser, RoleAssistant:
	default:
		return Turn{}, ErrInvalidRole
	}
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyTurn
	}
	if len(text) > MaxTurnSize {
		return Turn{}, ErrTurnTooLarge
	}
	return Turn{role: role, text: text}, nil
}

func (t Turn) Role() Role   { return t.role }
func (t Turn) Text() string { return t.text }

// History is an ordered list of turns, oldest first.
type History struct {
	turns []Turn
}

// NewHistory builds a history from existing turns.
func NewHistory(turns []Turn) History {
	cp := make([]Turn, len(turns))
	copy(cp, turns)
	return History{turns: cp}
}

// Append returns a new history with the turn added at the end.
func (h History) Append(t Turn) History {
	cp := make([]Turn, 0, len(h.turns)+1)
	cp = append(cp, h.turns...)
	cp = append(cp, t)
	return History{turns: cp}
}

// Turns returns all turns, oldest first.
func (h History) Turns() []Turn {
	cp := make([]Turn, len(h.turns))
	copy(cp, h.turns)
	return cp
}

// Recent returns at most n of the latest turns, oldest first.
// n <= 0 yields an empty slice.
func (h History) Recent(n int) []Turn {
	if n <= 0 {
		return nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	cp := make([]Turn, len(h.turns)-start)
	copy(cp, h.turns[start:])
	return cp
}

// Len reports the number of turns.
func (h History) Len() int { return len(h.turns) }
