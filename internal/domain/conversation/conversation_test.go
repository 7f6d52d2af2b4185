package conversation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewTurn(t *testing.T) {
	turn, err := NewTurn(RoleUser, "Quantos deputados tem o PT?")
	if err != nil {
		t.Fatalf("NewTurn() error: %v", err)
	}
	if turn.Role() != RoleUser {
		t.Errorf("Role() = %q", turn.Role())
	}
	if turn.Text() != "Quantos deputados tem o PT?" {
		t.Errorf("Text() = %q", turn.Text())
	}
}

func TestNewTurn_Invalid(t *testing.T) {
	if _, err := NewTurn(Role("system"), "x"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("role error = %v", err)
	}
	if _, err := NewTurn(RoleUser, "   "); !errors.Is(err, ErrEmptyTurn) {
		t.Errorf("empty error = %v", err)
	}
	if _, err := NewTurn(RoleAssistant, strings.Repeat("a", MaxTurnSize+1)); !errors.Is(err, ErrTurnTooLarge) {
		t.Errorf("size error = %v", err)
	}
}

func mustTurn(t *testing.T, role Role, text string) Turn {
	t.Helper()
	turn, err := NewTurn(role, text)
	if err != nil {
		t.Fatal(err)
	}
	return turn
}

func TestHistory_AppendIsImmutable(t *testing.T) {
	h := NewHistory(nil)
	h2 := h.Append(mustTurn(t, RoleUser, "primeira"))

	if h.Len() != 0 {
		t.Error("Append must not mutate the receiver")
	}
	if h2.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h2.Len())
	}
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory(nil)
	for _, s := range []string{"a", "b", "c", "d"} {
		h = h.Append(mustTurn(t, RoleUser, s))
	}

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) = %d turns", len(recent))
	}
	// Порядок сохраняется: от старого к новому.
	if recent[0].Text() != "c" || recent[1].Text() != "d" {
		t.Errorf("Recent(2) = [%q, %q], want [c, d]", recent[0].Text(), recent[1].Text())
	}

	if got := h.Recent(10); len(got) != 4 {
		t.Errorf("Recent(10) = %d turns, want all 4", len(got))
	}
	if got := h.Recent(0); len(got) != 0 {
		t.Errorf("Recent(0) = %d turns, want 0", len(got))
	}
}

func TestHistory_TurnsCopies(t *testing.T) {
	h := NewHistory([]Turn{mustTurn(t, RoleUser, "a")})
	turns := h.Turns()
	turns[0] = mustTurn(t, RoleAssistant, "b")
	if h.Turns()[0].Text() != "a" {
		t.Error("Turns() must return a copy")
	}
}
