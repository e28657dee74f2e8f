package domain

// ActionKind distinguishes entries in the play history.
type ActionKind string

const (
	ActionPlay ActionKind = "play"
	ActionPass ActionKind = "pass"
)

// HistoryLimit caps the action log at the most recent entries.
const HistoryLimit = 10

// Action is one logged play or pass.
type Action struct {
	Actor string     `json:"actor"`
	Kind  ActionKind `json:"kind"`
	Cards []Card     `json:"cards,omitempty"`
}

// Player holds one seat's state. Hand membership is mutated only
// through accepted plays.
type Player struct {
	Name       string `json:"name"`
	Hand       []Card `json:"hand"`
	Finished   bool   `json:"finished"`
	IsComputer bool   `json:"is_computer"`
}

// Play is the hand currently on the table and the seat that owns it.
type Play struct {
	Cards []Card `json:"cards"`
	Owner string `json:"owner"`
}

// TableState is the complete serializable snapshot of one match. It is
// the sole shared mutable resource: every accepted action replaces it
// wholesale, and Version increments on each accepted mutation so that
// mirrors and deferred timers can detect staleness.
type TableState struct {
	PartyID     string    `json:"party_id"`
	Players     []*Player `json:"players"`
	Started     bool      `json:"started"`
	CurrentPlay *Play     `json:"current_play"`
	CurrentTurn int       `json:"current_turn"`
	// RoundWinner is the seat that last took control of the round.
	// It stays -1 until the first play of a fresh game, which doubles
	// as the marker for the three-of-clubs opening rule.
	RoundWinner int      `json:"round_winner"`
	Passed      []int    `json:"passed"`
	Rankings    []string `json:"rankings"`
	History     []Action `json:"history"`
	Version     int64    `json:"version"`
}

// SeatOf returns the seat index for a player name, or -1.
func (t *TableState) SeatOf(name string) int {
	for i, p := range t.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// HasPassed reports whether the seat has passed in the open round.
func (t *TableState) HasPassed(seat int) bool {
	for _, s := range t.Passed {
		if s == seat {
			return true
		}
	}
	return false
}

// UnfinishedCount returns the number of seats still holding cards.
func (t *TableState) UnfinishedCount() int {
	n := 0
	for _, p := range t.Players {
		if !p.Finished {
			n++
		}
	}
	return n
}

// GameOver reports whether every seat has been ranked.
func (t *TableState) GameOver() bool {
	return t.Started && len(t.Rankings) == len(t.Players)
}

// AppendHistory logs an action, dropping the oldest entry beyond the
// history limit.
func (t *TableState) AppendHistory(a Action) {
	t.History = append(t.History, a)
	if len(t.History) > HistoryLimit {
		t.History = t.History[len(t.History)-HistoryLimit:]
	}
}

// Clone returns a deep copy of the snapshot.
func (t *TableState) Clone() *TableState {
	out := *t
	out.Players = make([]*Player, len(t.Players))
	for i, p := range t.Players {
		cp := *p
		cp.Hand = append([]Card(nil), p.Hand...)
		out.Players[i] = &cp
	}
	if t.CurrentPlay != nil {
		cp := *t.CurrentPlay
		cp.Cards = append([]Card(nil), t.CurrentPlay.Cards...)
		out.CurrentPlay = &cp
	}
	out.Passed = append([]int(nil), t.Passed...)
	out.Rankings = append([]string(nil), t.Rankings...)
	out.History = make([]Action, len(t.History))
	for i, a := range t.History {
		a.Cards = append([]Card(nil), a.Cards...)
		out.History[i] = a
	}
	return &out
}

// Redacted returns a copy of the snapshot with every hand except the
// given seat's replaced by an equal number of hidden cards. Pass -1 to
// hide all hands.
func (t *TableState) Redacted(seat int) *TableState {
	out := t.Clone()
	for i, p := range out.Players {
		if i == seat {
			continue
		}
		p.Hand = make([]Card, len(p.Hand))
	}
	return out
}
