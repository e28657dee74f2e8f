package app

import "bigtwo/internal/domain"

// EventKind identifies emitted state-machine events.
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventCardPlayed     EventKind = "card_played"
	EventTurnPassed     EventKind = "turn_passed"
	EventTurnChanged    EventKind = "turn_changed"
	EventRoundClosed    EventKind = "round_closed"
	EventPlayerFinished EventKind = "player_finished"
	EventGameEnded      EventKind = "game_ended"
)

// Event is a state-machine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player names; empty means broadcast
}

type GameStartedPayload struct {
	FirstTurnSeat int
}

type HandDealtPayload struct {
	Seat int
	Name string
	Hand []domain.Card
}

type CardPlayedPayload struct {
	Seat  int
	Name  string
	Cards []domain.Card
}

type TurnPassedPayload struct {
	Seat int
	Name string
}

type TurnChangedPayload struct {
	Seat int
}

type RoundClosedPayload struct {
	WinnerSeat int
}

type PlayerFinishedPayload struct {
	Seat  int
	Name  string
	Place int
}

type GameEndedPayload struct {
	Rankings []string
}
