package app

import (
	"errors"
	"math/rand"
	"time"

	"bigtwo/internal/domain"
)

// MaxPlayers is the seat limit of a party.
const MaxPlayers = 4

// MinPlayersToDeal is the minimum number of seats required to deal a
// game. Solo mode fills the table to four before dealing.
const MinPlayersToDeal = 2

// Rejection reasons for user errors. Every rejected action performs
// zero mutation; callers surface the message and allow retry.
var (
	ErrNothingSelected  = errors.New("nothing selected")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrAlreadyFinished  = errors.New("you have already finished")
	ErrCardsNotHeld     = errors.New("selected cards are not in your hand")
	ErrMustIncludeThree = errors.New("first play of the game must include the three of clubs")
	ErrInvalidHand      = errors.New("not a valid hand shape")
	ErrCannotBeat       = errors.New("hand does not beat the current play")
	ErrCannotPassOpen   = errors.New("cannot pass when opening a round")
	ErrGameOver         = errors.New("game is over")
	ErrGameNotStarted   = errors.New("game has not started")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrPartyFull        = errors.New("party is full")
	ErrNameTaken        = errors.New("name already taken in this party")
	ErrUnknownPlayer    = errors.New("player not found")
	ErrTooFewPlayers    = errors.New("not enough players to start")
	ErrBadSelection     = errors.New("selection does not match your hand")

	// ErrNoEligibleSeat indicates an internal inconsistency: no
	// unfinished seat was found while advancing the turn. The turn is
	// left unchanged instead of looping.
	ErrNoEligibleSeat = errors.New("no eligible seat to advance to")
)

// Service contains the Big Two use-cases operating on a table snapshot.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a
// time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// NewParty creates an unstarted table with the host in seat zero.
func (s *Service) NewParty(partyID, hostName string) *domain.TableState {
	return &domain.TableState{
		PartyID:     partyID,
		Players:     []*domain.Player{{Name: hostName}},
		CurrentTurn: 0,
		RoundWinner: -1,
	}
}

// AddPlayer seats a new player on an unstarted table.
func (s *Service) AddPlayer(t *domain.TableState, name string, isComputer bool) error {
	if t.Started && !t.GameOver() {
		return ErrGameInProgress
	}
	if len(t.Players) >= MaxPlayers {
		return ErrPartyFull
	}
	if t.SeatOf(name) >= 0 {
		return ErrNameTaken
	}
	// A roster change after a finished game returns the table to the
	// lobby; GameOver is defined against the player count.
	if t.Started {
		returnToLobby(t)
	}
	t.Players = append(t.Players, &domain.Player{Name: name, IsComputer: isComputer})
	t.Version++
	return nil
}

// RemovePlayer frees a seat. Only meaningful between games; during a
// game the seat keeps playing (or stalls) until a new deal.
func (s *Service) RemovePlayer(t *domain.TableState, name string) error {
	if t.Started && !t.GameOver() {
		return ErrGameInProgress
	}
	seat := t.SeatOf(name)
	if seat < 0 {
		return ErrUnknownPlayer
	}
	if t.Started {
		returnToLobby(t)
	}
	t.Players = append(t.Players[:seat], t.Players[seat+1:]...)
	t.Version++
	return nil
}

// returnToLobby clears per-game state when the roster changes after a
// finished game.
func returnToLobby(t *domain.TableState) {
	t.Started = false
	t.CurrentPlay = nil
	t.CurrentTurn = 0
	t.RoundWinner = -1
	t.Passed = nil
	t.Rankings = nil
	t.History = nil
	for _, p := range t.Players {
		p.Hand = nil
		p.Finished = false
	}
}

// Deal shuffles and deals a fresh game: floor(52/n) cards per seat,
// any remainder undealt. The holder of the three of clubs acts first
// and must include it in the opening play. Deal also serves as "new
// game": per-game fields reset while seat identities persist.
func (s *Service) Deal(t *domain.TableState) ([]Event, error) {
	if len(t.Players) < MinPlayersToDeal {
		return nil, ErrTooFewPlayers
	}
	if t.Started && !t.GameOver() {
		return nil, ErrGameInProgress
	}

	deck := domain.Shuffle(s.rng, domain.NewDeck())
	perPlayer := 52 / len(t.Players)

	events := make([]Event, 0, len(t.Players)+1)
	for i, p := range t.Players {
		hand := append([]domain.Card(nil), deck[i*perPlayer:(i+1)*perPlayer]...)
		domain.SortHand(hand)
		p.Hand = hand
		p.Finished = false
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: i, Name: p.Name, Hand: hand},
			Recipients: []string{p.Name},
		})
	}

	starter := 0
	for i, p := range t.Players {
		if domain.ContainsCard(p.Hand, domain.ThreeOfClubs) {
			starter = i
			break
		}
	}

	t.Started = true
	t.CurrentPlay = nil
	t.CurrentTurn = starter
	t.RoundWinner = -1
	t.Passed = nil
	t.Rankings = nil
	t.History = nil
	t.Version++

	events = append(events, Event{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{FirstTurnSeat: starter},
	})
	return events, nil
}

// Play validates and applies a play for the given seat. On rejection
// the table is untouched and the error carries the reason.
func (s *Service) Play(t *domain.TableState, seat int, cards []domain.Card) ([]Event, error) {
	if !t.Started {
		return nil, ErrGameNotStarted
	}
	if t.GameOver() {
		return nil, ErrGameOver
	}
	if seat != t.CurrentTurn || seat < 0 || seat >= len(t.Players) {
		return nil, ErrNotYourTurn
	}
	p := t.Players[seat]
	if p.Finished {
		return nil, ErrAlreadyFinished
	}
	if len(cards) == 0 {
		return nil, ErrNothingSelected
	}
	if !domain.HoldsAll(p.Hand, cards) {
		return nil, ErrCardsNotHeld
	}
	if t.CurrentPlay == nil && t.RoundWinner == -1 && !domain.ContainsCard(cards, domain.ThreeOfClubs) {
		return nil, ErrMustIncludeThree
	}
	if domain.Classify(cards).Shape == domain.ShapeInvalid {
		return nil, ErrInvalidHand
	}
	if t.CurrentPlay != nil && !domain.Beats(cards, t.CurrentPlay.Cards) {
		return nil, ErrCannotBeat
	}

	// Accepted: mutate.
	p.Hand = domain.RemoveCards(p.Hand, cards)
	t.AppendHistory(domain.Action{Actor: p.Name, Kind: domain.ActionPlay, Cards: cards})
	t.Version++

	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{Seat: seat, Name: p.Name, Cards: cards},
	}}

	if len(p.Hand) == 0 {
		events = append(events, s.finishSeat(t, seat)...)
	}

	// The pass set in force before this play decides closure and the
	// next actor; an accepted play then clears it.
	passed := t.Passed
	instantWin := len(cards) == 1 && cards[0] == domain.TwoOfSpades && len(p.Hand) > 0

	switch {
	case t.GameOver():
		t.CurrentPlay = &domain.Play{Cards: cards, Owner: p.Name}
		t.RoundWinner = seat
		t.Passed = nil
		events = append(events, Event{
			Kind:    EventGameEnded,
			Payload: GameEndedPayload{Rankings: append([]string(nil), t.Rankings...)},
		})

	case roundSettled(t, seat, passed) || instantWin:
		closeEvents, err := closeRound(t, seat)
		if err != nil {
			return events, err
		}
		events = append(events, closeEvents...)

	default:
		t.CurrentPlay = &domain.Play{Cards: cards, Owner: p.Name}
		t.RoundWinner = seat
		next := nextEligibleSeat(t, seat, passed)
		t.Passed = nil
		if next < 0 {
			return events, ErrNoEligibleSeat
		}
		t.CurrentTurn = next
		events = append(events, Event{
			Kind:    EventTurnChanged,
			Payload: TurnChangedPayload{Seat: next},
		})
	}

	return events, nil
}

// PlayIndices resolves card indices into the seat's sorted hand and
// plays them. This is the presentation-boundary form of Play.
func (s *Service) PlayIndices(t *domain.TableState, seat int, indices []int) ([]Event, error) {
	if seat < 0 || seat >= len(t.Players) {
		return nil, ErrUnknownPlayer
	}
	if len(indices) == 0 {
		return nil, ErrNothingSelected
	}
	hand := t.Players[seat].Hand
	seen := make(map[int]bool, len(indices))
	cards := make([]domain.Card, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(hand) || seen[idx] {
			return nil, ErrBadSelection
		}
		seen[idx] = true
		cards = append(cards, hand[idx])
	}
	return s.Play(t, seat, cards)
}

// Pass marks the seat out of the open round. A seat that would be
// opening cannot pass.
func (s *Service) Pass(t *domain.TableState, seat int) ([]Event, error) {
	if !t.Started {
		return nil, ErrGameNotStarted
	}
	if t.GameOver() {
		return nil, ErrGameOver
	}
	if seat != t.CurrentTurn || seat < 0 || seat >= len(t.Players) {
		return nil, ErrNotYourTurn
	}
	p := t.Players[seat]
	if p.Finished {
		return nil, ErrAlreadyFinished
	}
	if t.CurrentPlay == nil {
		return nil, ErrCannotPassOpen
	}

	t.Passed = append(t.Passed, seat)
	t.AppendHistory(domain.Action{Actor: p.Name, Kind: domain.ActionPass})
	t.Version++

	events := []Event{{
		Kind:    EventTurnPassed,
		Payload: TurnPassedPayload{Seat: seat, Name: p.Name},
	}}

	if roundSettled(t, t.RoundWinner, t.Passed) && t.UnfinishedCount() > 1 {
		closeEvents, err := closeRound(t, t.RoundWinner)
		if err != nil {
			return events, err
		}
		return append(events, closeEvents...), nil
	}

	next := nextEligibleSeat(t, seat, t.Passed)
	if next < 0 {
		return events, ErrNoEligibleSeat
	}
	t.CurrentTurn = next
	events = append(events, Event{
		Kind:    EventTurnChanged,
		Payload: TurnChangedPayload{Seat: next},
	})
	return events, nil
}

// LegalActions is a pure query: every play the seat could legally make
// against the current table, cheapest cardinality first. It inspects
// only the seat's own hand and the public state.
func (s *Service) LegalActions(t *domain.TableState, seat int) [][]domain.Card {
	if seat < 0 || seat >= len(t.Players) || t.Players[seat].Finished {
		return nil
	}
	var current []domain.Card
	if t.CurrentPlay != nil {
		current = t.CurrentPlay.Cards
	}
	plays := domain.LegalPlays(t.Players[seat].Hand, current)
	if t.CurrentPlay == nil && t.RoundWinner == -1 {
		// Opening play of a fresh game: only hands carrying the three
		// of clubs qualify.
		filtered := plays[:0]
		for _, play := range plays {
			if domain.ContainsCard(play, domain.ThreeOfClubs) {
				filtered = append(filtered, play)
			}
		}
		plays = filtered
	}
	return plays
}

// finishSeat records a seat emptying its hand: it is ranked, and when
// only one unfinished seat remains that seat is auto-ranked last.
func (s *Service) finishSeat(t *domain.TableState, seat int) []Event {
	p := t.Players[seat]
	p.Finished = true
	t.Rankings = append(t.Rankings, p.Name)
	events := []Event{{
		Kind:    EventPlayerFinished,
		Payload: PlayerFinishedPayload{Seat: seat, Name: p.Name, Place: len(t.Rankings)},
	}}

	if t.UnfinishedCount() == 1 {
		for i, last := range t.Players {
			if !last.Finished {
				last.Finished = true
				t.Rankings = append(t.Rankings, last.Name)
				events = append(events, Event{
					Kind:    EventPlayerFinished,
					Payload: PlayerFinishedPayload{Seat: i, Name: last.Name, Place: len(t.Rankings)},
				})
				break
			}
		}
	}
	return events
}

// roundSettled reports whether every unfinished seat other than the
// round winner has passed. It is the single closure predicate shared
// by the play path, the pass path, and the bot scheduler.
func roundSettled(t *domain.TableState, winner int, passed []int) bool {
	for i, p := range t.Players {
		if p.Finished || i == winner {
			continue
		}
		if !seatIn(passed, i) {
			return false
		}
	}
	return true
}

// closeRound resets the table for a fresh open. Control goes to the
// winning seat, or to the next unfinished seat when the winner has
// finished.
func closeRound(t *domain.TableState, winner int) ([]Event, error) {
	ctrl := winner
	if ctrl < 0 || t.Players[ctrl].Finished {
		ctrl = nextUnfinishedSeat(t, winner)
		if ctrl < 0 {
			return nil, ErrNoEligibleSeat
		}
	}
	t.CurrentPlay = nil
	t.Passed = nil
	t.CurrentTurn = ctrl
	t.RoundWinner = ctrl
	return []Event{{
		Kind:    EventRoundClosed,
		Payload: RoundClosedPayload{WinnerSeat: ctrl},
	}}, nil
}

// nextEligibleSeat steps forward circularly from the given seat,
// skipping seats that are finished or have passed. Returns -1 when a
// full cycle finds nobody.
func nextEligibleSeat(t *domain.TableState, from int, passed []int) int {
	n := len(t.Players)
	for step := 1; step <= n; step++ {
		seat := (from + step) % n
		if t.Players[seat].Finished || seatIn(passed, seat) {
			continue
		}
		return seat
	}
	if from >= 0 && from < n && !t.Players[from].Finished {
		return from
	}
	return -1
}

// nextUnfinishedSeat steps forward circularly skipping only finished
// seats.
func nextUnfinishedSeat(t *domain.TableState, from int) int {
	n := len(t.Players)
	if from < 0 {
		from = n - 1
	}
	for step := 1; step <= n; step++ {
		seat := (from + step) % n
		if !t.Players[seat].Finished {
			return seat
		}
	}
	return -1
}

func seatIn(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
