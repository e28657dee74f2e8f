package app

import (
	"math/rand"
	"reflect"
	"testing"

	"bigtwo/internal/domain"
)

func c(s domain.Suit, r domain.Rank) domain.Card { return domain.Card{Suit: s, Rank: r} }

// table builds a started four-seat game with explicit hands. Seat 0
// holds the turn and no round has occurred yet.
func table(hands ...[]domain.Card) *domain.TableState {
	names := []string{"alice", "bob", "carol", "dave"}
	t := &domain.TableState{
		PartyID:     "TEST",
		Started:     true,
		CurrentTurn: 0,
		RoundWinner: -1,
	}
	for i, hand := range hands {
		t.Players = append(t.Players, &domain.Player{Name: names[i], Hand: hand})
	}
	return t
}

// openRound marks the table as past its very first play so that the
// three-of-clubs rule no longer applies.
func openRound(t *domain.TableState, winner int) {
	t.RoundWinner = winner
}

func TestDealSizes(t *testing.T) {
	tests := []struct {
		players int
		want    int
	}{
		{players: 4, want: 13},
		{players: 3, want: 17},
		{players: 2, want: 26},
	}
	for _, tt := range tests {
		svc := NewService(rand.New(rand.NewSource(1)))
		st := svc.NewParty("P", "p0")
		for i := 1; i < tt.players; i++ {
			if err := svc.AddPlayer(st, string(rune('a'+i)), false); err != nil {
				t.Fatalf("add player: %v", err)
			}
		}
		if _, err := svc.Deal(st); err != nil {
			t.Fatalf("deal: %v", err)
		}
		for _, p := range st.Players {
			if len(p.Hand) != tt.want {
				t.Fatalf("%d players: hand size = %d, want %d", tt.players, len(p.Hand), tt.want)
			}
		}
	}
}

func TestDealStarterHoldsThreeOfClubs(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	st := svc.NewParty("P", "p0")
	for _, n := range []string{"p1", "p2", "p3"} {
		if err := svc.AddPlayer(st, n, true); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	evs, err := svc.Deal(st)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	starter := st.CurrentTurn
	if !domain.ContainsCard(st.Players[starter].Hand, domain.ThreeOfClubs) {
		t.Fatalf("starter seat %d does not hold the three of clubs", starter)
	}
	found := false
	for _, ev := range evs {
		if ev.Kind == EventGameStarted {
			found = true
			if got := ev.Payload.(GameStartedPayload).FirstTurnSeat; got != starter {
				t.Fatalf("first turn seat = %d, want %d", got, starter)
			}
		}
	}
	if !found {
		t.Fatalf("no game started event emitted")
	}
}

func TestOpeningPlayMustIncludeThreeOfClubs(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Three), c(domain.Hearts, domain.Five)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Seven)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)

	if _, err := svc.Play(st, 0, []domain.Card{c(domain.Hearts, domain.Five)}); err != ErrMustIncludeThree {
		t.Fatalf("err = %v, want %v", err, ErrMustIncludeThree)
	}
	if len(st.Players[0].Hand) != 2 || st.Version != 0 {
		t.Fatalf("rejected play mutated state")
	}

	if _, err := svc.Play(st, 0, []domain.Card{c(domain.Clubs, domain.Three)}); err != nil {
		t.Fatalf("opening with three of clubs rejected: %v", err)
	}

	// Once a round has occurred, opening is unrestricted.
	st2 := table(
		[]domain.Card{c(domain.Clubs, domain.Three), c(domain.Hearts, domain.Five)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Seven)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st2, 0)
	if _, err := svc.Play(st2, 0, []domain.Card{c(domain.Hearts, domain.Five)}); err != nil {
		t.Fatalf("later round open rejected: %v", err)
	}
}

func TestPlayRejections(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Four), c(domain.Hearts, domain.Four), c(domain.Clubs, domain.Nine)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Seven)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st, 3)
	st.CurrentPlay = &domain.Play{Cards: []domain.Card{c(domain.Spades, domain.Nine)}, Owner: "dave"}

	tests := []struct {
		name  string
		seat  int
		cards []domain.Card
		want  error
	}{
		{name: "wrong seat", seat: 1, cards: []domain.Card{c(domain.Clubs, domain.Six)}, want: ErrNotYourTurn},
		{name: "nothing selected", seat: 0, cards: nil, want: ErrNothingSelected},
		{name: "cards not held", seat: 0, cards: []domain.Card{c(domain.Spades, domain.Ace)}, want: ErrCardsNotHeld},
		{name: "invalid shape", seat: 0, cards: []domain.Card{c(domain.Clubs, domain.Four), c(domain.Clubs, domain.Nine)}, want: ErrInvalidHand},
		{name: "size mismatch", seat: 0, cards: []domain.Card{c(domain.Clubs, domain.Four), c(domain.Hearts, domain.Four)}, want: ErrCannotBeat},
		{name: "too weak", seat: 0, cards: []domain.Card{c(domain.Clubs, domain.Nine)}, want: ErrCannotBeat},
	}

	before := st.Clone()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Play(st, tt.seat, tt.cards); err != tt.want {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(st.Clone(), before) {
				t.Fatalf("rejected play mutated state")
			}
		})
	}
}

func TestTurnSkipsFinishedAndPassed(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Nine), c(domain.Clubs, domain.Ten)},
		[]domain.Card{},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st, 0)
	st.Players[1].Finished = true
	st.Passed = []int{2}

	if _, err := svc.Play(st, 0, []domain.Card{c(domain.Clubs, domain.Nine)}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if st.CurrentTurn != 3 {
		t.Fatalf("next turn = %d, want 3", st.CurrentTurn)
	}
	// An accepted play clears the pass set for the ongoing cycle.
	if len(st.Passed) != 0 {
		t.Fatalf("passed = %v, want empty after an accepted play", st.Passed)
	}
}

func TestPassClosesRound(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Nine), c(domain.Clubs, domain.Ten)},
		[]domain.Card{c(domain.Clubs, domain.Four)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st, 0)
	st.CurrentPlay = &domain.Play{Cards: []domain.Card{c(domain.Clubs, domain.Nine)}, Owner: "alice"}
	st.CurrentTurn = 1

	for seat := 1; seat <= 2; seat++ {
		if _, err := svc.Pass(st, seat); err != nil {
			t.Fatalf("pass seat %d: %v", seat, err)
		}
	}
	evs, err := svc.Pass(st, 3)
	if err != nil {
		t.Fatalf("pass seat 3: %v", err)
	}

	if st.CurrentPlay != nil {
		t.Fatalf("current play = %v, want cleared", st.CurrentPlay)
	}
	if st.CurrentTurn != 0 || st.RoundWinner != 0 {
		t.Fatalf("turn/winner = %d/%d, want 0/0", st.CurrentTurn, st.RoundWinner)
	}
	if len(st.Passed) != 0 {
		t.Fatalf("passed = %v, want cleared", st.Passed)
	}
	closed := false
	for _, ev := range evs {
		if ev.Kind == EventRoundClosed {
			closed = true
		}
	}
	if !closed {
		t.Fatalf("no round closed event")
	}
}

func TestPassRejectedWhenOpening(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Three)},
		[]domain.Card{c(domain.Clubs, domain.Four)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	if _, err := svc.Pass(st, 0); err != ErrCannotPassOpen {
		t.Fatalf("err = %v, want %v", err, ErrCannotPassOpen)
	}
}

func TestTwoOfSpadesClosesRoundInstantly(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Spades, domain.Two), c(domain.Clubs, domain.Four)},
		[]domain.Card{c(domain.Clubs, domain.Five)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st, 0)

	evs, err := svc.Play(st, 0, []domain.Card{c(domain.Spades, domain.Two)})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if st.CurrentPlay != nil {
		t.Fatalf("current play = %v, want cleared", st.CurrentPlay)
	}
	if st.CurrentTurn != 0 || st.RoundWinner != 0 {
		t.Fatalf("turn/winner = %d/%d, want 0/0", st.CurrentTurn, st.RoundWinner)
	}
	closed := false
	for _, ev := range evs {
		if ev.Kind == EventRoundClosed {
			closed = true
		}
	}
	if !closed {
		t.Fatalf("no round closed event")
	}
}

func TestTwoOfSpadesAsLastCardDoesNotReopenForActor(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Spades, domain.Two)},
		[]domain.Card{c(domain.Clubs, domain.Five)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)
	openRound(st, 0)

	if _, err := svc.Play(st, 0, []domain.Card{c(domain.Spades, domain.Two)}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !st.Players[0].Finished {
		t.Fatalf("actor should be finished")
	}
	if st.CurrentTurn == 0 {
		t.Fatalf("finished actor kept the turn")
	}
}

func TestGameCompletionRanking(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Nine)},
		[]domain.Card{c(domain.Clubs, domain.Ten), c(domain.Clubs, domain.Jack)},
		[]domain.Card{c(domain.Clubs, domain.Queen)},
	)
	openRound(st, 0)
	st.Players[0].Finished = true
	st.Rankings = []string{"alice"}
	st.CurrentTurn = 2

	evs, err := svc.Play(st, 2, []domain.Card{c(domain.Clubs, domain.Queen)})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !st.GameOver() {
		t.Fatalf("game should be over")
	}
	want := []string{"alice", "carol", "bob"}
	if !reflect.DeepEqual(st.Rankings, want) {
		t.Fatalf("rankings = %v, want %v", st.Rankings, want)
	}
	ended := false
	for _, ev := range evs {
		if ev.Kind == EventGameEnded {
			ended = true
		}
	}
	if !ended {
		t.Fatalf("no game ended event")
	}

	// No further actions accepted.
	if _, err := svc.Play(st, st.CurrentTurn, []domain.Card{c(domain.Clubs, domain.Ten)}); err != ErrGameOver {
		t.Fatalf("post-game play err = %v, want %v", err, ErrGameOver)
	}
	if _, err := svc.Pass(st, st.CurrentTurn); err != ErrGameOver {
		t.Fatalf("post-game pass err = %v, want %v", err, ErrGameOver)
	}
}

func TestNewGameResets(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)))
	st := svc.NewParty("P", "p0")
	for _, n := range []string{"p1", "p2", "p3"} {
		if err := svc.AddPlayer(st, n, false); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := svc.Deal(st); err != nil {
		t.Fatalf("deal: %v", err)
	}
	// Force the game closed.
	for _, p := range st.Players {
		p.Finished = true
		st.Rankings = append(st.Rankings, p.Name)
	}
	st.History = []domain.Action{{Actor: "p0", Kind: domain.ActionPass}}

	if _, err := svc.Deal(st); err != nil {
		t.Fatalf("new game deal: %v", err)
	}
	if len(st.Rankings) != 0 || len(st.History) != 0 || st.RoundWinner != -1 {
		t.Fatalf("per-game fields not reset: rankings=%v history=%v winner=%d",
			st.Rankings, st.History, st.RoundWinner)
	}
	for _, p := range st.Players {
		if p.Finished || len(p.Hand) != 13 {
			t.Fatalf("player %s not reset: finished=%v hand=%d", p.Name, p.Finished, len(p.Hand))
		}
	}
}

func TestJoinAfterGameOverReturnsToLobby(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)))
	st := svc.NewParty("P", "p0")
	if err := svc.AddPlayer(st, "p1", false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Deal(st); err != nil {
		t.Fatalf("deal: %v", err)
	}
	for _, p := range st.Players {
		p.Finished = true
		st.Rankings = append(st.Rankings, p.Name)
	}

	if err := svc.AddPlayer(st, "p2", false); err != nil {
		t.Fatalf("post-game join: %v", err)
	}
	if st.Started || st.GameOver() {
		t.Fatalf("table not back in lobby: started=%v over=%v", st.Started, st.GameOver())
	}
	if _, err := svc.Deal(st); err != nil {
		t.Fatalf("redeal with new roster: %v", err)
	}
	for _, p := range st.Players {
		if len(p.Hand) != 17 {
			t.Fatalf("hand size = %d, want 17", len(p.Hand))
		}
	}
}

func TestDealRejectedMidGame(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)))
	st := svc.NewParty("P", "p0")
	for _, n := range []string{"p1", "p2"} {
		if err := svc.AddPlayer(st, n, false); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := svc.Deal(st); err != nil {
		t.Fatalf("deal: %v", err)
	}
	if _, err := svc.Deal(st); err != ErrGameInProgress {
		t.Fatalf("err = %v, want %v", err, ErrGameInProgress)
	}
	if err := svc.AddPlayer(st, "late", false); err != ErrGameInProgress {
		t.Fatalf("join err = %v, want %v", err, ErrGameInProgress)
	}
}

func TestLegalActionsFilterOpeningRule(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Three), c(domain.Diamonds, domain.Three), c(domain.Hearts, domain.Nine)},
		[]domain.Card{c(domain.Clubs, domain.Four)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)

	for _, play := range svc.LegalActions(st, 0) {
		if !domain.ContainsCard(play, domain.ThreeOfClubs) {
			t.Fatalf("opening action %v omits the three of clubs", play)
		}
	}

	openRound(st, 0)
	free := svc.LegalActions(st, 0)
	if len(free) != 4 { // three singles plus the pair of threes
		t.Fatalf("later-round actions = %d, want 4", len(free))
	}
}

func TestPlayIndices(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	st := table(
		[]domain.Card{c(domain.Clubs, domain.Three), c(domain.Hearts, domain.Nine)},
		[]domain.Card{c(domain.Clubs, domain.Four)},
		[]domain.Card{c(domain.Clubs, domain.Six)},
		[]domain.Card{c(domain.Clubs, domain.Eight)},
	)

	if _, err := svc.PlayIndices(st, 0, []int{5}); err != ErrBadSelection {
		t.Fatalf("out of range err = %v, want %v", err, ErrBadSelection)
	}
	if _, err := svc.PlayIndices(st, 0, []int{0, 0}); err != ErrBadSelection {
		t.Fatalf("duplicate err = %v, want %v", err, ErrBadSelection)
	}
	if _, err := svc.PlayIndices(st, 0, []int{0}); err != nil {
		t.Fatalf("play indices: %v", err)
	}
	if len(st.Players[0].Hand) != 1 {
		t.Fatalf("hand size = %d, want 1", len(st.Players[0].Hand))
	}
}
