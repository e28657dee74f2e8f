package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckIsComplete(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 52 {
		t.Fatalf("deck size = %d, want 52", len(deck))
	}
	seen := map[Card]bool{}
	for _, card := range deck {
		if seen[card] {
			t.Fatalf("duplicate card %v", card)
		}
		seen[card] = true
	}
}

func TestShuffleKeepsEveryCard(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := NewDeck()
	shuffled := Shuffle(rng, deck)
	if len(shuffled) != 52 {
		t.Fatalf("shuffled size = %d, want 52", len(shuffled))
	}
	seen := map[Card]bool{}
	for _, card := range shuffled {
		seen[card] = true
	}
	if len(seen) != 52 {
		t.Fatalf("unique cards after shuffle = %d, want 52", len(seen))
	}
}

func TestSortHandOrdersByValue(t *testing.T) {
	hand := []Card{c(Spades, Two), c(Clubs, Three), c(Hearts, Nine), c(Clubs, Nine)}
	SortHand(hand)
	for i := 1; i < len(hand); i++ {
		if hand[i-1].Value() >= hand[i].Value() {
			t.Fatalf("hand not strictly ascending: %v", hand)
		}
	}
	if hand[0] != ThreeOfClubs {
		t.Fatalf("lowest card = %v, want %v", hand[0], ThreeOfClubs)
	}
	if hand[len(hand)-1] != TwoOfSpades {
		t.Fatalf("highest card = %v, want %v", hand[len(hand)-1], TwoOfSpades)
	}
}

func TestRemoveCards(t *testing.T) {
	hand := []Card{c(Clubs, Three), c(Diamonds, Three), c(Hearts, Nine)}
	got := RemoveCards(hand, []Card{c(Diamonds, Three)})
	if len(got) != 2 {
		t.Fatalf("hand size = %d, want 2", len(got))
	}
	if ContainsCard(got, c(Diamonds, Three)) {
		t.Fatalf("removed card still present: %v", got)
	}
	if !ContainsCard(got, c(Clubs, Three)) {
		t.Fatalf("same-rank sibling was removed: %v", got)
	}
}

func TestHistoryCap(t *testing.T) {
	state := &TableState{}
	for i := 0; i < HistoryLimit+5; i++ {
		state.AppendHistory(Action{Actor: "p", Kind: ActionPass})
	}
	if len(state.History) != HistoryLimit {
		t.Fatalf("history size = %d, want %d", len(state.History), HistoryLimit)
	}
}
