package domain

// Suit of a playing card. The order is significant: it breaks ties
// between cards of equal rank, clubs lowest and spades highest.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Rank of a playing card in Big Two order: 0 is the 3, 12 is the 2.
type Rank int

const (
	Three Rank = iota
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Two
)

var suitSymbols = [...]string{"♣", "♦", "♥", "♠"}
var rankLabels = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

// Card is a single playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Value is the total order over cards: rank first, suit breaks ties.
func (c Card) Value() int {
	return int(c.Rank)*4 + int(c.Suit)
}

func (c Card) String() string {
	if c.Rank < 0 || int(c.Rank) >= len(rankLabels) || c.Suit < 0 || int(c.Suit) >= len(suitSymbols) {
		return "??"
	}
	return rankLabels[c.Rank] + suitSymbols[c.Suit]
}

// ThreeOfClubs must be part of the opening play of a fresh game.
var ThreeOfClubs = Card{Suit: Clubs, Rank: Three}

// TwoOfSpades is the highest card in the deck; playing it alone closes
// the round instantly.
var TwoOfSpades = Card{Suit: Spades, Rank: Two}

// ContainsCard reports whether cards includes the given card.
func ContainsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// HoldsAll reports whether every card in want is present in hand,
// respecting multiplicity.
func HoldsAll(hand []Card, want []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, c := range hand {
		counts[c]++
	}
	for _, c := range want {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}

// RemoveCards removes the specified cards from a hand and returns the
// updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}
