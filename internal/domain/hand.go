package domain

import "sort"

// HandShape is the classified category of a played set of cards.
type HandShape int

const (
	ShapeInvalid HandShape = iota
	ShapeSingle
	ShapePair
	ShapeStraight
	ShapeFlush
	ShapeFullHouse
	ShapeFourOfAKind
	ShapeStraightFlush
)

var shapeNames = map[HandShape]string{
	ShapeInvalid:       "invalid",
	ShapeSingle:        "single",
	ShapePair:          "pair",
	ShapeStraight:      "straight",
	ShapeFlush:         "flush",
	ShapeFullHouse:     "full house",
	ShapeFourOfAKind:   "four of a kind",
	ShapeStraightFlush: "straight flush",
}

func (s HandShape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "invalid"
}

// fivePrecedence orders the five-card shapes low to high. Shapes that
// are not five-card combinations return -1.
func (s HandShape) fivePrecedence() int {
	switch s {
	case ShapeStraight:
		return 0
	case ShapeFlush:
		return 1
	case ShapeFullHouse:
		return 2
	case ShapeFourOfAKind:
		return 3
	case ShapeStraightFlush:
		return 4
	}
	return -1
}

// Hand is the classification result for a set of cards: its shape plus
// the rank used to compare two hands of the same shape and size.
type Hand struct {
	Shape HandShape
	Rank  Rank
}

// Classify determines the shape and comparison rank of 1, 2, or 5
// cards. Any other size, and any composition outside the legal shapes,
// classifies as ShapeInvalid.
func Classify(cards []Card) Hand {
	switch len(cards) {
	case 1:
		return Hand{Shape: ShapeSingle, Rank: cards[0].Rank}
	case 2:
		if cards[0].Rank == cards[1].Rank {
			return Hand{Shape: ShapePair, Rank: cards[0].Rank}
		}
		return Hand{Shape: ShapeInvalid}
	case 5:
		return classifyFive(cards)
	}
	return Hand{Shape: ShapeInvalid}
}

func classifyFive(cards []Card) Hand {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank)
	}
	sort.Ints(ranks)

	flush := true
	for _, c := range cards {
		if c.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straight := true
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			straight = false
			break
		}
	}

	rankCounts := make(map[Rank]int, 5)
	for _, c := range cards {
		rankCounts[c.Rank]++
	}
	counts := make([]int, 0, len(rankCounts))
	for _, n := range rankCounts {
		counts = append(counts, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	high := Rank(ranks[len(ranks)-1])

	switch {
	case straight && flush:
		return Hand{Shape: ShapeStraightFlush, Rank: high}
	case counts[0] == 4:
		return Hand{Shape: ShapeFourOfAKind, Rank: rankWithCount(rankCounts, 4)}
	case counts[0] == 3 && counts[1] == 2:
		return Hand{Shape: ShapeFullHouse, Rank: rankWithCount(rankCounts, 3)}
	case flush:
		return Hand{Shape: ShapeFlush, Rank: high}
	case straight:
		return Hand{Shape: ShapeStraight, Rank: high}
	}
	return Hand{Shape: ShapeInvalid}
}

func rankWithCount(rankCounts map[Rank]int, n int) Rank {
	for r, c := range rankCounts {
		if c == n {
			return r
		}
	}
	return 0
}
