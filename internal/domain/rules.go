package domain

// Beats reports whether the candidate cards legally defeat the current
// play. A nil or empty current play means any classifiable hand opens
// the round.
func Beats(candidate []Card, current []Card) bool {
	cHand := Classify(candidate)
	if len(current) == 0 {
		return cHand.Shape != ShapeInvalid
	}

	if cHand.Shape == ShapeInvalid || len(candidate) != len(current) {
		return false
	}

	pHand := Classify(current)

	if len(candidate) == 5 {
		cPrec, pPrec := cHand.Shape.fivePrecedence(), pHand.Shape.fivePrecedence()
		if cPrec != pPrec {
			return cPrec > pPrec
		}
		return cHand.Rank > pHand.Rank
	}

	if cHand.Shape != pHand.Shape {
		return false
	}
	if cHand.Rank > pHand.Rank {
		return true
	}
	if cHand.Rank < pHand.Rank {
		return false
	}

	// Equal ranks: a single falls back to full card ordering; a pair
	// compares the higher card of each pair.
	switch len(candidate) {
	case 1:
		return candidate[0].Value() > current[0].Value()
	case 2:
		return maxValue(candidate) > maxValue(current)
	}
	return false
}

func maxValue(cards []Card) int {
	max := -1
	for _, c := range cards {
		if v := c.Value(); v > max {
			max = v
		}
	}
	return max
}

// LegalPlays enumerates every play available from hand against the
// current play: all singles, all same-rank pairs, and every contiguous
// five-card window of the sorted hand that classifies as a valid
// combination. With a current play in force only beating plays are
// returned, and sizes that cannot match it are skipped. Cheapest
// cardinality comes first.
func LegalPlays(hand []Card, current []Card) [][]Card {
	sorted := make([]Card, len(hand))
	copy(sorted, hand)
	SortHand(sorted)

	open := len(current) == 0
	var plays [][]Card

	if open || len(current) == 1 {
		for _, c := range sorted {
			single := []Card{c}
			if open || Beats(single, current) {
				plays = append(plays, single)
			}
		}
	}

	if open || len(current) == 2 {
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[i].Rank != sorted[j].Rank {
					continue
				}
				pair := []Card{sorted[i], sorted[j]}
				if open || Beats(pair, current) {
					plays = append(plays, pair)
				}
			}
		}
	}

	if open || len(current) == 5 {
		for i := 0; i+5 <= len(sorted); i++ {
			window := make([]Card, 5)
			copy(window, sorted[i:i+5])
			if open {
				if Classify(window).Shape != ShapeInvalid {
					plays = append(plays, window)
				}
			} else if Beats(window, current) {
				plays = append(plays, window)
			}
		}
	}

	return plays
}
