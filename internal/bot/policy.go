package bot

import (
	"math/rand"

	"bigtwo/internal/domain"
)

// HeuristicBrain plays greedy-cheap: it enumerates legal plays in
// ascending cardinality, keeps the first few, and picks one uniformly.
// With a beatable play on the table it sometimes passes anyway.
type HeuristicBrain struct {
	rng        *rand.Rand
	passChance float64
}

// NewHeuristicBrain builds a brain on the given rng (time-seeded when
// nil) with the default pass chance.
func NewHeuristicBrain(rng *rand.Rand) *HeuristicBrain {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &HeuristicBrain{rng: rng, passChance: DefaultPassChance}
}

// WithPassChance overrides the pass probability. Useful at zero for
// deterministic tests.
func (b *HeuristicBrain) WithPassChance(p float64) *HeuristicBrain {
	b.passChance = p
	return b
}

// ChooseMove implements Brain.
func (b *HeuristicBrain) ChooseMove(t *domain.TableState, seat int) Move {
	if seat < 0 || seat >= len(t.Players) {
		return Move{Pass: true}
	}
	hand := t.Players[seat].Hand
	if len(hand) == 0 {
		return Move{Pass: true}
	}

	var current []domain.Card
	if t.CurrentPlay != nil {
		current = t.CurrentPlay.Cards
	}

	plays := domain.LegalPlays(hand, current)
	if current == nil && t.RoundWinner == -1 {
		// Opening play of a fresh game must carry the three of clubs.
		filtered := plays[:0]
		for _, play := range plays {
			if domain.ContainsCard(play, domain.ThreeOfClubs) {
				filtered = append(filtered, play)
			}
		}
		plays = filtered
	}

	if current == nil {
		if len(plays) == 0 {
			// Opening with nothing enumerable: shed the lowest single.
			sorted := append([]domain.Card(nil), hand...)
			domain.SortHand(sorted)
			return Move{Cards: sorted[:1]}
		}
		return Move{Cards: plays[b.rng.Intn(poolSize(plays))]}
	}

	if len(plays) == 0 || b.rng.Float64() < b.passChance {
		return Move{Pass: true}
	}
	return Move{Cards: plays[b.rng.Intn(poolSize(plays))]}
}

func poolSize(plays [][]domain.Card) int {
	if len(plays) > CandidatePoolSize {
		return CandidatePoolSize
	}
	return len(plays)
}
