package bot

import "time"

// Policy knobs. Values mirror the table behavior players expect:
// opponents sometimes sit on a beatable play, and they favor cheap
// moves over dumping strong hands early.
const (
	// DefaultPassChance is the probability of passing when a current
	// play exists and the seat has at least one legal answer.
	DefaultPassChance = 0.3

	// CandidatePoolSize caps how many of the cheapest legal plays the
	// policy picks among.
	CandidatePoolSize = 3
)

// Think delay bounds for scheduling an opponent's move.
const (
	MinThinkDelay = 1 * time.Second
	MaxThinkDelay = 2 * time.Second
)

// ThinkDelay returns a uniform delay in [MinThinkDelay, MaxThinkDelay).
func ThinkDelay(randFloat func() float64) time.Duration {
	return MinThinkDelay + time.Duration(randFloat()*float64(MaxThinkDelay-MinThinkDelay))
}
