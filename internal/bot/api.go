// Package bot holds the opponent decision policy. A Brain inspects a
// table snapshot and proposes one move for its seat; scheduling (think
// delays, staleness checks) belongs to the host surface, not here.
package bot

import "bigtwo/internal/domain"

// Move is a single proposed action. Pass excludes Cards.
type Move struct {
	Pass  bool
	Cards []domain.Card
}

// Brain chooses moves for a seat. Implementations must only read the
// seat's own hand and public table state.
type Brain interface {
	ChooseMove(t *domain.TableState, seat int) Move
}
