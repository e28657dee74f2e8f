package nakama

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame      int64 = 1
	OpPlayCards      int64 = 2
	OpPassTurn       int64 = 3
	OpRequestNewGame int64 = 4
	OpAddBot         int64 = 5

	// Server -> Client events
	OpMatchState     int64 = 101
	OpHandDealt      int64 = 102 // sent privately
	OpCardPlayed     int64 = 103
	OpTurnPassed     int64 = 104
	OpTurnChanged    int64 = 105
	OpRoundClosed    int64 = 106
	OpPlayerFinished int64 = 107
	OpGameEnded      int64 = 108
	OpError          int64 = 109
)
