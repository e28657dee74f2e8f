package ws

import (
	"encoding/json"

	"bigtwo/internal/domain"
)

// InMsg is the client-to-server envelope. P carries the typed payload
// for the given T.
type InMsg struct {
	T     string          `json:"t"`
	ReqID string          `json:"reqId,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

// OutMsg is the server-to-client envelope.
type OutMsg struct {
	T     string `json:"t"`
	ReqID string `json:"reqId,omitempty"`
	P     any    `json:"p,omitempty"`
}

type ErrPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Client message types.
const (
	MsgJoin    = "join"
	MsgAddBot  = "addBot"
	MsgStart   = "start"
	MsgPlay    = "play"
	MsgPass    = "pass"
	MsgNewGame = "newGame"
	MsgLeave   = "leave"
	MsgState   = "state"
)

// Server message types.
const (
	MsgStatePush = "state"
	MsgError     = "error"
)

type JoinPayload struct {
	Name string `json:"name"`
}

type PlayPayload struct {
	// Indices into the player's sorted hand.
	Indices []int `json:"indices"`
}

// StatePayload is the per-recipient view of the table. Hands of other
// seats are redacted to counts.
type StatePayload struct {
	You   int                `json:"you"`
	Table *domain.TableState `json:"table"`
}
