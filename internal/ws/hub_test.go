package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports/memstore"
)

// testClient builds a client without a network connection; handle and
// sendState only touch the send queue.
func testClient(name string) *client {
	return &client{name: name, send: make(chan []byte, 32), log: zap.NewNop()}
}

func newTestHub(t *testing.T, hostName string) (*Hub, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := app.NewService(rand.New(rand.NewSource(1)))
	table := svc.NewParty("ROOM", hostName)
	if err := store.Save(context.Background(), table); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	hub := NewHub("ROOM", table, svc, store, zap.NewNop(), HubOptions{
		PollInterval: time.Hour,
		Rng:          rand.New(rand.NewSource(2)),
	})
	return hub, store
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func lastMessage(t *testing.T, c *client) OutMsg {
	t.Helper()
	var last []byte
	for {
		select {
		case b := <-c.send:
			last = b
		default:
			if last == nil {
				t.Fatalf("no message queued")
			}
			var msg OutMsg
			if err := json.Unmarshal(last, &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			return msg
		}
	}
}

func lastState(t *testing.T, c *client) StatePayload {
	t.Helper()
	msg := lastMessage(t, c)
	if msg.T != MsgStatePush {
		t.Fatalf("last message type = %q, want %q", msg.T, MsgStatePush)
	}
	b, err := json.Marshal(msg.P)
	if err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	var st StatePayload
	if err := json.Unmarshal(b, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestHubJoinStartFlow(t *testing.T) {
	hub, store := newTestHub(t, "alice")
	alice := testClient("alice")
	hub.clients[alice] = alice.name

	hub.handle(request{origin: alice, msg: InMsg{T: MsgAddBot, P: raw(t, JoinPayload{Name: "Bot 1"})}})
	hub.handle(request{origin: alice, msg: InMsg{T: MsgAddBot, P: raw(t, JoinPayload{Name: "Bot 2"})}})
	hub.handle(request{origin: alice, msg: InMsg{T: MsgStart}})

	if !hub.table.Started {
		t.Fatalf("table not started")
	}
	if got := len(hub.table.Players); got != 3 {
		t.Fatalf("players = %d, want 3", got)
	}
	for _, p := range hub.table.Players {
		if len(p.Hand) != 17 {
			t.Fatalf("hand size = %d, want 17", len(p.Hand))
		}
	}

	// Mutations must be mirrored to the store.
	saved, err := store.Load(context.Background(), "ROOM")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved.Version != hub.table.Version {
		t.Fatalf("store version = %d, hub version = %d", saved.Version, hub.table.Version)
	}

	// The host sees its own hand and only card counts for bots.
	st := lastState(t, alice)
	if st.You != 0 {
		t.Fatalf("seat = %d, want 0", st.You)
	}
	for i, card := range st.Table.Players[0].Hand {
		if card != hub.table.Players[0].Hand[i] {
			t.Fatalf("own hand altered at %d: %v", i, card)
		}
	}
	// A redacted 17-card hand collapses to 17 zero values; a real one
	// holds 17 distinct cards.
	distinct := make(map[domain.Card]bool)
	for _, card := range st.Table.Players[1].Hand {
		distinct[card] = true
	}
	if len(distinct) != 1 {
		t.Fatalf("bot hand leaked: %d distinct cards", len(distinct))
	}
}

func TestHubRejectionSendsError(t *testing.T) {
	hub, _ := newTestHub(t, "alice")
	alice := testClient("alice")
	hub.clients[alice] = alice.name

	hub.handle(request{origin: alice, msg: InMsg{T: MsgStart, ReqID: "r1"}})

	msg := lastMessage(t, alice)
	if msg.T != MsgError || msg.ReqID != "r1" {
		t.Fatalf("got %+v, want error reply for r1", msg)
	}
}

func TestHubBotFireDiscardsStaleTimer(t *testing.T) {
	hub, _ := newTestHub(t, "alice")
	table := hub.table
	svc := hub.svc
	if err := svc.AddPlayer(table, "Bot 1", true); err != nil {
		t.Fatalf("add bot: %v", err)
	}
	if _, err := svc.Deal(table); err != nil {
		t.Fatalf("deal: %v", err)
	}
	// Arrange a bot turn on an open table past the opening play.
	table.RoundWinner = table.CurrentTurn
	table.CurrentTurn = 1
	table.CurrentPlay = nil

	before := table.Version
	hub.handleBotFire(botFire{seat: 1, version: before - 1})
	if table.Version != before {
		t.Fatalf("stale timer mutated the table")
	}

	hub.handleBotFire(botFire{seat: 1, version: before})
	if table.Version == before {
		t.Fatalf("live timer did not act")
	}
	if table.CurrentPlay == nil {
		t.Fatalf("bot opened a round without a play")
	}
}
