// Package ws exposes a party over a WebSocket: one hub goroutine per
// party owns the table, applies actions through the app service, drives
// seated bots, and mirrors every accepted mutation to the party store.
package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

// request pairs an inbound message with its origin connection.
type request struct {
	origin *client
	msg    InMsg
}

// botFire is a think-delay timer expiry. Version pins the snapshot the
// timer was scheduled against; a mismatch on arrival means the timer is
// stale and is dropped.
type botFire struct {
	seat    int
	version int64
}

type Hub struct {
	partyID string
	svc     *app.Service
	store   ports.PartyStore
	brain   bot.Brain
	rng     *rand.Rand
	log     *zap.Logger

	table *domain.TableState

	pollInterval time.Duration
	botMinDelay  time.Duration
	botMaxDelay  time.Duration

	clients    map[*client]string
	register   chan *client
	unregister chan *client
	requests   chan request
	botFires   chan botFire
	done       chan struct{}
	stopOnce   sync.Once
}

type HubOptions struct {
	PollInterval time.Duration
	BotMinDelay  time.Duration
	BotMaxDelay  time.Duration
	// BotPassChance applies to the default brain only; zero keeps the
	// policy default.
	BotPassChance float64
	BotBrain      bot.Brain
	Rng           *rand.Rand
}

func NewHub(partyID string, table *domain.TableState, svc *app.Service, store ports.PartyStore, log *zap.Logger, opts HubOptions) *Hub {
	if opts.Rng == nil {
		opts.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.BotBrain == nil {
		brain := bot.NewHeuristicBrain(opts.Rng)
		if opts.BotPassChance > 0 {
			brain = brain.WithPassChance(opts.BotPassChance)
		}
		opts.BotBrain = brain
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BotMinDelay <= 0 {
		opts.BotMinDelay = bot.MinThinkDelay
	}
	if opts.BotMaxDelay < opts.BotMinDelay {
		opts.BotMaxDelay = bot.MaxThinkDelay
	}
	return &Hub{
		partyID:      partyID,
		svc:          svc,
		store:        store,
		brain:        opts.BotBrain,
		rng:          opts.Rng,
		log:          log.With(zap.String("party", partyID)),
		table:        table,
		pollInterval: opts.PollInterval,
		botMinDelay:  opts.BotMinDelay,
		botMaxDelay:  opts.BotMaxDelay,
		clients:      make(map[*client]string),
		register:     make(chan *client),
		unregister:   make(chan *client),
		requests:     make(chan request, 16),
		botFires:     make(chan botFire, 4),
		done:         make(chan struct{}),
	}
}

// Run owns the hub until Stop. All table access happens on this
// goroutine.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	h.scheduleBot()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = c.name
			h.sendState(c)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case req := <-h.requests:
			h.handle(req)

		case fire := <-h.botFires:
			h.handleBotFire(fire)

		case <-ticker.C:
			h.reloadFromStore()

		case <-h.done:
			for c := range h.clients {
				close(c.send)
			}
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client. Safe to call
// more than once.
func (h *Hub) Stop() { h.stopOnce.Do(func() { close(h.done) }) }

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) handle(req request) {
	c, msg := req.origin, req.msg
	var err error

	switch msg.T {
	case MsgJoin:
		var p JoinPayload
		if err = json.Unmarshal(msg.P, &p); err == nil {
			if err = h.svc.AddPlayer(h.table, p.Name, false); err == nil {
				c.name = p.Name
				h.clients[c] = p.Name
			}
		}

	case MsgAddBot:
		var p JoinPayload
		if err = json.Unmarshal(msg.P, &p); err == nil {
			err = h.svc.AddPlayer(h.table, p.Name, true)
		}

	case MsgStart, MsgNewGame:
		_, err = h.svc.Deal(h.table)

	case MsgPlay:
		var p PlayPayload
		if err = json.Unmarshal(msg.P, &p); err == nil {
			seat := h.table.SeatOf(c.name)
			_, err = h.svc.PlayIndices(h.table, seat, p.Indices)
		}

	case MsgPass:
		seat := h.table.SeatOf(c.name)
		_, err = h.svc.Pass(h.table, seat)

	case MsgLeave:
		if err = h.svc.RemovePlayer(h.table, c.name); err == nil && len(h.table.Players) == 0 {
			// Last player out deletes the party.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if derr := h.store.Delete(ctx, h.partyID); derr != nil {
				h.log.Warn("delete empty party failed", zap.Error(derr))
			}
			cancel()
			h.broadcast()
			h.Stop()
			return
		}

	case MsgState:
		h.sendState(c)
		return

	default:
		c.sendMsg(OutMsg{T: MsgError, ReqID: msg.ReqID, P: ErrPayload{Code: "unknown", Msg: "unknown message type " + msg.T}})
		return
	}

	if err != nil {
		c.sendMsg(OutMsg{T: MsgError, ReqID: msg.ReqID, P: ErrPayload{Code: "rejected", Msg: err.Error()}})
		return
	}

	h.persist()
	h.broadcast()
	h.scheduleBot()
}

// handleBotFire applies a scheduled bot move unless the table moved on
// while the timer was pending.
func (h *Hub) handleBotFire(fire botFire) {
	if fire.version != h.table.Version {
		return
	}
	t := h.table
	if !t.Started || t.GameOver() || t.CurrentTurn != fire.seat || !t.Players[fire.seat].IsComputer {
		return
	}

	mv := h.brain.ChooseMove(t, fire.seat)
	var err error
	if mv.Pass {
		_, err = h.svc.Pass(t, fire.seat)
		if err == app.ErrCannotPassOpen {
			// The policy pass collided with an open table; shed instead.
			if plays := h.svc.LegalActions(t, fire.seat); len(plays) > 0 {
				_, err = h.svc.Play(t, fire.seat, plays[0])
			}
		}
	} else {
		_, err = h.svc.Play(t, fire.seat, mv.Cards)
	}
	if err != nil {
		h.log.Warn("bot move rejected", zap.Int("seat", fire.seat), zap.Error(err))
		return
	}

	h.persist()
	h.broadcast()
	h.scheduleBot()
}

// scheduleBot arms a think-delay timer when the acting seat is a bot.
func (h *Hub) scheduleBot() {
	t := h.table
	if !t.Started || t.GameOver() {
		return
	}
	seat := t.CurrentTurn
	if seat < 0 || seat >= len(t.Players) || !t.Players[seat].IsComputer {
		return
	}
	delay := h.botMinDelay + time.Duration(h.rng.Float64()*float64(h.botMaxDelay-h.botMinDelay))
	fire := botFire{seat: seat, version: t.Version}
	time.AfterFunc(delay, func() {
		select {
		case h.botFires <- fire:
		case <-h.done:
		}
	})
}

// reloadFromStore adopts a newer snapshot written by another process.
func (h *Hub) reloadFromStore() {
	ctx, cancel := context.WithTimeout(context.Background(), h.pollInterval)
	defer cancel()
	t, err := h.store.Load(ctx, h.partyID)
	if err != nil {
		if err != ports.ErrPartyNotFound {
			h.log.Warn("store poll failed", zap.Error(err))
		}
		return
	}
	if t.Version <= h.table.Version {
		return
	}
	h.table = t
	h.broadcast()
	h.scheduleBot()
}

func (h *Hub) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.Save(ctx, h.table); err != nil {
		h.log.Error("persist party failed", zap.Error(err))
	}
}

func (h *Hub) broadcast() {
	for c := range h.clients {
		h.sendState(c)
	}
}

func (h *Hub) sendState(c *client) {
	seat := h.table.SeatOf(c.name)
	c.sendMsg(OutMsg{T: MsgStatePush, P: StatePayload{You: seat, Table: h.table.Redacted(seat)}})
}
