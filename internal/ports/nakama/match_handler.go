package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const maxSeats = 4

// Label is the match label advertised for quick-match queries.
type Label struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// MatchState holds the authoritative runtime state for the match.
type MatchState struct {
	Seats     [4]string `json:"seats"` // user IDs, empty string means open
	OwnerSeat int       `json:"owner_seat"`
	Tick      int64     `json:"tick"`

	// Order maps table seat index to user ID for the running game. It
	// is rebuilt on every deal from the occupied Seats in order.
	Order []string `json:"order"`

	BotsEnabled  bool  `json:"bots_enabled"`
	BotMinDelay  int   `json:"bot_min_delay"`
	BotMaxDelay  int   `json:"bot_max_delay"`
	BotWaitUntil int64 `json:"bot_wait_until"`
	// BotWaitVersion pins the snapshot a pending bot delay was armed
	// against; a mismatch re-arms instead of acting.
	BotWaitVersion int64 `json:"bot_wait_version"`

	MatchID   string                      `json:"match_id"`
	Table     *domain.TableState          `json:"-"`
	Presences map[string]runtime.Presence `json:"-"`
	App       *app.Service                `json:"-"`
	Brain     bot.Brain                   `json:"-"`
	Store     ports.PartyStore            `json:"-"`

	rng *rand.Rand
}

func (ms *MatchState) OpenSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) OccupiedSeatCount() int {
	return maxSeats - ms.OpenSeatCount()
}

func (ms *MatchState) HumanCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserID(seat) {
			count++
		}
	}
	return count
}

// tableSeatOf returns the in-game seat for a user, or -1 while in the
// lobby or for spectators.
func (ms *MatchState) tableSeatOf(userID string) int {
	for i, id := range ms.Order {
		if id == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) inGame() bool {
	return ms.Table != nil && ms.Table.Started && !ms.Table.GameOver()
}

func isBotUserID(userID string) bool {
	return strings.HasPrefix(userID, "bot:")
}

func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !isBotUserID(userID) {
			return i
		}
	}
	return -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		OwnerSeat:   -1,
		MatchID:     matchID,
		Presences:   make(map[string]runtime.Presence),
		App:         app.NewService(rng),
		Brain:       bot.NewHeuristicBrain(rng),
		Store:       NewPartyStoreAdapter(nk),
		BotsEnabled: true,
		BotMinDelay: 1,
		BotMaxDelay: 2,
		rng:         rng,
	}

	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["bigtwo_bots_enabled"]; ok {
			state.BotsEnabled = val == "true"
		}
		if val, ok := env["bigtwo_bot_min_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.BotMinDelay = i
			}
		}
		if val, ok := env["bigtwo_bot_max_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i >= state.BotMinDelay {
				state.BotMaxDelay = i
			}
		}
	}

	label := Label{Open: maxSeats, Game: MatchNameBigTwo, Phase: "lobby"}
	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if matchState.OpenSeatCount() <= 0 {
		hasBot := false
		if !matchState.inGame() {
			for _, seat := range matchState.Seats {
				if isBotUserID(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && !matchState.inGame() {
			for i, seatUserID := range matchState.Seats {
				if isBotUserID(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with %s in seat %d", seatUserID, p.GetUserId(), i)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
		}
	}

	if matchState.OwnerSeat < 0 || !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	mh.sendHands(matchState, dispatcher, logger)

	return matchState
}

func isHumanSeat(seats []string, seat int) bool {
	if seat < 0 || seat >= len(seats) {
		return false
	}
	return seats[seat] != "" && !isBotUserID(seats[seat])
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		for i, seatUserID := range matchState.Seats {
			if seatUserID == p.GetUserId() {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
				break
			}
		}
	}

	matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])

	if matchState.OwnerSeat < 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		if matchState.Table != nil {
			if err := matchState.Store.Delete(ctx, matchState.Table.PartyID); err != nil {
				logger.Warn("MatchLeave: Failed to delete stored party: %v", err)
			}
		}
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame, OpRequestNewGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCards:
			mh.handlePlayCards(ctx, matchState, dispatcher, logger, msg)
		case OpPassTurn:
			mh.handlePassTurn(ctx, matchState, dispatcher, logger, msg)
		case OpAddBot:
			mh.handleAddBot(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

type playCardsRequest struct {
	Indices []int `json:"indices"`
}

type errorPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if state.inGame() {
		mh.sendError(state, dispatcher, logger, senderID, "in_game", "game already in progress")
		return
	}
	if seat := seatOfUser(state.Seats[:], senderID); seat != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, senderID, "not_owner", "only the owner can start the game")
		return
	}

	occupied := make([]string, 0, maxSeats)
	for _, userID := range state.Seats {
		if userID != "" {
			occupied = append(occupied, userID)
		}
	}
	if len(occupied) < app.MinPlayersToDeal {
		mh.sendError(state, dispatcher, logger, senderID, "too_few", app.ErrTooFewPlayers.Error())
		return
	}

	// Rebuild the table from the current seat occupancy; a rematch with
	// the same roster keeps its table and just redeals.
	if state.Table == nil || !sameRoster(state.Order, occupied) {
		table := state.App.NewParty(state.MatchID, mh.displayName(state, occupied[0]))
		for _, userID := range occupied[1:] {
			if err := state.App.AddPlayer(table, mh.displayName(state, userID), isBotUserID(userID)); err != nil {
				mh.sendError(state, dispatcher, logger, senderID, "seat", err.Error())
				return
			}
		}
		state.Table = table
		state.Order = occupied
	}

	events, err := state.App.Deal(state.Table)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, "start", err.Error())
		return
	}

	logger.Info("StartGame: Dealt %d players, seat %d opens.", len(state.Table.Players), state.Table.CurrentTurn)
	mh.afterMutation(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.inGame() {
		mh.sendError(state, dispatcher, logger, senderID, "no_game", app.ErrGameNotStarted.Error())
		return
	}

	var req playCardsRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, "bad_payload", "invalid play payload")
		return
	}

	seat := state.tableSeatOf(senderID)
	events, err := state.App.PlayIndices(state.Table, seat, req.Indices)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, "rejected", err.Error())
		return
	}

	mh.afterMutation(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePassTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.inGame() {
		mh.sendError(state, dispatcher, logger, senderID, "no_game", app.ErrGameNotStarted.Error())
		return
	}

	seat := state.tableSeatOf(senderID)
	events, err := state.App.Pass(state.Table, seat)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, "rejected", err.Error())
		return
	}

	mh.afterMutation(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleAddBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.inGame() {
		mh.sendError(state, dispatcher, logger, senderID, "in_game", "cannot add a bot mid-game")
		return
	}

	for i, seatUserID := range state.Seats {
		if seatUserID == "" {
			state.Seats[i] = fmt.Sprintf("bot:%d", i+1)
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastSnapshot(state, dispatcher, logger)
			return
		}
	}
	mh.sendError(state, dispatcher, logger, senderID, "full", app.ErrPartyFull.Error())
}

// processBots drives the seated bot whose turn it is, after a 1-2
// second think delay measured in ticks.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.inGame() {
		state.BotWaitUntil = 0
		return
	}

	t := state.Table
	currentUserID := ""
	if t.CurrentTurn >= 0 && t.CurrentTurn < len(state.Order) {
		currentUserID = state.Order[t.CurrentTurn]
	}
	if !isBotUserID(currentUserID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 || state.BotWaitVersion != t.Version {
		delay := state.rng.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		state.BotWaitVersion = t.Version
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	seat := t.CurrentTurn
	mv := state.Brain.ChooseMove(t, seat)
	var (
		events []app.Event
		err    error
	)
	if mv.Pass {
		events, err = state.App.Pass(t, seat)
		if err == app.ErrCannotPassOpen {
			if plays := state.App.LegalActions(t, seat); len(plays) > 0 {
				events, err = state.App.Play(t, seat, plays[0])
			}
		}
	} else {
		events, err = state.App.Play(t, seat, mv.Cards)
	}
	if err != nil {
		logger.Error("processBots: Bot %s move rejected: %v", currentUserID, err)
		return
	}

	mh.afterMutation(ctx, state, dispatcher, logger, events)
}

// afterMutation persists the table, refreshes the label, and fans the
// service events out to the connected clients.
func (mh *matchHandler) afterMutation(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	if err := state.Store.Save(ctx, state.Table); err != nil {
		logger.Warn("afterMutation: Failed to persist party: %v", err)
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)

	for _, ev := range events {
		mh.dispatchEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) dispatchEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var op int64
	switch ev.Kind {
	case app.EventGameStarted:
		// The snapshot broadcast already carries the fresh game.
		return
	case app.EventHandDealt:
		payload := ev.Payload.(app.HandDealtPayload)
		mh.sendHandTo(state, dispatcher, logger, payload)
		return
	case app.EventCardPlayed:
		op = OpCardPlayed
	case app.EventTurnPassed:
		op = OpTurnPassed
	case app.EventTurnChanged:
		op = OpTurnChanged
	case app.EventRoundClosed:
		op = OpRoundClosed
	case app.EventPlayerFinished:
		op = OpPlayerFinished
	case app.EventGameEnded:
		op = OpGameEnded
	default:
		return
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("dispatchEvent: Failed to marshal %s payload: %v", ev.Kind, err)
		return
	}
	if err := dispatcher.BroadcastMessage(op, data, nil, nil, true); err != nil {
		logger.Error("dispatchEvent: Broadcast failed: %v", err)
	}
}

// sendHands re-sends private hands, used when a presence (re)joins a
// running game.
func (mh *matchHandler) sendHands(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Table == nil || !state.Table.Started {
		return
	}
	for seat, p := range state.Table.Players {
		mh.sendHandTo(state, dispatcher, logger, app.HandDealtPayload{Seat: seat, Name: p.Name, Hand: p.Hand})
	}
}

func (mh *matchHandler) sendHandTo(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, payload app.HandDealtPayload) {
	if payload.Seat < 0 || payload.Seat >= len(state.Order) {
		return
	}
	presence, ok := state.Presences[state.Order[payload.Seat]]
	if !ok {
		return // bot or disconnected seat
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("sendHandTo: Failed to marshal hand: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpHandDealt, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendHandTo: Send failed: %v", err)
	}
}

type snapshotPayload struct {
	Seats     []string           `json:"seats"`
	OwnerSeat int                `json:"owner_seat"`
	Tick      int64              `json:"tick"`
	Table     *domain.TableState `json:"table,omitempty"`
}

// broadcastSnapshot sends the public view: seat roster plus the table
// with every hand redacted to counts. Private hands travel separately.
func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snapshot := snapshotPayload{
		Seats:     state.Seats[:],
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
	}
	if state.Table != nil {
		snapshot.Table = state.Table.Redacted(-1)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("broadcastSnapshot: Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true); err != nil {
		logger.Error("broadcastSnapshot: Broadcast failed: %v", err)
	}
}

func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, code, msg string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(errorPayload{Code: code, Msg: msg})
	if err != nil {
		return
	}
	if err := dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: Send failed: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	if state.inGame() {
		phase = "playing"
	} else if state.Table != nil && state.Table.GameOver() {
		phase = "ended"
	}
	label := Label{Open: state.OpenSeatCount(), Game: MatchNameBigTwo, Phase: phase}
	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("updateLabel: Failed to marshal label: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Label update failed: %v", err)
	}
}

func (mh *matchHandler) displayName(state *MatchState, userID string) string {
	if p, ok := state.Presences[userID]; ok {
		if name := p.GetUsername(); name != "" {
			return name
		}
	}
	if isBotUserID(userID) {
		return "Bot " + strings.TrimPrefix(userID, "bot:")
	}
	return userID
}

func sameRoster(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func seatOfUser(seats []string, userID string) int {
	for i, id := range seats {
		if id == userID {
			return i
		}
	}
	return -1
}
