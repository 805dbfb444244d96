// Package game implements the authoritative turn engine: dealing, turn
// advancement, play/draw/uno application, and win detection.
package game

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoroom/internal/deck"
	"unoroom/internal/errs"
	"unoroom/internal/models"
)

// DefaultHandSize is the number of cards dealt to each player.
const DefaultHandSize = 7

// BroadcastFunc receives a snapshot after every accepted mutation. If nil, no
// broadcast is done.
type BroadcastFunc func(models.GameState)

// TurnEngine owns one game instance at a time. All entry points lock; state
// changes are applied as whole-snapshot mutations under the lock, so callers
// may run on any goroutine.
type TurnEngine struct {
	mu       sync.Mutex
	state    *models.GameState
	handSize int
	log      *logrus.Logger

	// BroadcastFn is invoked (outside state mutation, inside the lock) with a
	// deep-copied snapshot after each accepted action.
	BroadcastFn BroadcastFunc
}

// NewTurnEngine builds an engine with no active game.
func NewTurnEngine(logger *logrus.Logger) *TurnEngine {
	if logger == nil {
		logger = logrus.New()
	}
	return &TurnEngine{
		handSize: DefaultHandSize,
		log:      logger,
	}
}

// Initialize shuffles a fresh deck, deals handSize cards per roster member
// round-robin, seeds the discard pile with the starter card, and enters the
// playing phase. Any previous game state is discarded.
//
// The starter is the first number card past the dealt boundary; action cards
// are skipped so the first turn never begins under an ambiguous effect. If no
// number card remains, the first card past the boundary is used as-is.
func (e *TurnEngine) Initialize(roster []models.RoomPlayer) (models.GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(roster) < 2 {
		return models.GameState{}, errs.InsufficientPlayers
	}

	cards := deck.Shuffle(deck.Build())

	// The deal plus the starter card must fit in one deck.
	if len(roster)*e.handSize >= len(cards) {
		return models.GameState{}, errs.Invalid("cannot deal %d cards to %d players from a %d-card deck",
			e.handSize, len(roster), len(cards))
	}

	st := &models.GameState{
		Seq:       1,
		GamePhase: models.PhaseDealing,
		Direction: models.Clockwise,
	}

	st.Players = make([]models.Player, len(roster))
	for i, rp := range roster {
		st.Players[i] = models.Player{
			ID:      rp.ID,
			Name:    rp.Name,
			IsHuman: true,
			Hand:    make([]models.Card, 0, e.handSize),
		}
	}

	// Round-robin deal in roster order.
	idx := 0
	for round := 0; round < e.handSize; round++ {
		for p := range st.Players {
			st.Players[p].Hand = append(st.Players[p].Hand, cards[idx])
			idx++
		}
	}

	// Scan forward from the dealt boundary for a number card to start on.
	topIdx := idx
	for i := idx; i < len(cards); i++ {
		if cards[i].IsNumber() {
			topIdx = i
			break
		}
	}
	top := cards[topIdx]
	st.TopCard = &top
	st.DiscardPile = []models.Card{top}

	st.DrawPile = make([]models.Card, 0, len(cards)-idx-1)
	for i := idx; i < len(cards); i++ {
		if i == topIdx {
			continue
		}
		st.DrawPile = append(st.DrawPile, cards[i])
	}

	st.CurrentPlayerIndex = 0
	st.GamePhase = models.PhasePlaying
	e.state = st

	e.log.WithFields(logrus.Fields{
		"players":   len(roster),
		"draw_pile": len(st.DrawPile),
		"top_card":  top.ID,
	}).Info("game initialized")

	snap := e.snapshotLocked()
	e.broadcastLocked(snap)
	return snap, nil
}

// Reset discards the active game, if any.
func (e *TurnEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = nil
}

// ApplyPlay plays the card with the given id from the current player's hand.
// For wild cards the chosen color is bound; a missing choice defaults to red.
// Rejections leave the state untouched.
func (e *TurnEngine) ApplyPlay(playerID, cardID uuid.UUID, chosenColor *models.CardColor) (models.GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	if st == nil || st.GamePhase != models.PhasePlaying {
		return models.GameState{}, errs.GameNotActive
	}
	cur := st.CurrentPlayer()
	if cur == nil || cur.ID != playerID {
		return models.GameState{}, errs.NotYourTurn
	}

	cardIdx := -1
	for i, c := range cur.Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return models.GameState{}, errs.CardNotInHand
	}

	card := cur.Hand[cardIdx]
	cur.Hand = append(cur.Hand[:cardIdx], cur.Hand[cardIdx+1:]...)
	st.DiscardPile = append(st.DiscardPile, card)
	st.TopCard = &card

	if card.IsWild() {
		color := models.ColorRed
		if chosenColor != nil {
			color = *chosenColor
		}
		st.WildColor = &color
	} else {
		st.WildColor = nil
	}

	if len(cur.Hand) == 0 {
		winner := cur.ID
		st.Winner = &winner
		st.GamePhase = models.PhaseFinished
		e.log.WithFields(logrus.Fields{
			"winner": winner,
			"card":   card.ID,
		}).Info("game finished")
	} else {
		e.advanceTurnLocked()
	}

	st.Seq++
	snap := e.snapshotLocked()
	e.broadcastLocked(snap)
	return snap, nil
}

// ApplyDraw moves up to count cards from the tail of the draw pile into the
// player's hand and returns them. Fewer (possibly zero) are returned when the
// pile runs dry.
//
// Unlike ApplyPlay there is no turn-ownership check: the observed protocol
// lets any seated player draw out of turn, and that asymmetry is kept.
func (e *TurnEngine) ApplyDraw(playerID uuid.UUID, count int) ([]models.Card, models.GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	if st == nil || st.GamePhase != models.PhasePlaying {
		return nil, models.GameState{}, errs.GameNotActive
	}
	idx := st.FindGamePlayer(playerID)
	if idx < 0 {
		return nil, models.GameState{}, errs.PlayerNotFound
	}

	if count < 0 {
		count = 0
	}
	if count > len(st.DrawPile) {
		count = len(st.DrawPile)
	}
	drawn := make([]models.Card, count)
	for i := 0; i < count; i++ {
		last := len(st.DrawPile) - 1
		drawn[i] = st.DrawPile[last]
		st.DrawPile = st.DrawPile[:last]
	}
	st.Players[idx].Hand = append(st.Players[idx].Hand, drawn...)

	st.Seq++
	snap := e.snapshotLocked()
	e.broadcastLocked(snap)
	return drawn, snap, nil
}

// ApplyUnoCall marks the player as having called uno, but only while their
// hand holds exactly one card. Anything else is a silent no-op; there is no
// penalty for a premature call.
func (e *TurnEngine) ApplyUnoCall(playerID uuid.UUID) (models.GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	if st == nil || st.GamePhase != models.PhasePlaying {
		return models.GameState{}, errs.GameNotActive
	}
	idx := st.FindGamePlayer(playerID)
	if idx < 0 {
		return models.GameState{}, errs.PlayerNotFound
	}

	if len(st.Players[idx].Hand) == 1 && !st.Players[idx].HasCalledUno {
		st.Players[idx].HasCalledUno = true
		st.Seq++
		e.log.WithField("player_id", playerID).Debug("uno called")
		snap := e.snapshotLocked()
		e.broadcastLocked(snap)
		return snap, nil
	}
	return e.snapshotLocked(), nil
}

// Snapshot returns a deep copy of the active game state.
func (e *TurnEngine) Snapshot() (models.GameState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return models.GameState{}, false
	}
	return e.snapshotLocked(), true
}

// Active reports whether a game is initialized and not yet discarded.
func (e *TurnEngine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != nil
}

func (e *TurnEngine) advanceTurnLocked() {
	st := e.state
	n := len(st.Players)
	if n == 0 {
		return
	}
	step := 1
	if st.Direction == models.CounterClockwise {
		step = -1
	}
	st.CurrentPlayerIndex = ((st.CurrentPlayerIndex+step)%n + n) % n
}

func (e *TurnEngine) snapshotLocked() models.GameState {
	return CloneState(*e.state)
}

func (e *TurnEngine) broadcastLocked(snap models.GameState) {
	if e.BroadcastFn != nil {
		e.BroadcastFn(snap)
	}
}

// CloneState deep-copies a game state so receivers can hold it without
// aliasing the engine's slices.
func CloneState(st models.GameState) models.GameState {
	out := st
	out.Players = make([]models.Player, len(st.Players))
	for i, p := range st.Players {
		out.Players[i] = p
		out.Players[i].Hand = append([]models.Card(nil), p.Hand...)
	}
	out.DrawPile = append([]models.Card(nil), st.DrawPile...)
	out.DiscardPile = append([]models.Card(nil), st.DiscardPile...)
	if st.TopCard != nil {
		top := *st.TopCard
		out.TopCard = &top
	}
	if st.WildColor != nil {
		c := *st.WildColor
		out.WildColor = &c
	}
	if st.Winner != nil {
		w := *st.Winner
		out.Winner = &w
	}
	return out
}
