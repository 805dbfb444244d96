package game

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unoroom/internal/deck"
	"unoroom/internal/errs"
	"unoroom/internal/models"
)

func newTestEngine() *TurnEngine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewTurnEngine(logger)
}

func testRoster(n int) []models.RoomPlayer {
	roster := make([]models.RoomPlayer, n)
	for i := range roster {
		roster[i] = models.RoomPlayer{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("player%d", i),
			JoinedAt: time.Now(),
		}
	}
	roster[0].IsHost = true
	return roster
}

// snapshotCount totals every card reachable from a snapshot.
func snapshotCount(st models.GameState) int {
	total := len(st.DrawPile) + len(st.DiscardPile)
	for _, p := range st.Players {
		total += len(p.Hand)
	}
	return total
}

func TestInitializeDealsSevenEach(t *testing.T) {
	for _, n := range []int{2, 4, 8} {
		t.Run(fmt.Sprintf("%d_players", n), func(t *testing.T) {
			e := newTestEngine()
			st, err := e.Initialize(testRoster(n))
			require.NoError(t, err)

			require.Len(t, st.Players, n)
			for _, p := range st.Players {
				assert.Len(t, p.Hand, DefaultHandSize)
				assert.False(t, p.HasCalledUno)
			}
			require.NotNil(t, st.TopCard)
			assert.Len(t, st.DiscardPile, 1)
			assert.Equal(t, deck.Size, snapshotCount(st), "every card accounted for")
			assert.Equal(t, models.PhasePlaying, st.GamePhase)
			assert.Equal(t, models.Clockwise, st.Direction)
			assert.Equal(t, 0, st.CurrentPlayerIndex)
			assert.Equal(t, int64(1), st.Seq)
		})
	}
}

func TestInitializeTwoPlayerPileSizes(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	assert.Len(t, st.DrawPile, deck.Size-2*DefaultHandSize-1)
	require.Len(t, st.DiscardPile, 1)
	assert.Equal(t, st.TopCard.ID, st.DiscardPile[0].ID)
}

func TestInitializeCardIDsUnique(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(3))
	require.NoError(t, err)

	seen := make(map[uuid.UUID]bool, deck.Size)
	track := func(cards []models.Card) {
		for _, c := range cards {
			require.False(t, seen[c.ID], "card %s dealt twice", c.ID)
			seen[c.ID] = true
		}
	}
	for _, p := range st.Players {
		track(p.Hand)
	}
	track(st.DrawPile)
	track(st.DiscardPile)
	assert.Len(t, seen, deck.Size)
}

func TestInitializeStarterSkipsActionCards(t *testing.T) {
	// The starter must be a number card whenever one exists past the dealt
	// boundary; otherwise the first card past the boundary is used as-is, in
	// which case the whole remainder is action/wild cards.
	for i := 0; i < 20; i++ {
		e := newTestEngine()
		st, err := e.Initialize(testRoster(2))
		require.NoError(t, err)

		if st.TopCard.IsNumber() {
			continue
		}
		for _, c := range st.DrawPile {
			assert.False(t, c.IsNumber(), "non-number starter while a number card remained")
		}
	}
}

func TestInitializeRejectsSinglePlayer(t *testing.T) {
	e := newTestEngine()
	_, err := e.Initialize(testRoster(1))
	assert.ErrorIs(t, err, errs.InsufficientPlayers)
	assert.False(t, e.Active())
}

func TestInitializeRejectsOversizedRoster(t *testing.T) {
	// 16 players would need 112 cards plus a starter; one deck holds 108.
	e := newTestEngine()
	_, err := e.Initialize(testRoster(16))
	require.Error(t, err)
	assert.False(t, e.Active())

	// 15 is the largest roster a single deck can seat.
	_, err = e.Initialize(testRoster(15))
	require.NoError(t, err)
}

func TestApplyPlayAdvancesTurn(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(3))
	require.NoError(t, err)

	current := st.Players[0]
	card := current.Hand[0]
	next, err := e.ApplyPlay(current.ID, card.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, card.ID, next.TopCard.ID)
	assert.Len(t, next.Players[0].Hand, DefaultHandSize-1)
	assert.Len(t, next.DiscardPile, 2)
	assert.Equal(t, deck.Size, snapshotCount(next))
	assert.Equal(t, st.Seq+1, next.Seq)
}

func TestApplyPlayCounterClockwise(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(4))
	require.NoError(t, err)
	e.state.Direction = models.CounterClockwise

	next, err := e.ApplyPlay(st.Players[0].ID, st.Players[0].Hand[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, next.CurrentPlayerIndex, "index wraps backwards")
}

func TestApplyPlayRejectsOutOfTurn(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	other := st.Players[1]
	_, err = e.ApplyPlay(other.ID, other.Hand[0].ID, nil)
	assert.ErrorIs(t, err, errs.NotYourTurn)

	after, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, st, after, "rejected play must leave state untouched")
}

func TestApplyPlayRejectsMissingCard(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	_, err = e.ApplyPlay(st.Players[0].ID, uuid.New(), nil)
	assert.ErrorIs(t, err, errs.CardNotInHand)

	after, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, st, after)
}

func TestApplyPlayWildColorBinding(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	wild := models.Card{ID: uuid.New(), Color: models.ColorWild, Type: models.TypeWild, Value: -1}
	e.state.Players[0].Hand = append(e.state.Players[0].Hand, wild)

	blue := models.ColorBlue
	next, err := e.ApplyPlay(st.Players[0].ID, wild.ID, &blue)
	require.NoError(t, err)
	require.NotNil(t, next.WildColor)
	assert.Equal(t, models.ColorBlue, *next.WildColor)

	// A non-wild play clears the binding.
	colored := models.Card{ID: uuid.New(), Color: models.ColorGreen, Type: models.TypeNumber, Value: 4}
	e.state.Players[1].Hand = append(e.state.Players[1].Hand, colored)
	next, err = e.ApplyPlay(next.Players[1].ID, colored.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, next.WildColor)
}

func TestApplyPlayWildDefaultsToRed(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	wild := models.Card{ID: uuid.New(), Color: models.ColorWild, Type: models.TypeWildDrawFour, Value: -1}
	e.state.Players[0].Hand = append(e.state.Players[0].Hand, wild)

	next, err := e.ApplyPlay(st.Players[0].ID, wild.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, next.WildColor)
	assert.Equal(t, models.ColorRed, *next.WildColor)
}

func TestApplyPlayLastCardWins(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	last := e.state.Players[0].Hand[0]
	e.state.Players[0].Hand = []models.Card{last}

	next, err := e.ApplyPlay(st.Players[0].ID, last.ID, nil)
	require.NoError(t, err)

	require.NotNil(t, next.Winner)
	assert.Equal(t, st.Players[0].ID, *next.Winner)
	assert.Equal(t, models.PhaseFinished, next.GamePhase)
	assert.Equal(t, 0, next.CurrentPlayerIndex, "turn must not advance past a win")

	// Finished games accept no further actions.
	_, err = e.ApplyPlay(next.Players[1].ID, next.Players[1].Hand[0].ID, nil)
	assert.ErrorIs(t, err, errs.GameNotActive)
}

func TestApplyDrawConservation(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	pileBefore := len(st.DrawPile)
	expected := st.DrawPile[pileBefore-1]

	drawn, next, err := e.ApplyDraw(st.Players[0].ID, 1)
	require.NoError(t, err)
	require.Len(t, drawn, 1)
	assert.Equal(t, expected.ID, drawn[0].ID, "draws come from the tail")
	assert.Len(t, next.DrawPile, pileBefore-1)
	assert.Len(t, next.Players[0].Hand, DefaultHandSize+1)
	assert.Equal(t, deck.Size, snapshotCount(next))
}

func TestApplyDrawClampsToPile(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	e.state.DrawPile = e.state.DrawPile[:2]
	drawn, next, err := e.ApplyDraw(st.Players[1].ID, 5)
	require.NoError(t, err)
	assert.Len(t, drawn, 2)
	assert.Empty(t, next.DrawPile)

	// An empty pile yields an empty draw, not an error.
	drawn, _, err = e.ApplyDraw(st.Players[1].ID, 1)
	require.NoError(t, err)
	assert.Empty(t, drawn)
}

func TestApplyDrawIgnoresTurnOrder(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(3))
	require.NoError(t, err)

	// Player 2 is not the current player but may still draw.
	drawn, next, err := e.ApplyDraw(st.Players[2].ID, 2)
	require.NoError(t, err)
	assert.Len(t, drawn, 2)
	assert.Equal(t, 0, next.CurrentPlayerIndex)
}

func TestApplyDrawRejectsUnknownPlayer(t *testing.T) {
	e := newTestEngine()
	_, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	_, _, err = e.ApplyDraw(uuid.New(), 1)
	assert.ErrorIs(t, err, errs.PlayerNotFound)
}

func TestApplyUnoCallOnlyAtOneCard(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	// Seven cards in hand: the call is a no-op and does not bump the sequence.
	next, err := e.ApplyUnoCall(st.Players[0].ID)
	require.NoError(t, err)
	assert.False(t, next.Players[0].HasCalledUno)
	assert.Equal(t, st.Seq, next.Seq)

	e.state.Players[0].Hand = e.state.Players[0].Hand[:1]
	next, err = e.ApplyUnoCall(st.Players[0].ID)
	require.NoError(t, err)
	assert.True(t, next.Players[0].HasCalledUno)
	assert.Equal(t, st.Seq+1, next.Seq)

	// Repeat calls change nothing further.
	again, err := e.ApplyUnoCall(st.Players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, next.Seq, again.Seq)
}

func TestBroadcastOnAcceptedActionsOnly(t *testing.T) {
	e := newTestEngine()
	var broadcasts []models.GameState
	e.BroadcastFn = func(st models.GameState) {
		broadcasts = append(broadcasts, st)
	}

	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)
	require.Len(t, broadcasts, 1)

	_, err = e.ApplyPlay(st.Players[1].ID, st.Players[1].Hand[0].ID, nil)
	require.ErrorIs(t, err, errs.NotYourTurn)
	assert.Len(t, broadcasts, 1, "rejected actions are not broadcast")

	_, err = e.ApplyPlay(st.Players[0].ID, st.Players[0].Hand[0].ID, nil)
	require.NoError(t, err)
	require.Len(t, broadcasts, 2)
	assert.Equal(t, st.Seq+1, broadcasts[1].Seq)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine()
	_, err := e.Initialize(testRoster(2))
	require.NoError(t, err)

	snap, ok := e.Snapshot()
	require.True(t, ok)
	snap.Players[0].Hand[0] = models.Card{ID: uuid.New()}
	snap.DrawPile = snap.DrawPile[:0]

	fresh, ok := e.Snapshot()
	require.True(t, ok)
	assert.Len(t, fresh.Players[0].Hand, DefaultHandSize)
	assert.NotEmpty(t, fresh.DrawPile)
}

func TestResetDiscardsGame(t *testing.T) {
	e := newTestEngine()
	st, err := e.Initialize(testRoster(2))
	require.NoError(t, err)
	require.True(t, e.Active())

	e.Reset()
	assert.False(t, e.Active())
	_, _, err = e.ApplyDraw(st.Players[0].ID, 1)
	assert.ErrorIs(t, err, errs.GameNotActive)
}
