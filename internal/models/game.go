package models

import "github.com/google/uuid"

// GamePhase tracks where a game instance is in its lifecycle. Dealing is
// transient: it only exists inside TurnEngine.Initialize.
type GamePhase string

const (
	PhaseDealing  GamePhase = "dealing"
	PhasePlaying  GamePhase = "playing"
	PhaseFinished GamePhase = "finished"
)

// Direction is the turn-advance direction around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counter_clockwise"
)

// GameState is the authoritative snapshot of one in-progress or finished game.
// Seq increments on every authoritative mutation; receivers drop snapshots
// whose Seq is non-zero and not newer than the last one applied. Seq 0 means
// the sender assigns no sequence numbers and last arrival wins.
type GameState struct {
	Seq                int64      `json:"seq,omitempty"`
	Players            []Player   `json:"players"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	Direction          Direction  `json:"direction"`
	TopCard            *Card      `json:"topCard,omitempty"`
	DrawPile           []Card     `json:"drawPile"`
	DiscardPile        []Card     `json:"discardPile"`
	GamePhase          GamePhase  `json:"gamePhase"`
	WildColor          *CardColor `json:"wildColor,omitempty"`
	Winner             *uuid.UUID `json:"winner,omitempty"`
	IsBlockAllActive   bool       `json:"isBlockAllActive"`
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty roster.
func (g *GameState) CurrentPlayer() *Player {
	if len(g.Players) == 0 || g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// FindGamePlayer returns the index of the seated player with the given id, or -1.
func (g *GameState) FindGamePlayer(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
