package models

import "github.com/google/uuid"

// CardColor is one of the four play colors, or "wild" for uncolored cards.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorYellow CardColor = "yellow"
	ColorGreen  CardColor = "green"
	ColorBlue   CardColor = "blue"
	ColorWild   CardColor = "wild"
)

// PlayColors lists the colors a wild card may be bound to.
var PlayColors = []CardColor{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// CardType distinguishes number cards from action and wild cards.
type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "draw_two"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wild_draw_four"
)

// Card is immutable once created. Value is meaningful only for number cards;
// it stays -1 otherwise so a zero-valued number card is distinguishable.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color CardColor `json:"color"`
	Type  CardType  `json:"type"`
	Value int       `json:"value"`
}

// IsNumber reports whether the card is a plain number card.
func (c Card) IsNumber() bool {
	return c.Type == TypeNumber
}

// IsWild reports whether the card requires a color to be chosen when played.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}
