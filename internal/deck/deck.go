// Package deck builds and shuffles the canonical 108-card deck.
package deck

import (
	"math/rand"

	"github.com/google/uuid"

	"unoroom/internal/models"
)

// Size is the canonical deck size: per color one 0, two of 1..9, two each of
// skip/reverse/draw-two, plus 4 wilds and 4 wild-draw-fours.
const Size = 108

// Build returns a fresh canonical deck. Card ids are unique within the
// returned slice; composition is deterministic, order is construction order.
func Build() []models.Card {
	cards := make([]models.Card, 0, Size)

	add := func(color models.CardColor, typ models.CardType, value int) {
		cards = append(cards, models.Card{
			ID:    uuid.New(),
			Color: color,
			Type:  typ,
			Value: value,
		})
	}

	for _, color := range models.PlayColors {
		add(color, models.TypeNumber, 0)
		for v := 1; v <= 9; v++ {
			add(color, models.TypeNumber, v)
			add(color, models.TypeNumber, v)
		}
		for i := 0; i < 2; i++ {
			add(color, models.TypeSkip, -1)
			add(color, models.TypeReverse, -1)
			add(color, models.TypeDrawTwo, -1)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.ColorWild, models.TypeWild, -1)
		add(models.ColorWild, models.TypeWildDrawFour, -1)
	}
	return cards
}

// Shuffle returns a uniformly random permutation of cards without mutating
// the input. Fisher-Yates via rand.Shuffle.
func Shuffle(cards []models.Card) []models.Card {
	out := make([]models.Card, len(cards))
	copy(out, cards)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
