package deck

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unoroom/internal/models"
)

// composition key ignoring identity: color/type/value.
type kind struct {
	color models.CardColor
	typ   models.CardType
	value int
}

func countKinds(cards []models.Card) map[kind]int {
	counts := make(map[kind]int)
	for _, c := range cards {
		counts[kind{c.Color, c.Type, c.Value}]++
	}
	return counts
}

func TestBuildCanonicalComposition(t *testing.T) {
	cards := Build()
	require.Len(t, cards, Size)

	counts := countKinds(cards)
	for _, color := range models.PlayColors {
		assert.Equal(t, 1, counts[kind{color, models.TypeNumber, 0}], "one zero per color")
		for v := 1; v <= 9; v++ {
			assert.Equal(t, 2, counts[kind{color, models.TypeNumber, v}], "two %ds for %s", v, color)
		}
		assert.Equal(t, 2, counts[kind{color, models.TypeSkip, -1}])
		assert.Equal(t, 2, counts[kind{color, models.TypeReverse, -1}])
		assert.Equal(t, 2, counts[kind{color, models.TypeDrawTwo, -1}])
	}
	assert.Equal(t, 4, counts[kind{models.ColorWild, models.TypeWild, -1}])
	assert.Equal(t, 4, counts[kind{models.ColorWild, models.TypeWildDrawFour, -1}])
}

func TestBuildUniqueIDs(t *testing.T) {
	cards := Build()
	seen := make(map[uuid.UUID]bool, len(cards))
	for _, c := range cards {
		require.False(t, seen[c.ID], "duplicate card id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestShufflePreservesMultiset(t *testing.T) {
	original := Build()
	shuffled := Shuffle(original)

	require.Len(t, shuffled, len(original))
	assert.Equal(t, countKinds(original), countKinds(shuffled), "shuffle must not change composition")

	ids := make(map[uuid.UUID]bool, len(original))
	for _, c := range original {
		ids[c.ID] = true
	}
	for _, c := range shuffled {
		assert.True(t, ids[c.ID], "shuffle introduced an unknown card id")
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	original := Build()
	before := make([]models.Card, len(original))
	copy(before, original)

	Shuffle(original)
	assert.Equal(t, before, original, "input order must be untouched")
}
