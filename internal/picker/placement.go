package picker

import (
	"github.com/google/uuid"

	"quizforge/internal/item"
)

// placementRanges are the number-line spans used for placement items,
// indexed by difficulty (clamped). Wider lines at higher difficulty.
var placementRanges = []struct{ min, max int }{
	{0, 10},
	{0, 20},
	{0, 50},
	{0, 100},
	{-100, 100},
}

// newPlacementItem builds a number-line placement item locally, with no
// backend involved. The caller supplies the uniform rng so tests can pin
// the draw.
func newPlacementItem(difficulty int, rng func() float64) *item.Item {
	d := item.ClampDifficulty(difficulty)
	r := placementRanges[d-1]
	span := r.max - r.min

	// Three distinct values strictly inside the line, walked from a
	// single random starting point so a degenerate rng still terminates.
	interior := span - 1
	start := int(rng() * float64(interior))
	stride := interior/3 + 1
	values := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		values = append(values, r.min+1+(start+i*stride)%interior)
	}

	return &item.Item{
		ID:         uuid.NewString(),
		Category:   item.CategoryMath,
		Kind:       item.KindPlacement,
		Difficulty: d,
		Text:       "Place each number where it belongs on the number line.",
		Placement: &item.PlacementSpec{
			Values: values,
			Min:    r.min,
			Max:    r.max,
		},
	}
}
