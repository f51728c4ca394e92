package picker

import "quizforge/internal/item"

// Tier maps a minimum corpus size to a synthesis probability. Tiers are
// evaluated largest threshold first; below the smallest threshold the
// probability is always 1.
type Tier struct {
	MinCount  int
	SynthProb float64
}

// Config holds the tier schedule and placement throttle parameters.
type Config struct {
	// Tiers must be sorted by ascending MinCount.
	Tiers []Tier

	PlacementCategory   item.Category
	PlacementDifficulty int
	PlacementProb       float64
}

// DefaultConfig returns the standard schedule: always synthesize while a
// category's corpus is small, then taper reuse-heavy as it grows.
func DefaultConfig() Config {
	return Config{
		Tiers: []Tier{
			{MinCount: 50, SynthProb: 0.20},
			{MinCount: 200, SynthProb: 0.10},
			{MinCount: 500, SynthProb: 0.05},
		},
		PlacementCategory:   item.CategoryMath,
		PlacementDifficulty: 1,
		PlacementProb:       0.30,
	}
}

// synthesisProbability returns the synthesis probability for a corpus of
// the given size under the configured schedule.
func (c Config) synthesisProbability(size int) float64 {
	prob := 1.0
	for _, t := range c.Tiers {
		if size >= t.MinCount {
			prob = t.SynthProb
		}
	}
	return prob
}
