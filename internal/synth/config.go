package synth

// Config controls the behavior of the Synthesizer.
type Config struct {
	// Validators is the ordered list of validators to run on every
	// synthesized item. They execute in order; the first failure stops
	// the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the backend response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorTexts is the maximum number of prior question texts to
	// include in the prompt for repeat avoidance.
	MaxPriorTexts int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
		},
		MaxTokens:     512,
		Temperature:   0.8,
		MaxPriorTexts: 8,
	}
}
