package evaluator

// Config holds the tuning constants of the default heuristic and partial credit.
// The defaults reproduce the course's original behavior.
type Config struct {
	// MinChars is the exclusive lower bound on answer length for the default heuristic
	MinChars int `yaml:"min_chars" json:"min_chars"`
	// MinWords is the exclusive lower bound on space-separated words
	MinWords int `yaml:"min_words" json:"min_words"`
	// PartialCreditCap caps the points an invalid answer earns
	PartialCreditCap int `yaml:"partial_credit_cap" json:"partial_credit_cap"`
}

// DefaultConfig returns the original thresholds: 50 characters, 10 words, 50 points
func DefaultConfig() Config {
	return Config{
		MinChars:         50,
		MinWords:         10,
		PartialCreditCap: 50,
	}
}

// withDefaults fills zero fields so a partially written config stays usable
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinChars <= 0 {
		c.MinChars = d.MinChars
	}
	if c.MinWords <= 0 {
		c.MinWords = d.MinWords
	}
	if c.PartialCreditCap <= 0 || c.PartialCreditCap > 100 {
		c.PartialCreditCap = d.PartialCreditCap
	}
	return c
}
