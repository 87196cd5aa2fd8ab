package narrative

// Config controls narrative generation.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the default narrative configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.8,
	}
}
