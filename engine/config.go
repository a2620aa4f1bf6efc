package engine

import (
	"time"
)

type Config struct {
	// RecallLimit caps how many facts a retrieval query returns.
	RecallLimit int
	// ScaleLength is the source-text rune count at which importance
	// scaling saturates; shorter turns yield proportionally weaker
	// facts.
	ScaleLength int
	// UsageRetention is how long token-usage rows are kept. Facts have
	// no retention window.
	UsageRetention time.Duration
}

func newConfig() *Config {
	return &Config{
		RecallLimit:    10,
		ScaleLength:    500,
		UsageRetention: 30 * 24 * time.Hour,
	}
}
