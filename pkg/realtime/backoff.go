package realtime

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff computes reconnect delays for channel implementations
// that re-establish their underlying connection after transient failures.
// Jitter spreads reconnect attempts from multiple clients over time.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// DefaultBackoff returns the reconnect strategy used by built-in channels:
// 1s initial, doubling, capped at 30s, with 20% jitter.
func DefaultBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.2,
	}
}

// NextInterval returns the delay before the given reconnect attempt.
// Attempt starts at 1. Formula: min(initial * multiplier^(attempt-1) * (1 ± jitter), max).
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}

	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}

	return time.Duration(interval)
}
