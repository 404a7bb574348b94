package simulation

import (
	"math/rand"
	"time"
)

// Source provides the randomness consumed by path simulation.
// *rand.Rand satisfies it directly.
type Source interface {
	// NormFloat64 returns a standard normal draw.
	NormFloat64() float64

	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
}

// NewSeededSource returns a deterministic Source for a fixed seed.
func NewSeededSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a wall-clock seeded Source for runs where
// reproducibility is not required.
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
