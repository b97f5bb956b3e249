package evaluator

import (
	"math/rand/v2"
	"sync"
)

// Random is the source of every random value the evaluator produces
type Random interface {
	// IntN returns a uniform integer in [0, n)
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRandom draws from the process-wide math/rand/v2 source
func DefaultRandom() Random {
	return globalRandom{}
}

// LockedRandom is a seeded source that can be shared between concurrent requests
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRandom returns a deterministic source for the given seed
func NewLockedRandom(seed uint64) *LockedRandom {
	return &LockedRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *LockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// intBetween returns a uniform integer in the closed range [low, high]
func intBetween(random Random, low, high int) int {
	return low + random.IntN(high-low+1)
}
