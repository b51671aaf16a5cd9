package planner

import (
	"math/rand"
	"sync"
	"time"
)

// Picker chooses an index in [0, n). n is always positive.
type Picker interface {
	Intn(n int) int
}

// RandPicker is a seeded Picker safe for concurrent use.
type RandPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandPicker creates a RandPicker. A zero seed seeds from the clock.
func NewRandPicker(seed int64) *RandPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandPicker{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // fallback choice, not security sensitive
}

// Intn returns a pseudo-random index in [0, n).
func (p *RandPicker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}
