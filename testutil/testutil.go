package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Arrivals returns n increasing arrival times on an integer tick grid.
// Gaps are exponentially distributed with the given mean and at least one
// tick, so no two photons share a time.
func (r *RNG) Arrivals(n int, meanGap float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	t := 0.0
	for i := range out {
		t += math.Max(1, math.Round(r.rand.ExpFloat64()*meanGap))
		out[i] = t
	}
	return out
}

// Photons returns n arrivals, each assigned uniformly to one of channels.
func (r *RNG) Photons(n int, meanGap float64, channels ...uint8) ([]float64, []uint8) {
	if len(channels) == 0 {
		channels = []uint8{0}
	}
	times := r.Arrivals(n, meanGap)

	r.mu.Lock()
	defer r.mu.Unlock()

	chans := make([]uint8, n)
	for i := range chans {
		chans[i] = channels[r.rand.Intn(len(channels))]
	}
	return times, chans
}

// Burst inserts extra photons into times between start and end with the
// given mean gap, mimicking a bright aggregate crossing the focus. The
// result stays sorted.
func (r *RNG) Burst(times []float64, start, end, meanGap float64) []float64 {
	r.mu.Lock()
	out := slices.Clone(times)
	for t := start; t < end; t += math.Max(1, math.Round(r.rand.ExpFloat64()*meanGap)) {
		out = append(out, t)
	}
	r.mu.Unlock()

	slices.Sort(out)
	return out
}

// SortedValues returns n non-decreasing integers in [0, maxVal) as float64.
func (r *RNG) SortedValues(n, maxVal int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	for i := range out {
		out[i] = float64(r.rand.Intn(maxVal))
	}
	slices.Sort(out)
	return out
}
