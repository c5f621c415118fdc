package tttr

import (
	"fmt"
	"math"
	"slices"
)

// Photons is a time-tagged photon stream. Times[i] is the arrival time of a
// photon detected on Channels[i].
type Photons struct {
	Times    []float64
	Channels []uint8
}

// Len returns the number of photons.
func (p Photons) Len() int { return len(p.Times) }

// Validate checks that the stream is consistent and time ordered.
func (p Photons) Validate() error {
	if len(p.Times) != len(p.Channels) {
		return fmt.Errorf("%w: %d times, %d channels", ErrLengthMismatch, len(p.Times), len(p.Channels))
	}
	return checkTimes(p.Times)
}

// ChannelSet returns the distinct channels in ascending order.
func (p Photons) ChannelSet() []uint8 {
	var seen [256]bool
	for _, c := range p.Channels {
		seen[c] = true
	}
	var out []uint8
	for c, ok := range seen {
		if ok {
			out = append(out, uint8(c)) //nolint:gosec // c < 256
		}
	}
	return out
}

// Select returns the photons detected on any of the given channels.
func (p Photons) Select(channels ...uint8) Photons {
	var want [256]bool
	for _, c := range channels {
		want[c] = true
	}
	var out Photons
	for i, c := range p.Channels {
		if want[c] {
			out.Times = append(out.Times, p.Times[i])
			out.Channels = append(out.Channels, c)
		}
	}
	return out
}

// Count returns the number of photons on channel ch.
func (p Photons) Count(ch uint8) int {
	n := 0
	for _, c := range p.Channels {
		if c == ch {
			n++
		}
	}
	return n
}

func checkTimes(times []float64) error {
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	if !slices.IsSorted(times) {
		return ErrUnsorted
	}
	return nil
}
