package tttr

import (
	"fmt"
	"math"
	"slices"
)

// TimeSeries is a histogram of photon times.
type TimeSeries struct {
	// Counts[i] is the number of photons in bin i.
	Counts []int
	// Scale[i] is the centre of bin i.
	Scale []float64
	// Window is the bin width.
	Window float64
}

// Len returns the number of bins.
func (ts *TimeSeries) Len() int { return len(ts.Counts) }

// Total returns the number of binned photons.
func (ts *TimeSeries) Total() int {
	n := 0
	for _, c := range ts.Counts {
		n += c
	}
	return n
}

// Bin histograms the times of channel ch into bins of width window starting
// at zero. Only complete bins are kept: photons after the last full window
// are dropped. The same binning turns arrival times into an intensity trace
// and delay times into a decay histogram.
func Bin(p Photons, ch uint8, window float64) (*TimeSeries, error) {
	if !(window > 0) || math.IsInf(window, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, window)
	}
	if len(p.Times) != len(p.Channels) {
		return nil, fmt.Errorf("%w: %d times, %d channels", ErrLengthMismatch, len(p.Times), len(p.Channels))
	}

	sel := p.Select(ch)
	if sel.Len() == 0 {
		return nil, fmt.Errorf("%w on channel %d", ErrNoPhotons, ch)
	}

	last := math.Trunc(slices.Max(sel.Times))
	numBins := int(math.Floor(last / window))
	ts := &TimeSeries{Window: window}
	if numBins < 1 {
		return ts, nil
	}
	end := float64(numBins) * window

	ts.Counts = make([]int, numBins)
	for _, t := range sel.Times {
		if t < 0 || t > end || math.IsNaN(t) {
			continue
		}
		idx := int(t / window)
		if idx >= numBins {
			// the right edge of the last bin is inclusive
			idx = numBins - 1
		}
		ts.Counts[idx]++
	}

	ts.Scale = make([]float64, numBins)
	for i := range ts.Scale {
		ts.Scale[i] = end*float64(i)/float64(numBins) + window/2
	}
	return ts, nil
}
