package tttr

import (
	"fmt"
	"math"
	"slices"
)

// Curve is a normalised correlation curve G(tau) - 1 over Lags.
type Curve struct {
	Lags []float64
	G    []float64
}

// CrossCurves holds the four curves of a two-channel correlation.
type CrossCurves struct {
	Lags []float64
	// AA and BB are the autocorrelations of channel A and B.
	AA, BB []float64
	// AB pairs a later photon on A with an earlier photon on B, BA the reverse.
	AB, BA []float64
}

// AutoCorrelate correlates the photons of channel ch with themselves.
//
// The curve is normalised by the squared photon count of the channel and the
// duration up to the last photon of the whole stream.
func AutoCorrelate(p Photons, ch uint8, cfg Config) (*Curve, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sel := p.Select(ch)
	if sel.Len() == 0 {
		return nil, fmt.Errorf("%w on channel %d", ErrNoPhotons, ch)
	}

	weights := make([][2]float64, sel.Len())
	for i := range weights {
		weights[i][0] = 1
	}

	raw, err := Correlate(sel.Times, weights, cfg)
	if err != nil {
		return nil, err
	}

	maxY := math.Ceil(slices.Max(p.Times))
	count := float64(sel.Len())
	return &Curve{
		Lags: raw.Lags,
		G:    normalise(raw, 0, 0, maxY, count*count),
	}, nil
}

// CrossCorrelate correlates the photons of channels a and b.
func CrossCorrelate(p Photons, a, b uint8, cfg Config) (*CrossCurves, error) {
	if a == b {
		return nil, ErrSameChannel
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sel := p.Select(a, b)
	countA, countB := float64(sel.Count(a)), float64(sel.Count(b))
	if countA == 0 || countB == 0 {
		return nil, fmt.Errorf("%w on channels %d and %d", ErrNoPhotons, a, b)
	}

	weights := make([][2]float64, sel.Len())
	for i, c := range sel.Channels {
		if c == a {
			weights[i][0] = 1
		} else {
			weights[i][1] = 1
		}
	}

	raw, err := Correlate(sel.Times, weights, cfg)
	if err != nil {
		return nil, err
	}

	maxY := math.Ceil(slices.Max(p.Times))
	return &CrossCurves{
		Lags: raw.Lags,
		AA:   normalise(raw, 0, 0, maxY, countA*countA),
		BB:   normalise(raw, 1, 1, maxY, countB*countB),
		AB:   normalise(raw, 0, 1, maxY, countA*countB),
		BA:   normalise(raw, 1, 0, maxY, countB*countA),
	}, nil
}

// WeightedAutoCorrelate correlates photons carrying individual weights, as
// produced by a weighting artifact correction. The curve is normalised by the
// squared weight sum.
func WeightedAutoCorrelate(times, weights []float64, cfg Config) (*Curve, error) {
	if len(times) != len(weights) {
		return nil, fmt.Errorf("%w: %d times, %d weights", ErrLengthMismatch, len(times), len(weights))
	}
	if len(times) == 0 {
		return nil, ErrNoPhotons
	}

	w := make([][2]float64, len(weights))
	var total float64
	for i, v := range weights {
		w[i][0] = v
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrNoPhotons)
	}

	raw, err := Correlate(times, w, cfg)
	if err != nil {
		return nil, err
	}

	maxY := math.Ceil(slices.Max(times))
	return &Curve{
		Lags: raw.Lags,
		G:    normalise(raw, 0, 0, maxY, total*total),
	}, nil
}

func normalise(raw *Raw, a, b int, maxY, denom float64) []float64 {
	out := make([]float64, len(raw.G))
	for i, g := range raw.G {
		out[i] = g[a][b]*maxY/denom - 1
	}
	return out
}
