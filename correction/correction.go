package correction

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fluogo/intersect"
	"github.com/hupe1980/fluogo/tttr"
)

var (
	// ErrShortPrediction is returned when there are fewer predictions than bins.
	ErrShortPrediction = errors.New("correction: prediction shorter than time series")

	// ErrCountMismatch is returned when the series holds more photons than the input.
	ErrCountMismatch = errors.New("correction: time series does not match photons")

	// ErrInvalidThreshold is returned for a threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("correction: threshold must be within [0, 1]")
)

// Options configures Correct.
type Options struct {
	Method Method
	// Threshold is the prediction above which a bin is an artifact.
	Threshold float64
	// Weight is given to artifact photons by MethodWeights.
	Weight float64
}

// DefaultOptions deletes photons of bins predicted above 0.5.
func DefaultOptions() Options {
	return Options{
		Method:    MethodDelete,
		Threshold: 0.5,
	}
}

// Input is the photon stream of one channel and its binned trace.
type Input struct {
	// Times are the sorted arrival times of the channel.
	Times []float64
	// Series is Times binned with tttr.Bin.
	Series *tttr.TimeSeries
	// Predictions holds one artifact score per bin. Extra trailing values,
	// such as padding to the classifier's input length, are ignored.
	Predictions []float64
	// TimeScale is the number of arrival time units per series unit, used to
	// shift photons by one bin width. Zero means 1.
	TimeScale float64
}

// Result is the corrected stream.
type Result struct {
	// Times are the corrected arrival times.
	Times []float64
	// Weights holds one weight per photon for MethodWeights, nil otherwise.
	Weights []float64
	// Series is the corrected trace.
	Series *tttr.TimeSeries
	// Artifacts marks the artifact bins of the input series.
	Artifacts intersect.Mask
	// Removed is the number of deleted photons.
	Removed int
}

// Correct applies the artifact prediction to the photons of in.
//
// Photons after the last complete bin have no prediction and are dropped.
func Correct(in Input, opts Options) (*Result, error) {
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, opts.Threshold)
	}
	if in.Series == nil {
		return nil, fmt.Errorf("%w: missing series", ErrCountMismatch)
	}
	bins := in.Series.Len()
	if len(in.Predictions) < bins {
		return nil, fmt.Errorf("%w: %d predictions for %d bins", ErrShortPrediction, len(in.Predictions), bins)
	}
	total := in.Series.Total()
	if total > len(in.Times) {
		return nil, fmt.Errorf("%w: series holds %d photons, input %d", ErrCountMismatch, total, len(in.Times))
	}

	artifacts := make(intersect.Mask, bins)
	for i := range artifacts {
		artifacts[i] = in.Predictions[i] > opts.Threshold
	}

	// photon i belongs to bin binOf[i]
	times := in.Times[:total]
	binOf := make([]int, 0, total)
	for b, c := range in.Series.Counts {
		for range c {
			binOf = append(binOf, b)
		}
	}

	switch opts.Method {
	case MethodWeights:
		return weigh(times, binOf, artifacts, in.Series, opts.Weight), nil
	case MethodDelete:
		return deletePhotons(times, binOf, artifacts, in.Series), nil
	case MethodDeleteAndShift:
		scale := in.TimeScale
		if scale == 0 {
			scale = 1
		}
		return deleteAndShift(times, binOf, artifacts, in.Series, in.Series.Window*scale), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, opts.Method)
	}
}

func weigh(times []float64, binOf []int, artifacts intersect.Mask, series *tttr.TimeSeries, weight float64) *Result {
	weights := make([]float64, len(times))
	for i, b := range binOf {
		if artifacts[b] {
			weights[i] = weight
		} else {
			weights[i] = 1
		}
	}
	return &Result{
		Times:     append([]float64(nil), times...),
		Weights:   weights,
		Series:    series,
		Artifacts: artifacts,
	}
}

func deletePhotons(times []float64, binOf []int, artifacts intersect.Mask, series *tttr.TimeSeries) *Result {
	kept := make([]float64, 0, len(times))
	for i, b := range binOf {
		if !artifacts[b] {
			kept = append(kept, times[i])
		}
	}

	counts := make([]int, series.Len())
	for b, c := range series.Counts {
		if !artifacts[b] {
			counts[b] = c
		}
	}

	return &Result{
		Times: kept,
		Series: &tttr.TimeSeries{
			Counts: counts,
			Scale:  append([]float64(nil), series.Scale...),
			Window: series.Window,
		},
		Artifacts: artifacts,
		Removed:   len(times) - len(kept),
	}
}

func deleteAndShift(times []float64, binOf []int, artifacts intersect.Mask, series *tttr.TimeSeries, width float64) *Result {
	// gaps[b] counts the artifact bins before bin b.
	gaps := make([]int, series.Len())
	n := 0
	for b := range gaps {
		gaps[b] = n
		if artifacts[b] {
			n++
		}
	}

	kept := make([]float64, 0, len(times))
	for i, b := range binOf {
		if !artifacts[b] {
			kept = append(kept, times[i]-float64(gaps[b])*width)
		}
	}

	corrected := &tttr.TimeSeries{Window: series.Window}
	for b, c := range series.Counts {
		if !artifacts[b] {
			corrected.Counts = append(corrected.Counts, c)
			corrected.Scale = append(corrected.Scale, series.Scale[b])
		}
	}

	return &Result{
		Times:     kept,
		Series:    corrected,
		Artifacts: artifacts,
		Removed:   len(times) - len(kept),
	}
}
