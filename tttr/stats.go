package tttr

import "fmt"

// Stats summarises the photon counting statistics of a time series.
type Stats struct {
	// KCount is the mean count per bin.
	KCount float64
	// Brightness is the number-and-brightness molecular brightness per unit
	// time of the series scale.
	Brightness float64
	// Number is the apparent number of molecules, 0 if variance equals mean.
	Number float64
}

// CountingStats computes number-and-brightness statistics of ts.
func CountingStats(ts *TimeSeries) (Stats, error) {
	if ts == nil || ts.Len() == 0 || len(ts.Scale) != ts.Len() {
		return Stats{}, fmt.Errorf("%w: empty time series", ErrNoPhotons)
	}

	n := float64(ts.Len())
	unit := ts.Scale[len(ts.Scale)-1] / n

	var sum float64
	for _, c := range ts.Counts {
		sum += float64(c)
	}
	mean := sum / n
	if mean == 0 {
		return Stats{}, fmt.Errorf("%w: all bins are empty", ErrNoPhotons)
	}

	var sq float64
	for _, c := range ts.Counts {
		d := float64(c) - mean
		sq += d * d
	}
	variance := sq / n

	st := Stats{
		KCount:     mean,
		Brightness: ((variance - mean) / mean) / unit,
	}
	if variance-mean != 0 {
		st.Number = mean * mean / (variance - mean)
	}
	return st, nil
}

// CoincidenceValue compares the count distributions of two series. Each
// series is reduced to a histogram of its count values; the result is the
// normalised overlap of both histograms scaled by the histogram length.
func CoincidenceValue(a, b []int) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty series", ErrNoPhotons)
	}
	ha, err := bincount(a)
	if err != nil {
		return 0, err
	}
	hb, err := bincount(b)
	if err != nil {
		return 0, err
	}

	n := max(len(ha), len(hb))
	var dot, sa, sb float64
	for i := range n {
		var x, y float64
		if i < len(ha) {
			x = ha[i]
		}
		if i < len(hb) {
			y = hb[i]
		}
		dot += x * y
		sa += x
		sb += y
	}
	return dot / (sa * sb) * float64(n), nil
}

func bincount(s []int) ([]float64, error) {
	top := 0
	for i, v := range s {
		if v < 0 {
			return nil, fmt.Errorf("%w: %d at index %d", ErrNegativeCount, v, i)
		}
		top = max(top, v)
	}
	h := make([]float64, top+1)
	for _, v := range s {
		h[v]++
	}
	return h, nil
}
