package tttr

import (
	"fmt"
	"math"

	"github.com/hupe1980/fluogo/intersect"
)

// Raw is the unnormalised output of Correlate.
//
// G[k][a][b] accumulates the weight of channel a of the later photon times
// the weight of channel b of the earlier photon at lag Lags[k].
type Raw struct {
	Lags []float64
	G    [][2][2]float64
}

// Correlate computes the unnormalised two-channel correlation of a photon
// stream. times must be sorted. weights[i] holds the weight of photon i in
// each of the two channels; indicator weights give the plain photon
// correlation.
func Correlate(times []float64, weights [][2]float64, cfg Config) (*Raw, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, ErrNoPhotons
	}
	if len(weights) != len(times) {
		return nil, fmt.Errorf("%w: %d times, %d weights", ErrLengthMismatch, len(times), len(weights))
	}
	if err := checkTimes(times); err != nil {
		return nil, err
	}

	dt := times[len(times)-1] - times[0]

	y := make([]float64, len(times))
	for i, t := range times {
		y[i] = math.RoundToEven(t)
	}
	w := weights

	rows := (cfg.CascEnd + 1) * (cfg.Sub + 1)
	lags := make([]float64, rows)
	g := make([][2][2]float64, rows)

	shift, delta := 0.0, 1.0
	shifted := make([]float64, 0, len(y))

	for j := 0; j < cfg.CascEnd; j++ {
		y, w = merge(y, w)

		for k := 0; k < cfg.Sub; k++ {
			shift += delta
			lag := math.RoundToEven(shift / delta)
			row := k + j*cfg.Sub

			if j >= cfg.CascStart {
				shifted = shifted[:0]
				for _, v := range y {
					shifted = append(shifted, v+lag)
				}

				later, earlier, err := intersect.DivideAndConquer(y, shifted, len(y)+1)
				if err != nil {
					return nil, err
				}
				g[row] = accumulate(w, later.Indices(), earlier.Indices(), delta)
			}
			lags[row] = shift
		}

		for i := range y {
			y[i] = math.Ceil(0.5 * y[i])
		}
		delta *= 2
	}

	out := &Raw{}
	for r := range rows {
		if lags[r] == 0 {
			continue
		}
		scale := dt / (dt - lags[r])
		var v [2][2]float64
		for a := range 2 {
			for b := range 2 {
				v[a][b] = g[r][a][b] * scale
			}
		}
		out.Lags = append(out.Lags, lags[r]/cfg.TimeDivisor)
		out.G = append(out.G, v)
	}
	return out, nil
}

// merge collapses equal times into one event. The weight of each event is
// the difference of the running weight sum at the first occurrence of its
// time and at the first occurrence of the previous time.
func merge(y []float64, w [][2]float64) ([]float64, [][2]float64) {
	uy := make([]float64, 0, len(y))
	uw := make([][2]float64, 0, len(y))

	var run, prev [2]float64
	for i, v := range y {
		run[0] += w[i][0]
		run[1] += w[i][1]
		if i == 0 || v != y[i-1] {
			uy = append(uy, v)
			uw = append(uw, [2]float64{run[0] - prev[0], run[1] - prev[1]})
			prev = run
		}
	}
	return uy, uw
}

func accumulate(w [][2]float64, later, earlier []int, delta float64) [2][2]float64 {
	var acc [2][2]float64
	if len(later) == 0 || len(earlier) == 0 {
		return acc
	}
	for p := range min(len(later), len(earlier)) {
		wl, we := w[later[p]], w[earlier[p]]
		acc[0][0] += wl[0] * we[0]
		acc[0][1] += wl[0] * we[1]
		acc[1][0] += wl[1] * we[0]
		acc[1][1] += wl[1] * we[1]
	}
	for a := range 2 {
		for b := range 2 {
			acc[a][b] /= delta
		}
	}
	return acc
}
