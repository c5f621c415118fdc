// Package tttr correlates time-tagged photon streams.
//
// Time-tagged time-resolved (TTTR) data records the arrival time of every
// detected photon. Correlate computes the correlation function directly from
// those arrival times with the multi-level algorithm of Wahl, Gregor, Patting
// and Enderlein: at every cascade level the arrival times are coarsened by a
// factor of two, photons sharing a time are merged into one weighted event,
// and each lag is evaluated by intersecting the times with a shifted copy of
// themselves (see package intersect).
//
// # Typical flow
//
//	p := tttr.Photons{Times: times, Channels: channels}
//	curve, err := tttr.AutoCorrelate(p, 1, tttr.DefaultConfig())
//	series, err := tttr.Bin(p, 1, 1e6)
//	stats, err := tttr.CountingStats(series)
//
// Times are in the acquisition's native unit. Config.TimeDivisor converts
// lags to the unit of the reported curve.
package tttr
