// Package testutil provides testing utilities for fluogo.
//
// This package is intended for use in tests and benchmarks only.
// It generates reproducible photon streams and sorted sequences.
//
// # Photon Streams
//
//	rng := testutil.NewRNG(seed)
//	times := rng.Arrivals(10_000, 50)            // integer ticks, mean gap 50
//	times, channels := rng.Photons(10_000, 50, 1, 2)
//
// # Sorted Sequences
//
//	a := rng.SortedValues(1024, 100)
package testutil
