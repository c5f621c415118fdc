package tttr

import "errors"

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("tttr: invalid config")

	// ErrNoPhotons is returned when there is nothing to correlate or bin.
	ErrNoPhotons = errors.New("tttr: no photons")

	// ErrUnsorted is returned when arrival times decrease.
	ErrUnsorted = errors.New("tttr: arrival times not sorted")

	// ErrNonFinite is returned when an arrival time is NaN or infinite.
	ErrNonFinite = errors.New("tttr: non-finite arrival time")

	// ErrLengthMismatch is returned when parallel slices differ in length.
	ErrLengthMismatch = errors.New("tttr: length mismatch")

	// ErrInvalidWindow is returned for a non-positive binning window.
	ErrInvalidWindow = errors.New("tttr: invalid bin window")

	// ErrSameChannel is returned when a cross-correlation names one channel twice.
	ErrSameChannel = errors.New("tttr: cross-correlation needs two channels")

	// ErrNegativeCount is returned when a count series contains negative values.
	ErrNegativeCount = errors.New("tttr: negative count")
)
