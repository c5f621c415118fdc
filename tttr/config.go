package tttr

import "fmt"

// Config controls the cascade of the correlator.
type Config struct {
	// CascStart is the first cascade level that is correlated. Earlier levels
	// only coarsen the time axis and yield zero-valued points.
	CascStart int
	// CascEnd is the number of cascade levels.
	CascEnd int
	// Sub is the number of lags evaluated per level.
	Sub int
	// TimeDivisor converts lags from the acquisition unit to the output unit.
	TimeDivisor float64
}

// DefaultConfig returns the settings used for confocal FCS measurements:
// 30 levels of 6 lags, lags reported in milliseconds for nanosecond tags.
func DefaultConfig() Config {
	return Config{
		CascStart:   0,
		CascEnd:     30,
		Sub:         6,
		TimeDivisor: 1e6,
	}
}

// Validate reports whether the config can be used.
func (c Config) Validate() error {
	switch {
	case c.CascStart < 0:
		return fmt.Errorf("%w: CascStart %d is negative", ErrInvalidConfig, c.CascStart)
	case c.CascEnd < 1:
		return fmt.Errorf("%w: CascEnd %d must be positive", ErrInvalidConfig, c.CascEnd)
	case c.CascStart > c.CascEnd:
		return fmt.Errorf("%w: CascStart %d exceeds CascEnd %d", ErrInvalidConfig, c.CascStart, c.CascEnd)
	case c.Sub < 1:
		return fmt.Errorf("%w: Sub %d must be positive", ErrInvalidConfig, c.Sub)
	case !(c.TimeDivisor > 0):
		return fmt.Errorf("%w: TimeDivisor %v must be positive", ErrInvalidConfig, c.TimeDivisor)
	}
	return nil
}
