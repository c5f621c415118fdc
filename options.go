package fluogo

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/fluogo/tttr"
)

// DefaultBinWindow is the trace bin width in arrival time units.
// With nanosecond time tags this is one millisecond.
const DefaultBinWindow = 1e6

// DefaultMethod names the correlation method in output file names.
const DefaultMethod = "tttr2xfcs"

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	correlation      tttr.Config
	binWindow        float64
	maxWorkers       int
	ioLimit          int64
	memoryLimit      int64
	clock            func() time.Time
	outputText       string
}

// Option configures the Engine.
type Option func(*options)

// WithMetricsCollector configures metrics collection for engine operations.
//
// Example with basic metrics:
//
//	metrics := &fluogo.BasicMetricsCollector{}
//	engine, _ := fluogo.New(store, fluogo.WithMetricsCollector(metrics))
//	// ... use engine ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCorrelationConfig sets the cascade used by all correlations.
func WithCorrelationConfig(cfg tttr.Config) Option {
	return func(o *options) {
		o.correlation = cfg
	}
}

// WithBinWindow sets the trace bin width used for counting statistics and
// artifact correction.
func WithBinWindow(window float64) Option {
	return func(o *options) {
		o.binWindow = window
	}
}

// WithMaxWorkers bounds the number of files correlated concurrently.
// Zero uses GOMAXPROCS.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		o.maxWorkers = n
	}
}

// WithIOLimit limits blob reads and writes to bytesPerSec. Zero is unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMemoryLimit bounds the photon data held in memory at once.
// A file larger than the limit fails. Zero is unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithClock sets the time source for output file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithOutputText sets the free text part of output file names.
// By default the input file name is used.
func WithOutputText(text string) Option {
	return func(o *options) {
		o.outputText = text
	}
}

func applyOptions(optFns []Option) (options, error) {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		correlation:      tttr.DefaultConfig(),
		binWindow:        DefaultBinWindow,
		clock:            time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.maxWorkers <= 0 {
		o.maxWorkers = runtime.GOMAXPROCS(0)
	}

	if err := o.correlation.Validate(); err != nil {
		return o, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if !(o.binWindow > 0) {
		return o, fmt.Errorf("%w: bin window %v", ErrInvalidOption, o.binWindow)
	}
	if o.ioLimit < 0 || o.memoryLimit < 0 {
		return o, fmt.Errorf("%w: negative resource limit", ErrInvalidOption)
	}
	return o, nil
}
