package fluogo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordCorrelation is called after each photon stream is correlated.
	// photons is the stream length, err is nil if successful.
	RecordCorrelation(photons int, duration time.Duration, err error)

	// RecordBatch is called after each CorrelateAll run.
	RecordBatch(files, failed int, duration time.Duration)

	// RecordCorrection is called after each artifact correction.
	// removed is the number of deleted photons.
	RecordCorrection(removed int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCorrelation(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)         {}
func (NoopMetricsCollector) RecordCorrection(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CorrelationCount      atomic.Int64
	CorrelationErrors     atomic.Int64
	CorrelationPhotons    atomic.Int64
	CorrelationTotalNanos atomic.Int64
	BatchCount            atomic.Int64
	BatchFiles            atomic.Int64
	BatchFailed           atomic.Int64
	CorrectionCount       atomic.Int64
	CorrectionErrors      atomic.Int64
	CorrectionRemoved     atomic.Int64
}

// RecordCorrelation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCorrelation(photons int, duration time.Duration, err error) {
	b.CorrelationCount.Add(1)
	b.CorrelationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CorrelationErrors.Add(1)
		return
	}
	b.CorrelationPhotons.Add(int64(photons))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(files, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchFiles.Add(int64(files))
	b.BatchFailed.Add(int64(failed))
}

// RecordCorrection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCorrection(removed int, _ time.Duration, err error) {
	b.CorrectionCount.Add(1)
	if err != nil {
		b.CorrectionErrors.Add(1)
		return
	}
	b.CorrectionRemoved.Add(int64(removed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	count := b.CorrelationCount.Load()
	var avg int64
	if count > 0 {
		avg = b.CorrelationTotalNanos.Load() / count
	}
	return BasicMetricsStats{
		CorrelationCount:    count,
		CorrelationErrors:   b.CorrelationErrors.Load(),
		CorrelationPhotons:  b.CorrelationPhotons.Load(),
		CorrelationAvgNanos: avg,
		BatchCount:          b.BatchCount.Load(),
		BatchFiles:          b.BatchFiles.Load(),
		BatchFailed:         b.BatchFailed.Load(),
		CorrectionCount:     b.CorrectionCount.Load(),
		CorrectionErrors:    b.CorrectionErrors.Load(),
		CorrectionRemoved:   b.CorrectionRemoved.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CorrelationCount    int64
	CorrelationErrors   int64
	CorrelationPhotons  int64
	CorrelationAvgNanos int64
	BatchCount          int64
	BatchFiles          int64
	BatchFailed         int64
	CorrectionCount     int64
	CorrectionErrors    int64
	CorrectionRemoved   int64
}
