package fluogo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fluogo/blobstore"
	"github.com/hupe1980/fluogo/correction"
	"github.com/hupe1980/fluogo/fcsfile"
	"github.com/hupe1980/fluogo/internal/resource"
	"github.com/hupe1980/fluogo/testutil"
	"github.com/hupe1980/fluogo/tttr"
)

var testConfig = tttr.Config{CascStart: 0, CascEnd: 1, Sub: 2, TimeDivisor: 1}

func putPhotons(t *testing.T, store blobstore.BlobStore, name string, p tttr.Photons) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fcsfile.WritePhotons(&buf, p))
	require.NoError(t, store.Put(context.Background(), name, buf.Bytes()))
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, store blobstore.BlobStore, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithCorrelationConfig(testConfig), WithBinWindow(1), WithClock(fixedClock)}, opts...)
	e, err := New(store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilStore)

	tests := []struct {
		name string
		opt  Option
	}{
		{"bad cascade", WithCorrelationConfig(tttr.Config{CascStart: 3, CascEnd: 1, Sub: 1, TimeDivisor: 1})},
		{"zero window", WithBinWindow(0)},
		{"negative io limit", WithIOLimit(-1)},
		{"negative memory limit", WithMemoryLimit(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(store, tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}

	e, err := New(store, WithLogger(nil), WithMetricsCollector(nil), WithClock(nil), nil)
	require.NoError(t, err)
	assert.NotNil(t, e.opts.logger)
	assert.NotNil(t, e.opts.metricsCollector)
	assert.Positive(t, e.opts.maxWorkers)
}

func TestEngine_CorrelateFile(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{
		Times:    []float64{0, 1, 2, 3, 10},
		Channels: []uint8{0, 0, 0, 0, 1},
	})

	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, store, WithMetricsCollector(metrics))

	curves, err := e.CorrelateFile(context.Background(), "in/a.csv")
	require.NoError(t, err)
	require.Contains(t, curves, uint8(0))
	require.Contains(t, curves, uint8(1))

	// Four photons on channel 0, stream ends at 10.
	assert.Equal(t, []float64{1, 2}, curves[0].Lags)
	assert.InDeltaSlice(t, []float64{4.5*10/16 - 1, 6*10/16.0 - 1}, curves[0].G, 1e-12)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.CorrelationCount)
	assert.Equal(t, int64(5), stats.CorrelationPhotons)

	_, err = e.CorrelateFile(context.Background(), "in/missing.csv")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "read", fe.Op)
	assert.Equal(t, "in/missing.csv", fe.Name)
}

func TestEngine_CorrelateFile_Empty(t *testing.T) {
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "empty.csv", []byte("time,channel\n")))

	e := newTestEngine(t, store)
	_, err := e.CorrelateFile(context.Background(), "empty.csv")
	assert.ErrorIs(t, err, tttr.ErrNoPhotons)
}

func TestEngine_CorrelateAll(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	rng := testutil.NewRNG(7)

	times, chans := rng.Photons(400, 20, 0, 1)
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: times, Channels: chans})
	times, chans = rng.Photons(300, 20, 0, 1)
	putPhotons(t, store, "in/b.csv", tttr.Photons{Times: times, Channels: chans})
	require.NoError(t, store.Put(ctx, "in/bad.csv", []byte("time,channel\n1,0\nx,0\n")))
	require.NoError(t, store.Put(ctx, "in/notes.txt", []byte("ignored")))

	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, store, WithMetricsCollector(metrics), WithMaxWorkers(2), WithBinWindow(200))

	res, err := e.CorrelateAll(ctx, "in/", "out")
	require.NoError(t, err)

	assert.Equal(t, []string{"in/a.csv", "in/b.csv", "in/bad.csv"}, res.Files)
	assert.Equal(t, []uint32{0, 1}, res.Succeeded.ToArray())
	require.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Failed["in/bad.csv"], fcsfile.ErrMalformed)
	var fe *FileError
	require.ErrorAs(t, res.Failed["in/bad.csv"], &fe)
	assert.Equal(t, "parse", fe.Op)

	assert.Equal(t, []string{
		"out/2024-05-06_tttr2xfcs_a_0000_correlation.csv",
		"out/2024-05-06_tttr2xfcs_a_0001_correlation.csv",
		"out/2024-05-06_tttr2xfcs_b_0000_correlation.csv",
		"out/2024-05-06_tttr2xfcs_b_0001_correlation.csv",
	}, res.Written)

	listed, err := store.List(ctx, "out/")
	require.NoError(t, err)
	assert.Equal(t, res.Written, listed)

	want, err := e.CorrelateFile(ctx, "in/a.csv")
	require.NoError(t, err)

	data, err := blobstore.ReadAll(ctx, store, res.Written[1])
	require.NoError(t, err)
	h, curve, err := fcsfile.ReadCorrelation(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "in/a.csv", h.ParentName)
	assert.Equal(t, "1_1", h.ChannelType)
	assert.Equal(t, "CH1 Auto-Correlation", h.Column)
	assert.Positive(t, h.KCount)
	assert.Equal(t, want[1].Lags, curve.Lags)
	assert.InDeltaSlice(t, want[1].G, curve.G, 1e-9)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BatchCount)
	assert.Equal(t, int64(3), stats.BatchFiles)
	assert.Equal(t, int64(1), stats.BatchFailed)
}

func TestEngine_CorrelateAll_OutputText(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "run.1.csv", tttr.Photons{Times: []float64{1, 2, 3}, Channels: []uint8{0, 0, 0}})

	e := newTestEngine(t, store, WithOutputText("dilution"))
	res, err := e.CorrelateAll(context.Background(), "", "out/")
	require.NoError(t, err)
	assert.Equal(t, []string{"out/2024-05-06_tttr2xfcs_dilution_rundot1_0000_correlation.csv"}, res.Written)
}

func TestEngine_CorrelateAll_Canceled(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: []float64{1, 2}, Channels: []uint8{0, 0}})

	e := newTestEngine(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CorrelateAll(ctx, "in/", "out/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_MemoryLimit(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: []float64{1, 2, 3, 4}, Channels: []uint8{0, 0, 0, 0}})

	e := newTestEngine(t, store, WithMemoryLimit(8))
	_, err := e.CorrelateFile(context.Background(), "in/a.csv")
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), e.rc.MemoryUsage())

	e = newTestEngine(t, store, WithMemoryLimit(1<<20), WithIOLimit(1<<20))
	_, err = e.CorrelateFile(context.Background(), "in/a.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.rc.MemoryUsage())
}

func TestEngine_CorrelateFile_FailsFastOnMemory(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: []float64{1, 2, 3, 4}, Channels: []uint8{0, 0, 0, 0}})

	e := newTestEngine(t, store, WithMemoryLimit(1<<10))
	require.NoError(t, e.rc.WaitMemory(ctx, 1<<10))

	_, err := e.CorrelateFile(ctx, "in/a.csv")
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	_, err = e.CorrectAndCorrelate(ctx, "in/a.csv", 0, []float64{0, 0, 0, 0}, correction.DefaultOptions())
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	e.rc.ReleaseMemory(1 << 10)
	_, err = e.CorrelateFile(ctx, "in/a.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.rc.MemoryUsage())
}

func TestEngine_CorrelateAll_WaitsForMemory(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: []float64{1, 2, 3, 4}, Channels: []uint8{0, 0, 0, 0}})

	e := newTestEngine(t, store, WithMemoryLimit(1<<10))
	require.NoError(t, e.rc.WaitMemory(context.Background(), 1<<10))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := e.CorrelateAll(ctx, "in/", "out/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Written)

	e.rc.ReleaseMemory(1 << 10)
	res, err = e.CorrelateAll(context.Background(), "in/", "out/")
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)
	assert.Equal(t, int64(0), e.rc.MemoryUsage())
}

type countingStore struct {
	*blobstore.CompressedStore
	opens atomic.Int32
}

func (s *countingStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	s.opens.Add(1)
	return s.CompressedStore.Open(ctx, name)
}

func TestEngine_MemoryReservedBeforeDecode(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{
		CompressedStore: blobstore.NewCompressedStore(blobstore.NewMemoryStore(), blobstore.CompressionZSTD),
	}
	times, channels := testutil.NewRNG(3).Photons(1000, 50, 0)
	putPhotons(t, store, "in/a.csv", tttr.Photons{Times: times, Channels: channels})

	size, err := store.BlobSize(ctx, "in/a.csv")
	require.NoError(t, err)
	require.Greater(t, size, int64(1<<10))

	e := newTestEngine(t, store, WithMemoryLimit(1<<10))
	_, err = e.CorrelateFile(ctx, "in/a.csv")
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int32(0), store.opens.Load())

	e = newTestEngine(t, store, WithMemoryLimit(size))
	_, err = e.CorrelateFile(ctx, "in/a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.opens.Load())
	assert.Equal(t, int64(0), e.rc.MemoryUsage())
}

func TestEngine_LogsScopedToFileAndChannel(t *testing.T) {
	store := blobstore.NewMemoryStore()
	putPhotons(t, store, "in/a.csv", tttr.Photons{
		Times:    []float64{0, 1, 2, 3, 10},
		Channels: []uint8{0, 0, 0, 0, 1},
	})

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(t, store, WithLogger(logger))

	_, err := e.CorrelateFile(context.Background(), "in/a.csv")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "file=in/a.csv channel=1")
	assert.Contains(t, buf.String(), "correlate completed")

	buf.Reset()
	_, err = e.CorrectAndCorrelate(context.Background(), "in/a.csv", 0, []float64{0, 0, 0, 0}, correction.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "file=in/a.csv channel=0 method=delete")
}

func TestEngine_CorrectAndCorrelate(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	rng := testutil.NewRNG(3)

	// 100 bins of width 1000, with a bright burst in bins 40..49.
	times := rng.Arrivals(2000, 50)
	times = rng.Burst(times, 40000, 50000, 5)
	channels := make([]uint8, len(times))
	putPhotons(t, store, "in/burst.csv", tttr.Photons{Times: times, Channels: channels})

	predictions := make([]float64, 256)
	for i := 40; i < 50; i++ {
		predictions[i] = 0.9
	}

	cfg := tttr.Config{CascStart: 0, CascEnd: 6, Sub: 4, TimeDivisor: 1}
	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, store, WithCorrelationConfig(cfg), WithBinWindow(1000), WithMetricsCollector(metrics))

	methods := []correction.Method{correction.MethodDelete, correction.MethodDeleteAndShift, correction.MethodWeights}
	for _, m := range methods {
		t.Run(m.String(), func(t *testing.T) {
			opts := correction.DefaultOptions()
			opts.Method = m

			curve, err := e.CorrectAndCorrelate(ctx, "in/burst.csv", 0, predictions, opts)
			require.NoError(t, err)
			require.NotEmpty(t, curve.Lags)
			assert.Len(t, curve.G, len(curve.Lags))
		})
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.CorrectionCount)
	assert.Positive(t, stats.CorrectionRemoved)

	_, err := e.CorrectAndCorrelate(ctx, "in/burst.csv", 0, predictions[:5], correction.DefaultOptions())
	assert.ErrorIs(t, err, correction.ErrShortPrediction)
	assert.Equal(t, int64(1), metrics.GetStats().CorrectionErrors)

	_, err = e.CorrectAndCorrelate(ctx, "in/burst.csv", 3, predictions, correction.DefaultOptions())
	assert.ErrorIs(t, err, tttr.ErrNoPhotons)
}

func TestEngine_Close(t *testing.T) {
	e, err := New(blobstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), ErrClosed)

	ctx := context.Background()
	_, err = e.CorrelateFile(ctx, "a.csv")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.CorrelateAll(ctx, "", "")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.CorrectAndCorrelate(ctx, "a.csv", 0, nil, correction.DefaultOptions())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileError(t *testing.T) {
	cause := errors.New("boom")
	err := fileError("read", "x.csv", cause)
	assert.EqualError(t, err, "read x.csv: boom")
	assert.ErrorIs(t, err, cause)

	// an existing FileError is not wrapped again
	assert.Same(t, err, fileError("correlate", "y.csv", err))
	assert.NoError(t, fileError("read", "x.csv", nil))
}

func TestJoinPrefix(t *testing.T) {
	assert.Equal(t, "a.csv", joinPrefix("", "a.csv"))
	assert.Equal(t, "out/a.csv", joinPrefix("out", "a.csv"))
	assert.Equal(t, "out/a.csv", joinPrefix("out/", "a.csv"))
}
