package fluogo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fluogo/blobstore"
	"github.com/hupe1980/fluogo/correction"
	"github.com/hupe1980/fluogo/fcsfile"
	"github.com/hupe1980/fluogo/internal/resource"
	"github.com/hupe1980/fluogo/tttr"
)

// Engine correlates photon streams stored in a BlobStore.
// It is safe for concurrent use.
type Engine struct {
	store  blobstore.BlobStore
	opts   options
	rc     *resource.Controller
	closed atomic.Bool
}

// BatchResult summarises a CorrelateAll run.
type BatchResult struct {
	// Files are the input blobs in processing order.
	Files []string
	// Succeeded holds the indices into Files that were fully processed.
	Succeeded *roaring.Bitmap
	// Failed maps input blobs to the error that stopped them.
	Failed map[string]error
	// Written are the sorted names of the correlation files written.
	Written []string
	// Duration is the wall time of the run.
	Duration time.Duration
}

// New creates an Engine reading from and writing to store.
func New(store blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store: store,
		opts:  opts,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.memoryLimit,
			MaxWorkers:         int64(opts.maxWorkers),
			IOLimitBytesPerSec: opts.ioLimit,
		}),
	}, nil
}

// Close marks the engine closed. Subsequent operations return ErrClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// CorrelateFile autocorrelates every channel of the photon stream name.
//
// It does not wait for memory held by other operations: when the memory
// limit leaves no room for the file it fails with
// resource.ErrMemoryLimitExceeded.
func (e *Engine) CorrelateFile(ctx context.Context, name string) (map[uint8]*tttr.Curve, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	p, release, err := e.loadPhotons(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer release()

	return e.correlate(ctx, name, p)
}

// CorrelateAll correlates every .csv blob under inPrefix and writes one
// correlation file per channel under outPrefix.
//
// A file that cannot be read or correlated is recorded in BatchResult.Failed
// and does not stop the others. The returned error is non-nil only when the
// run itself fails, for example because ctx was canceled.
func (e *Engine) CorrelateAll(ctx context.Context, inPrefix, outPrefix string) (*BatchResult, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()

	names, err := e.store.List(ctx, inPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", inPrefix, err)
	}
	names = slices.DeleteFunc(names, func(n string) bool {
		return !strings.EqualFold(path.Ext(n), ".csv")
	})

	res := &BatchResult{
		Files:     names,
		Succeeded: roaring.New(),
		Failed:    make(map[string]error),
	}
	date := e.opts.clock()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		if err := e.rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()

			written, err := e.processFile(gctx, name, outPrefix, date)

			mu.Lock()
			defer mu.Unlock()
			res.Written = append(res.Written, written...)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				res.Failed[name] = err
				return nil
			}
			res.Succeeded.Add(uint32(i))
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	slices.Sort(res.Written)
	res.Duration = time.Since(start)

	e.opts.logger.LogBatch(ctx, len(names), len(res.Failed), len(res.Written), res.Duration)
	e.opts.metricsCollector.RecordBatch(len(names), len(res.Failed), res.Duration)

	if err != nil {
		return res, err
	}
	return res, nil
}

// CorrectAndCorrelate removes the artifacts predicted for channel ch of the
// photon stream name and autocorrelates the corrected channel.
//
// predictions holds one score per trace bin of width set by WithBinWindow.
// Like CorrelateFile it fails instead of waiting for memory.
func (e *Engine) CorrectAndCorrelate(ctx context.Context, name string, ch uint8, predictions []float64, copts correction.Options) (*tttr.Curve, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	p, release, err := e.loadPhotons(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer release()

	log := e.opts.logger.WithFile(name).WithChannel(ch)
	start := time.Now()
	res, err := e.correct(p, ch, predictions, copts)
	if err != nil {
		err = fileError("correct", name, err)
		log.LogCorrection(ctx, copts.Method.String(), 0, 0, err)
		e.opts.metricsCollector.RecordCorrection(0, time.Since(start), err)
		return nil, err
	}
	log.LogCorrection(ctx, copts.Method.String(), res.Artifacts.Count(), res.Removed, nil)
	e.opts.metricsCollector.RecordCorrection(res.Removed, time.Since(start), nil)

	var curve *tttr.Curve
	if res.Weights != nil {
		curve, err = tttr.WeightedAutoCorrelate(res.Times, res.Weights, e.opts.correlation)
	} else {
		channels := make([]uint8, len(res.Times))
		for i := range channels {
			channels[i] = ch
		}
		curve, err = tttr.AutoCorrelate(tttr.Photons{Times: res.Times, Channels: channels}, ch, e.opts.correlation)
	}
	e.opts.metricsCollector.RecordCorrelation(len(res.Times), time.Since(start), err)
	if err != nil {
		return nil, fileError("correlate", name, err)
	}
	return curve, nil
}

func (e *Engine) correct(p tttr.Photons, ch uint8, predictions []float64, copts correction.Options) (*correction.Result, error) {
	series, err := tttr.Bin(p, ch, e.opts.binWindow)
	if err != nil {
		return nil, err
	}
	return correction.Correct(correction.Input{
		Times:       p.Select(ch).Times,
		Series:      series,
		Predictions: predictions,
		TimeScale:   1,
	}, copts)
}

func (e *Engine) correlate(ctx context.Context, name string, p tttr.Photons) (map[uint8]*tttr.Curve, error) {
	log := e.opts.logger.WithFile(name)
	start := time.Now()
	curves := make(map[uint8]*tttr.Curve)

	err := func() error {
		channels := p.ChannelSet()
		if len(channels) == 0 {
			return tttr.ErrNoPhotons
		}
		for _, ch := range channels {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := tttr.AutoCorrelate(p, ch, e.opts.correlation)
			if err != nil {
				return fmt.Errorf("channel %d: %w", ch, err)
			}
			curves[ch] = c
			log.WithChannel(ch).DebugContext(ctx, "channel correlated", "lags", len(c.Lags))
		}
		return nil
	}()

	took := time.Since(start)
	if err != nil {
		err = fileError("correlate", name, err)
	}
	log.LogCorrelate(ctx, p.Len(), len(curves), took, err)
	e.opts.metricsCollector.RecordCorrelation(p.Len(), took, err)
	if err != nil {
		return nil, err
	}
	return curves, nil
}

func (e *Engine) processFile(ctx context.Context, name, outPrefix string, date time.Time) ([]string, error) {
	p, release, err := e.loadPhotons(ctx, name, true)
	if err != nil {
		return nil, err
	}
	defer release()

	curves, err := e.correlate(ctx, name, p)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	text := stem
	if e.opts.outputText != "" {
		text = e.opts.outputText + "_" + stem
	}

	var written []string
	for _, ch := range p.ChannelSet() {
		var buf bytes.Buffer
		if err := fcsfile.WriteCorrelation(&buf, e.header(name, p, ch), curves[ch]); err != nil {
			return written, fileError("encode", name, err)
		}
		out := joinPrefix(outPrefix, fcsfile.FileName(date, DefaultMethod, text, int(ch)))
		if err := e.rc.WaitIO(ctx, buf.Len()); err != nil {
			return written, err
		}
		if err := e.store.Put(ctx, out, buf.Bytes()); err != nil {
			return written, fileError("write", out, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// header fills the counting statistics of channel ch when the stream spans
// at least one full bin.
func (e *Engine) header(name string, p tttr.Photons, ch uint8) fcsfile.Header {
	h := fcsfile.DefaultHeader(name)
	h.ChannelType = fmt.Sprintf("%d_%d", ch, ch)
	h.Column = fmt.Sprintf("CH%d Auto-Correlation", ch)

	series, err := tttr.Bin(p, ch, e.opts.binWindow)
	if err != nil {
		return h
	}
	st, err := tttr.CountingStats(series)
	if err != nil {
		return h
	}
	h.KCount = st.KCount
	h.NumberNandB = st.Number
	h.BrightnessNandB = st.Brightness
	return h
}

// loadPhotons reads and parses name. release returns the memory reservation.
// With wait set the reservation blocks until memory is free, otherwise it
// fails fast.
func (e *Engine) loadPhotons(ctx context.Context, name string, wait bool) (tttr.Photons, func(), error) {
	data, release, err := e.readBlob(ctx, name, wait)
	if err != nil {
		return tttr.Photons{}, nil, fileError("read", name, err)
	}
	p, err := fcsfile.ReadPhotons(bytes.NewReader(data))
	if err != nil {
		release()
		return tttr.Photons{}, nil, fileError("parse", name, err)
	}
	return p, release, nil
}

func (e *Engine) reserveMemory(ctx context.Context, size int64, wait bool) error {
	if wait {
		return e.rc.WaitMemory(ctx, size)
	}
	return e.rc.AcquireMemory(size)
}

// readBlob returns the content of name. The memory limit covers the returned
// bytes and is reserved before a Sizer store decodes the blob. Mappable blobs
// are returned without a copy and stay open until release.
func (e *Engine) readBlob(ctx context.Context, name string, wait bool) ([]byte, func(), error) {
	var reserved int64
	release := func() { e.rc.ReleaseMemory(reserved) }

	if sz, ok := e.store.(blobstore.Sizer); ok {
		size, err := sz.BlobSize(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		if err := e.reserveMemory(ctx, size, wait); err != nil {
			return nil, nil, err
		}
		reserved = size
	}

	b, err := e.store.Open(ctx, name)
	if err != nil {
		release()
		return nil, nil, err
	}
	size := b.Size()
	if extra := size - reserved; extra > 0 {
		if err := e.reserveMemory(ctx, extra, wait); err != nil {
			b.Close()
			release()
			return nil, nil, err
		}
		reserved = size
	}

	if err := e.rc.WaitIO(ctx, int(size)); err != nil {
		b.Close()
		release()
		return nil, nil, err
	}

	if m, ok := b.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			b.Close()
			release()
			return nil, nil, err
		}
		return data, func() {
			b.Close()
			release()
		}, nil
	}
	defer b.Close()

	buf := make([]byte, size)
	if size > 0 {
		n, err := b.ReadAt(ctx, buf, 0)
		if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
			release()
			return nil, nil, err
		}
	}
	return buf, release, nil
}

func joinPrefix(prefix, name string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix + name
	}
	return prefix + "/" + name
}
