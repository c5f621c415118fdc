// Package fluogo provides photon-level fluorescence correlation spectroscopy
// (FCS) analysis for Go.
//
// Photon streams are time-tagged arrivals with a detector channel. The
// tttr package correlates them with a multi-level cascade that pairs
// photons through the sorted-array intersector in package intersect.
// The Engine in this package runs that pipeline over a blobstore.BlobStore:
// it reads time,channel CSV files, correlates every channel and writes the
// curves in the FCSfitJS correlation format.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./data")
//	engine, _ := fluogo.New(store,
//	    fluogo.WithMaxWorkers(4),
//	    fluogo.WithLogger(fluogo.NewTextLogger(slog.LevelInfo)),
//	)
//	defer engine.Close()
//
//	res, err := engine.CorrelateAll(ctx, "photons/", "correlations/")
//	for name, err := range res.Failed {
//	    log.Printf("%s: %v", name, err)
//	}
//
// # Artifact Correction
//
// A classifier scoring each trace bin (width set by WithBinWindow) drives
// CorrectAndCorrelate:
//
//	opts := correction.DefaultOptions()
//	opts.Method = correction.MethodDeleteAndShift
//	curve, err := engine.CorrectAndCorrelate(ctx, "photons/run1.csv", 0, scores, opts)
//
// # Storage
//
// Any BlobStore works: local files (mmap), memory, S3 (blobstore/s3) and
// MinIO (blobstore/minio). Wrap a store with blobstore.NewCompressedStore to
// keep photon streams LZ4 or Zstandard compressed.
//
// # Resource Limits
//
// WithMaxWorkers, WithMemoryLimit and WithIOLimit bound concurrent files,
// photon bytes held in memory and blob throughput.
package fluogo
