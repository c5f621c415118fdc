// Package resource bounds the resources used by batch correlation.
//
// The Controller manages three limits:
//
//   - Workers: concurrent correlation jobs (weighted semaphore)
//   - Memory: bytes of photon data held in memory at once
//   - IO: blob read and write throughput (token bucket)
//
// # Memory
//
// AcquireMemory is non-blocking and fails fast with ErrMemoryLimitExceeded.
// WaitMemory blocks until the reservation fits. A reservation larger than
// the whole limit can never fit and fails with ErrMemoryLimitExceeded.
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
//	if err := rc.WaitMemory(ctx, size); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(size)
//
// # IO
//
// WaitIO accepts requests larger than the burst and waits for them in
// burst-sized chunks.
//
// # Nil Safety
//
// All methods handle a nil Controller; they become no-ops.
package resource
