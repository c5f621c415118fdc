// Package fs provides the filesystem abstraction behind blobstore.LocalStore
// writes, for testability and fault injection.
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync and close errors
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 16})
//	store := blobstore.NewLocalStoreFS(dir, ffs)
//
// Operations take no context.Context: local syscalls cannot be interrupted.
package fs
