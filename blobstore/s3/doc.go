// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("fcs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	engine, err := fluogo.New(store)
//
// # Features
//
//   - Range reads for partial fetches of large photon streams
//   - Multipart uploads through the S3 transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix for sharing a bucket between experiments
package s3
