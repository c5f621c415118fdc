package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec used by CompressedStore.
type Compression uint8

const (
	// CompressionNone stores blobs as-is behind the frame header.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for photon streams read often).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses Zstandard (better ratio, good for archived results).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ErrCorruptFrame is returned when a compressed blob cannot be decoded.
var ErrCorruptFrame = errors.New("blobstore: corrupt compressed frame")

// Frame format: [Codec uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the payload is stored uncompressed.
const frameHeaderSize = 9

// Payloads that shrink by less than this factor are stored raw.
const maxCompressionRatio = 0.9

// An LZ4 block expands at most 255 times: a single length byte of 0xFF adds
// 255 to a match.
const lz4MaxExpansion = 255

// The densest zstd block is a 4 byte RLE block of 128 KiB.
const zstdMaxExpansion = (128 << 10) / 4

// maxFrameSize is the largest payload the 32-bit size fields can describe.
var maxFrameSize uint64 = math.MaxUint32

// ErrFrameTooLarge is returned by Put for payloads a frame cannot describe.
var ErrFrameTooLarge = errors.New("blobstore: payload too large for compressed frame")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(math.MaxUint32))
	return dec
}

// CompressedStore wraps a BlobStore and transparently compresses blob payloads.
// Names and listing are passed through unchanged.
type CompressedStore struct {
	inner BlobStore
	codec Compression
}

// NewCompressedStore returns a store that writes blobs with codec.
// Reads detect the codec from the frame header, so blobs written with a
// different codec stay readable.
func NewCompressedStore(inner BlobStore, codec Compression) *CompressedStore {
	return &CompressedStore{inner: inner, codec: codec}
}

// Open reads and decodes the full blob.
func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	raw, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	data, err := decodeFrame(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &bytesBlob{data: data}, nil
}

// BlobSize returns the decoded size recorded in the frame header of name.
// Only the header is read.
func (s *CompressedStore) BlobSize(ctx context.Context, name string) (int64, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	if b.Size() < frameHeaderSize {
		return 0, fmt.Errorf("%s: %w", name, ErrCorruptFrame)
	}
	var hdr [frameHeaderSize]byte
	n, err := b.ReadAt(ctx, hdr[:], 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(hdr)) {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint32(hdr[1:])), nil
}

// Put encodes data and writes it to the wrapped store.
func (s *CompressedStore) Put(ctx context.Context, name string, data []byte) error {
	frame, err := encodeFrame(data, s.codec)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, name, frame)
}

// Delete removes a blob.
func (s *CompressedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns all blob names with the given prefix.
func (s *CompressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func encodeFrame(data []byte, codec Compression) ([]byte, error) {
	if uint64(len(data)) > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	var compressed []byte

	switch codec {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %d", codec)
	}

	payload := compressed
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*maxCompressionRatio {
		payload = data
		compressed = nil
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	frame[0] = byte(codec)
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(compressed)))
	copy(frame[frameHeaderSize:], payload)
	return frame, nil
}

func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, ErrCorruptFrame
	}
	codec := Compression(frame[0])
	size := binary.LittleEndian.Uint32(frame[1:])
	compressedSize := binary.LittleEndian.Uint32(frame[5:])
	body := frame[frameHeaderSize:]

	if compressedSize == 0 {
		if uint64(len(body)) != uint64(size) {
			return nil, ErrCorruptFrame
		}
		return append([]byte(nil), body...), nil
	}
	if uint64(len(body)) != uint64(compressedSize) {
		return nil, ErrCorruptFrame
	}

	switch codec {
	case CompressionLZ4:
		if uint64(size) > uint64(len(body))*lz4MaxExpansion {
			return nil, fmt.Errorf("%w: size %d exceeds lz4 bound of %d byte body", ErrCorruptFrame, size, len(body))
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if n != int(size) {
			return nil, ErrCorruptFrame
		}
		return out, nil
	case CompressionZSTD:
		if uint64(size) > uint64(len(body))*zstdMaxExpansion {
			return nil, fmt.Errorf("%w: size %d exceeds zstd bound of %d byte body", ErrCorruptFrame, size, len(body))
		}
		var h zstd.Header
		if err := h.Decode(body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(size) {
			return nil, fmt.Errorf("%w: zstd content size %d, frame size %d", ErrCorruptFrame, h.FrameContentSize, size)
		}
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if len(out) != int(size) {
			return nil, ErrCorruptFrame
		}
		return out, nil
	default:
		return nil, ErrCorruptFrame
	}
}
