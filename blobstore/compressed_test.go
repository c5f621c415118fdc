package blobstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedStore(t *testing.T) {
	ctx := context.Background()
	compressible := bytes.Repeat([]byte("1024,0\n2048,1\n"), 500)
	incompressible := []byte("ab")

	codecs := []Compression{CompressionNone, CompressionLZ4, CompressionZSTD}

	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			inner := NewMemoryStore()
			store := NewCompressedStore(inner, codec)

			for _, data := range [][]byte{compressible, incompressible, {}} {
				require.NoError(t, store.Put(ctx, "blob", data))

				blob, err := store.Open(ctx, "blob")
				require.NoError(t, err)
				assert.Equal(t, int64(len(data)), blob.Size())
				require.NoError(t, blob.Close())

				got, err := ReadAll(ctx, store, "blob")
				require.NoError(t, err)
				assert.Equal(t, len(data), len(got))
				assert.True(t, bytes.Equal(data, got))
			}

			require.NoError(t, store.Put(ctx, "blob", compressible))
			raw, err := ReadAll(ctx, inner, "blob")
			require.NoError(t, err)
			if codec == CompressionNone {
				assert.Len(t, raw, frameHeaderSize+len(compressible))
			} else {
				assert.Less(t, len(raw), len(compressible))
			}

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"blob"}, names)
			require.NoError(t, store.Delete(ctx, "blob"))
		})
	}
}

func TestCompressedStore_ReadsOtherCodecs(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	data := bytes.Repeat([]byte("photon"), 1000)

	require.NoError(t, NewCompressedStore(inner, CompressionZSTD).Put(ctx, "z", data))
	require.NoError(t, NewCompressedStore(inner, CompressionLZ4).Put(ctx, "l", data))

	reader := NewCompressedStore(inner, CompressionNone)
	for _, name := range []string{"z", "l"} {
		got, err := ReadAll(ctx, reader, name)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestCompressedStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store := NewCompressedStore(inner, CompressionLZ4)

	require.NoError(t, inner.Put(ctx, "short", []byte{1, 2}))
	_, err := store.Open(ctx, "short")
	assert.ErrorIs(t, err, ErrCorruptFrame)

	require.NoError(t, store.Put(ctx, "ok", bytes.Repeat([]byte("a"), 4096)))
	raw, err := ReadAll(ctx, inner, "ok")
	require.NoError(t, err)
	require.NoError(t, inner.Put(ctx, "truncated", raw[:len(raw)-1]))
	_, err = store.Open(ctx, "truncated")
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompressedStore_OversizedHeader(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store := NewCompressedStore(inner, CompressionNone)

	frame := func(codec Compression, size uint32, body []byte) []byte {
		f := make([]byte, frameHeaderSize, frameHeaderSize+len(body))
		f[0] = byte(codec)
		binary.LittleEndian.PutUint32(f[1:], size)
		binary.LittleEndian.PutUint32(f[5:], uint32(len(body)))
		return append(f, body...)
	}

	tests := []struct {
		name  string
		frame []byte
	}{
		{"lz4 claims 2GiB", frame(CompressionLZ4, 1<<31, []byte{0x10, 'a', 0, 0})},
		{"zstd claims 2GiB", frame(CompressionZSTD, 1<<31, []byte{0x28, 0xb5, 0x2f, 0xfd})},
		{"lz4 above bound", frame(CompressionLZ4, 4*lz4MaxExpansion+1, []byte{0x10, 'a', 0, 0})},
		{"zstd not a frame", frame(CompressionZSTD, 16, []byte{1, 2, 3, 4})},
		{"unknown codec", frame(Compression(9), 16, []byte{1, 2, 3, 4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, inner.Put(ctx, "bad", tt.frame))
			_, err := store.Open(ctx, "bad")
			assert.ErrorIs(t, err, ErrCorruptFrame)
		})
	}
}

func TestCompressedStore_ZstdSizeMismatch(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store := NewCompressedStore(inner, CompressionZSTD)

	require.NoError(t, store.Put(ctx, "ok", bytes.Repeat([]byte("0,1\n"), 2048)))
	raw, err := ReadAll(ctx, inner, "ok")
	require.NoError(t, err)
	require.NotZero(t, binary.LittleEndian.Uint32(raw[5:]))

	binary.LittleEndian.PutUint32(raw[1:], binary.LittleEndian.Uint32(raw[1:])+1)
	require.NoError(t, inner.Put(ctx, "bad", raw))
	_, err = store.Open(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestCompressedStore_PutTooLarge(t *testing.T) {
	old := maxFrameSize
	maxFrameSize = 8
	t.Cleanup(func() { maxFrameSize = old })

	store := NewCompressedStore(NewMemoryStore(), CompressionLZ4)
	err := store.Put(context.Background(), "big", make([]byte, 9))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	require.NoError(t, store.Put(context.Background(), "fits", make([]byte, 8)))
}

func TestCompressedStore_BlobSize(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store := NewCompressedStore(inner, CompressionZSTD)
	data := bytes.Repeat([]byte("12,0\n"), 1000)

	require.NoError(t, store.Put(ctx, "blob", data))
	size, err := store.BlobSize(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	raw, err := ReadAll(ctx, inner, "blob")
	require.NoError(t, err)
	assert.Less(t, len(raw), len(data))

	require.NoError(t, inner.Put(ctx, "short", []byte{1}))
	_, err = store.BlobSize(ctx, "short")
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = store.BlobSize(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var _ Sizer = store
	var _ Sizer = inner
}
