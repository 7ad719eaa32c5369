package cloudcache

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec for cache entries.
type Compression uint8

const (
	// CompressionLZ4 favors decode speed; the default for hot caches.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades decode speed for a better ratio.
	CompressionZSTD Compression = 2
)

// Encoder/decoder pools so repeated Put/Get calls reuse zstd state.
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
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [uncompressedSize uint32][compressedSize uint32][data].
// compressedSize == 0 means the data is stored raw, which happens when
// compression would not shrink it.
const blockHeaderSize = 8

func compressBlock(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		compressed = enc.EncodeAll(data, nil)
	default:
		return nil, errors.New("cloudcache: unknown compression type")
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		// Store raw.
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out, uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out, uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func decompressBlock(block []byte, c Compression) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, errors.New("cloudcache: block too small for header")
	}
	uncompressedSize := int(binary.LittleEndian.Uint32(block))
	compressedSize := int(binary.LittleEndian.Uint32(block[4:]))

	if compressedSize == 0 {
		if len(block) < blockHeaderSize+uncompressedSize {
			return nil, errors.New("cloudcache: truncated raw block")
		}
		return block[blockHeaderSize : blockHeaderSize+uncompressedSize], nil
	}
	if len(block) < blockHeaderSize+compressedSize {
		return nil, errors.New("cloudcache: truncated compressed block")
	}
	data := block[blockHeaderSize : blockHeaderSize+compressedSize]

	switch c {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != uncompressedSize {
			return nil, errors.New("cloudcache: decompressed size mismatch")
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if len(out) != uncompressedSize {
			return nil, errors.New("cloudcache: decompressed size mismatch")
		}
		return out, nil
	default:
		return nil, errors.New("cloudcache: unknown compression type")
	}
}
