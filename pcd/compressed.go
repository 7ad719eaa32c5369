package pcd

import (
	"encoding/binary"
	"fmt"

	"github.com/sddavis14/semantic-segmentation-cloud-labeler/internal/lzf"
)

// The binary_compressed payload is two little-endian uint32 size prefixes
// (compressed, then uncompressed) followed by the LZF stream. Unlike the
// plain binary payload, the expanded bytes are field-major: all values of
// the first field back to back, then all values of the second, and so on.

// decodeBinaryCompressed expands the payload and decodes each field from
// its offset in the field-major buffer. An expanded size that does not
// match the declared one marks the file as corrupt.
func decodeBinaryCompressed(c *Cloud, payload []byte) error {
	if len(payload) < 8 {
		return fmt.Errorf("%w: missing size prefixes", ErrCorruptPayload)
	}
	compressedSize := int(binary.LittleEndian.Uint32(payload))
	uncompressedSize := int(binary.LittleEndian.Uint32(payload[4:]))
	if len(payload) < 8+compressedSize {
		return fmt.Errorf("%w: truncated compressed block", ErrCorruptPayload)
	}

	raw := make([]byte, uncompressedSize)
	n, err := lzf.Decompress(payload[8:8+compressedSize], raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	if n != uncompressedSize {
		return fmt.Errorf("%w: expanded to %d bytes, header declares %d", ErrCorruptPayload, n, uncompressedSize)
	}

	// Clamp the declared point count by what the expanded buffer can
	// actually hold, keeping the per-field base offsets inside the
	// buffer no matter what the header claims.
	points := c.Header.Points
	if ps := c.Header.PointSize(); ps > 0 && points > len(raw)/ps {
		points = len(raw) / ps
	}

	base := 0
	for i, f := range c.Header.Fields {
		stride := f.stride()
		for pt := 0; pt < points; pt++ {
			off := base + pt*stride
			if off+f.Size > len(raw) {
				break
			}
			c.cols[i].appendNative(raw[off : off+f.Size])
		}
		base += stride * points
	}
	return nil
}

// encodeBinaryCompressed serializes every column contiguously, compresses
// the concatenation with LZF and prepends the two size prefixes.
func encodeBinaryCompressed(c *Cloud) ([]byte, error) {
	n := c.NumPoints()

	total := 0
	for _, f := range c.Header.Fields {
		total += f.stride() * n
	}

	raw := make([]byte, total)
	base := 0
	for i, f := range c.Header.Fields {
		stride := f.stride()
		for pt := 0; pt < n && pt < c.cols[i].Len(); pt++ {
			pos := base + pt*stride
			c.cols[i].putNative(raw[pos:pos+f.Size], pt)
		}
		base += stride * n
	}

	compressed := make([]byte, total+total/8+16)
	m, err := lzf.Compress(raw, compressed)
	if err != nil {
		return nil, fmt.Errorf("compress point data: %w", err)
	}

	out := make([]byte, 8+m)
	binary.LittleEndian.PutUint32(out, uint32(m))
	binary.LittleEndian.PutUint32(out[4:], uint32(total))
	copy(out[8:], compressed[:m])
	return out, nil
}
