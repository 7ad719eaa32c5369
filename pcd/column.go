package pcd

import (
	"encoding/binary"
	"math"
	"strconv"
)

// scalar is the closed set of element types a column can store.
type scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// column is the typed buffer behind one schema field. The concrete type is
// always a *buffer[T] for one of the scalar variants; codecs drive it
// through this interface while the per-element work stays monomorphic.
type column interface {
	Len() int
	grow(n int)

	// appendParsed parses one text token and appends it, substituting the
	// zero value when the token is malformed or out of range.
	appendParsed(tok string)
	// appendNative appends one element read from p in wire byte order.
	appendNative(p []byte)
	// appendText appends the text form of element i to dst.
	appendText(dst []byte, i int) []byte
	// putNative writes element i into dst in wire byte order.
	putNative(dst []byte, i int)
	// setUint32s replaces the whole buffer with the given values,
	// converted to the column's element type.
	setUint32s(vals []uint32)

	float32s() []float32
	float64s() []float64
	uint32s() []uint32
}

// newColumn allocates empty storage of the type the descriptor declares.
// Unsupported kind/size combinations fall back to float32, mirroring the
// permissive header policy.
func newColumn(f Field) column {
	switch f.Kind {
	case KindSigned:
		switch f.Size {
		case 1:
			return &buffer[int8]{}
		case 2:
			return &buffer[int16]{}
		case 4:
			return &buffer[int32]{}
		case 8:
			return &buffer[int64]{}
		}
	case KindUnsigned:
		switch f.Size {
		case 1:
			return &buffer[uint8]{}
		case 2:
			return &buffer[uint16]{}
		case 4:
			return &buffer[uint32]{}
		case 8:
			return &buffer[uint64]{}
		}
	case KindFloat:
		if f.Size == 8 {
			return &buffer[float64]{}
		}
	}
	return &buffer[float32]{}
}

type buffer[T scalar] struct {
	data []T
}

func (b *buffer[T]) Len() int { return len(b.data) }

func (b *buffer[T]) grow(n int) {
	if cap(b.data)-len(b.data) < n {
		grown := make([]T, len(b.data), len(b.data)+n)
		copy(grown, b.data)
		b.data = grown
	}
}

func (b *buffer[T]) appendParsed(tok string) {
	var v T
	switch p := any(&v).(type) {
	case *int8:
		if n, err := strconv.ParseInt(tok, 10, 8); err == nil {
			*p = int8(n)
		}
	case *int16:
		if n, err := strconv.ParseInt(tok, 10, 16); err == nil {
			*p = int16(n)
		}
	case *int32:
		if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
			*p = int32(n)
		}
	case *int64:
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			*p = n
		}
	case *uint8:
		if n, err := strconv.ParseUint(tok, 10, 8); err == nil {
			*p = uint8(n)
		}
	case *uint16:
		if n, err := strconv.ParseUint(tok, 10, 16); err == nil {
			*p = uint16(n)
		}
	case *uint32:
		if n, err := strconv.ParseUint(tok, 10, 32); err == nil {
			*p = uint32(n)
		}
	case *uint64:
		if n, err := strconv.ParseUint(tok, 10, 64); err == nil {
			*p = n
		}
	case *float32:
		if f, err := strconv.ParseFloat(tok, 32); err == nil {
			*p = float32(f)
		}
	case *float64:
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			*p = f
		}
	}
	b.data = append(b.data, v)
}

func (b *buffer[T]) appendNative(p []byte) {
	// Length guards cover fallback columns whose element width exceeds
	// the declared field size; short input appends the zero value.
	var v T
	switch q := any(&v).(type) {
	case *int8:
		if len(p) >= 1 {
			*q = int8(p[0])
		}
	case *int16:
		if len(p) >= 2 {
			*q = int16(binary.LittleEndian.Uint16(p))
		}
	case *int32:
		if len(p) >= 4 {
			*q = int32(binary.LittleEndian.Uint32(p))
		}
	case *int64:
		if len(p) >= 8 {
			*q = int64(binary.LittleEndian.Uint64(p))
		}
	case *uint8:
		if len(p) >= 1 {
			*q = p[0]
		}
	case *uint16:
		if len(p) >= 2 {
			*q = binary.LittleEndian.Uint16(p)
		}
	case *uint32:
		if len(p) >= 4 {
			*q = binary.LittleEndian.Uint32(p)
		}
	case *uint64:
		if len(p) >= 8 {
			*q = binary.LittleEndian.Uint64(p)
		}
	case *float32:
		if len(p) >= 4 {
			*q = math.Float32frombits(binary.LittleEndian.Uint32(p))
		}
	case *float64:
		if len(p) >= 8 {
			*q = math.Float64frombits(binary.LittleEndian.Uint64(p))
		}
	}
	b.data = append(b.data, v)
}

func (b *buffer[T]) appendText(dst []byte, i int) []byte {
	switch v := any(b.data[i]).(type) {
	case int8:
		return strconv.AppendInt(dst, int64(v), 10)
	case int16:
		return strconv.AppendInt(dst, int64(v), 10)
	case int32:
		return strconv.AppendInt(dst, int64(v), 10)
	case int64:
		return strconv.AppendInt(dst, v, 10)
	case uint8:
		return strconv.AppendUint(dst, uint64(v), 10)
	case uint16:
		return strconv.AppendUint(dst, uint64(v), 10)
	case uint32:
		return strconv.AppendUint(dst, uint64(v), 10)
	case uint64:
		return strconv.AppendUint(dst, v, 10)
	case float32:
		// Shortest representation that survives a round trip; packed
		// colors land in the denormal range and must re-parse exactly.
		return strconv.AppendFloat(dst, float64(v), 'g', -1, 32)
	case float64:
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	}
	return dst
}

func (b *buffer[T]) putNative(dst []byte, i int) {
	// A destination narrower than the element (fallback columns only)
	// keeps its zero bytes instead of spilling into neighbors.
	switch v := any(b.data[i]).(type) {
	case int8:
		if len(dst) >= 1 {
			dst[0] = byte(v)
		}
	case int16:
		if len(dst) >= 2 {
			binary.LittleEndian.PutUint16(dst, uint16(v))
		}
	case int32:
		if len(dst) >= 4 {
			binary.LittleEndian.PutUint32(dst, uint32(v))
		}
	case int64:
		if len(dst) >= 8 {
			binary.LittleEndian.PutUint64(dst, uint64(v))
		}
	case uint8:
		if len(dst) >= 1 {
			dst[0] = v
		}
	case uint16:
		if len(dst) >= 2 {
			binary.LittleEndian.PutUint16(dst, v)
		}
	case uint32:
		if len(dst) >= 4 {
			binary.LittleEndian.PutUint32(dst, v)
		}
	case uint64:
		if len(dst) >= 8 {
			binary.LittleEndian.PutUint64(dst, v)
		}
	case float32:
		if len(dst) >= 4 {
			binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
		}
	case float64:
		if len(dst) >= 8 {
			binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
		}
	}
}

func (b *buffer[T]) setUint32s(vals []uint32) {
	b.data = b.data[:0]
	for _, v := range vals {
		b.data = append(b.data, T(v))
	}
}

func (b *buffer[T]) float32s() []float32 {
	out := make([]float32, len(b.data))
	for i, v := range b.data {
		out[i] = float32(v)
	}
	return out
}

func (b *buffer[T]) float64s() []float64 {
	out := make([]float64, len(b.data))
	for i, v := range b.data {
		out[i] = float64(v)
	}
	return out
}

func (b *buffer[T]) uint32s() []uint32 {
	out := make([]uint32, len(b.data))
	for i, v := range b.data {
		out[i] = uint32(v)
	}
	return out
}
