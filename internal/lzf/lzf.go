// Package lzf implements the LZF block compression format used by the
// binary_compressed PCD payload.
//
// LZF alternates literal runs with back-references into the already
// produced output. A control byte below 32 introduces a literal run of
// control+1 raw bytes; anything else is a back-reference whose length sits
// in the top three bits (with an extension byte once it saturates) and
// whose offset combines the low five bits with a trailing byte.
//
// Both directions operate on caller-provided buffers and never write past
// them. Compression keeps all state local to the call, so it is safe to
// call from multiple goroutines.
package lzf

import "errors"

var (
	// ErrCorrupt is returned when the compressed stream references data
	// outside the produced output or ends mid-token.
	ErrCorrupt = errors.New("lzf: corrupt compressed data")

	// ErrShortBuffer is returned when the destination buffer cannot hold
	// the produced output.
	ErrShortBuffer = errors.New("lzf: destination buffer too small")
)

const (
	htabSize = 1 << 14 // hash table slots for the match finder
	maxOff   = 8191    // largest encodable back-reference offset
	maxRef   = 264     // largest encodable match length
	maxLit   = 32      // largest literal run per control byte
)

// Decompress expands src into dst and returns the number of bytes written.
// dst must be sized to the expected expanded length; a stream that would
// overflow it fails with ErrShortBuffer rather than writing out of bounds.
func Decompress(src, dst []byte) (int, error) {
	ip, op := 0, 0

	for ip < len(src) {
		ctrl := int(src[ip])
		ip++

		if ctrl < 32 {
			// Literal run of ctrl+1 bytes.
			n := ctrl + 1
			if ip+n > len(src) {
				return 0, ErrCorrupt
			}
			if op+n > len(dst) {
				return 0, ErrShortBuffer
			}
			copy(dst[op:], src[ip:ip+n])
			ip += n
			op += n
			continue
		}

		// Back-reference.
		n := (ctrl >> 5) + 2
		off := (ctrl&0x1f)<<8 + 1
		if n == 9 {
			if ip >= len(src) {
				return 0, ErrCorrupt
			}
			n += int(src[ip])
			ip++
		}
		if ip >= len(src) {
			return 0, ErrCorrupt
		}
		off += int(src[ip])
		ip++

		ref := op - off
		if ref < 0 {
			return 0, ErrCorrupt
		}
		if op+n > len(dst) {
			return 0, ErrShortBuffer
		}
		// Byte-by-byte copy: the windows may overlap for run-length
		// style repeats.
		for range n {
			dst[op] = dst[ref]
			op++
			ref++
		}
	}

	return op, nil
}

// Compress writes the compressed form of src into dst and returns the
// number of bytes produced. An empty src produces no output. dst should be
// sized generously (incompressible input grows by one control byte per 32
// literals); ErrShortBuffer is returned when it does not fit.
func Compress(src, dst []byte) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}
	if len(src) < 3 {
		// Too small for a match, emit as one literal run.
		if len(src)+1 > len(dst) {
			return 0, ErrShortBuffer
		}
		dst[0] = byte(len(src) - 1)
		copy(dst[1:], src)
		return len(src) + 1, nil
	}

	// Slots hold position+1 so the zero value means empty.
	htab := make([]int, htabSize)

	op := 0
	lit := 0 // start of the pending literal run
	ip := 1

	for ip < len(src)-2 {
		h := (uint32(src[ip])<<8 | uint32(src[ip+1])) ^ uint32(src[ip+2])<<5
		h = (h >> 2) ^ h
		h &= htabSize - 1

		ref := htab[h] - 1
		htab[h] = ip + 1

		off := ip - ref
		if ref < 0 || off > maxOff || src[ref] != src[ip] || src[ref+1] != src[ip+1] || src[ref+2] != src[ip+2] {
			ip++
			continue
		}

		// Flush the literals gathered before this match.
		if n := ip - lit; n > 0 {
			if op+n+1 >= len(dst) {
				return 0, ErrShortBuffer
			}
			var err error
			op, lit, err = flushLiterals(dst, op, src, lit, n)
			if err != nil {
				return 0, err
			}
		}

		// Extend the match as far as the format allows.
		n := 3
		max := min(len(src)-ip, maxRef)
		for n < max && src[ip+n] == src[ref+n] {
			n++
		}

		if op+2 >= len(dst) {
			return 0, ErrShortBuffer
		}
		if n <= 8 {
			dst[op] = byte((n-2)<<5 | (off-1)>>8)
			dst[op+1] = byte(off - 1)
			op += 2
		} else {
			dst[op] = byte(7<<5 | (off-1)>>8)
			dst[op+1] = byte(n - 9)
			op += 2
			if op >= len(dst) {
				return 0, ErrShortBuffer
			}
			dst[op] = byte(off - 1)
			op++
		}

		ip += n
		lit = ip
	}

	// Trailing literals, including the final two bytes the match loop
	// never visits.
	if n := len(src) - lit; n > 0 {
		if op+n+(n+maxLit-1)/maxLit >= len(dst) {
			return 0, ErrShortBuffer
		}
		var err error
		op, _, err = flushLiterals(dst, op, src, lit, n)
		if err != nil {
			return 0, err
		}
	}

	return op, nil
}

// flushLiterals emits src[lit:lit+n] as literal runs of at most maxLit
// bytes each and returns the advanced output and literal positions.
func flushLiterals(dst []byte, op int, src []byte, lit, n int) (int, int, error) {
	for n > maxLit {
		if op+1+maxLit > len(dst) {
			return 0, 0, ErrShortBuffer
		}
		dst[op] = maxLit - 1
		op++
		copy(dst[op:], src[lit:lit+maxLit])
		op += maxLit
		lit += maxLit
		n -= maxLit
	}
	if n > 0 {
		if op+1+n > len(dst) {
			return 0, 0, ErrShortBuffer
		}
		dst[op] = byte(n - 1)
		op++
		copy(dst[op:], src[lit:lit+n])
		op += n
		lit += n
	}
	return op, lit, nil
}
