package pcd

import (
	"math"
	"strings"
)

// The writer repacks color columns to match the target encoding: text
// output gets three readable byte columns, binary output gets the compact
// packed float PCL viewers expect. The reader never repacks.

// unpackRGB replaces a packed 4-byte float rgb column with separate r, g
// and b unsigned byte columns, preserving the relative order of all other
// columns. When no such column exists the cloud passes through unchanged.
func unpackRGB(c *Cloud) *Cloud {
	idx := -1
	for i, f := range c.Header.Fields {
		if strings.ToLower(f.Name) == "rgb" && f.Kind == KindFloat && f.Size == 4 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c
	}
	packed, ok := c.cols[idx].(*buffer[float32])
	if !ok {
		return c
	}

	n := len(packed.data)
	rs := &buffer[uint8]{data: make([]uint8, n)}
	gs := &buffer[uint8]{data: make([]uint8, n)}
	bs := &buffer[uint8]{data: make([]uint8, n)}
	for i, v := range packed.data {
		bits := math.Float32bits(v)
		rs.data[i] = uint8(bits >> 16)
		gs.data[i] = uint8(bits >> 8)
		bs.data[i] = uint8(bits)
	}

	out := &Cloud{Header: c.Header}
	out.Header.Fields = nil
	out.Header.byName = nil
	for i, f := range c.Header.Fields {
		if i == idx {
			out.Header.AddField(Field{Name: "r", Size: 1, Kind: KindUnsigned, Count: 1})
			out.Header.AddField(Field{Name: "g", Size: 1, Kind: KindUnsigned, Count: 1})
			out.Header.AddField(Field{Name: "b", Size: 1, Kind: KindUnsigned, Count: 1})
			out.cols = append(out.cols, rs, gs, bs)
			continue
		}
		out.Header.AddField(f)
		out.cols = append(out.cols, c.cols[i])
	}
	return out
}

// packRGB is the inverse: separate unsigned byte r, g and b columns are
// combined per point into one packed float column named rgb, emitted at
// the position of the former r column. When any of the three is missing
// the cloud passes through unchanged.
func packRGB(c *Cloud) *Cloud {
	ri, gi, bi := -1, -1, -1
	for i, f := range c.Header.Fields {
		if f.Kind != KindUnsigned || f.Size != 1 {
			continue
		}
		switch strings.ToLower(f.Name) {
		case "r":
			ri = i
		case "g":
			gi = i
		case "b":
			bi = i
		}
	}
	if ri < 0 || gi < 0 || bi < 0 {
		return c
	}
	rs, okR := c.cols[ri].(*buffer[uint8])
	gs, okG := c.cols[gi].(*buffer[uint8])
	bs, okB := c.cols[bi].(*buffer[uint8])
	if !okR || !okG || !okB {
		return c
	}

	n := min(len(rs.data), len(gs.data), len(bs.data))
	packed := &buffer[float32]{data: make([]float32, n)}
	for i := range n {
		bits := uint32(rs.data[i])<<16 | uint32(gs.data[i])<<8 | uint32(bs.data[i])
		packed.data[i] = math.Float32frombits(bits)
	}

	out := &Cloud{Header: c.Header}
	out.Header.Fields = nil
	out.Header.byName = nil
	for i, f := range c.Header.Fields {
		switch i {
		case ri:
			out.Header.AddField(Field{Name: "rgb", Size: 4, Kind: KindFloat, Count: 1})
			out.cols = append(out.cols, packed)
		case gi, bi:
			// Merged into the packed column.
		default:
			out.Header.AddField(f)
			out.cols = append(out.cols, c.cols[i])
		}
	}
	return out
}
