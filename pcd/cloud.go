package pcd

import "math"

// Cloud is the decoded form of a PCD file: the schema plus one typed
// column per field. Columns are owned by the cloud; every accessor returns
// a freshly allocated, widened copy so callers cannot corrupt the typed
// storage behind it.
type Cloud struct {
	Header Header

	cols []column
}

// maxPrealloc caps the per-column capacity reservation. The declared
// point count is untrusted input; columns past the cap grow as they fill.
const maxPrealloc = 1 << 20

// newCloud allocates empty columns for every schema field, reserving room
// for the declared point count.
func newCloud(h Header) *Cloud {
	c := &Cloud{Header: h, cols: make([]column, 0, len(h.Fields))}
	for _, f := range h.Fields {
		col := newColumn(f)
		if h.Points > 0 {
			col.grow(min(h.Points, maxPrealloc))
		}
		c.cols = append(c.cols, col)
	}
	return c
}

// NumPoints returns the number of loaded points, defined as the length of
// the first column. An empty cloud has zero points.
func (c *Cloud) NumPoints() int {
	if len(c.cols) == 0 {
		return 0
	}
	return c.cols[0].Len()
}

// FieldAsFloat32 returns column i widened to float32, or nil when the
// index is out of range.
func (c *Cloud) FieldAsFloat32(i int) []float32 {
	if i < 0 || i >= len(c.cols) {
		return nil
	}
	return c.cols[i].float32s()
}

// FieldAsFloat64 returns the named column widened to float64, or nil when
// no such field exists.
func (c *Cloud) FieldAsFloat64(name string) []float64 {
	i := c.Header.FindField(name)
	if i < 0 || i >= len(c.cols) {
		return nil
	}
	return c.cols[i].float64s()
}

// Positions returns interleaved x,y,z triples for every point, or nil when
// any of the three coordinate fields is missing. If the coordinate columns
// disagree in length the result is truncated to the shortest.
func (c *Cloud) Positions() []float32 {
	xi := c.Header.FindField("x")
	yi := c.Header.FindField("y")
	zi := c.Header.FindField("z")
	if xi < 0 || yi < 0 || zi < 0 {
		return nil
	}

	xs := c.FieldAsFloat32(xi)
	ys := c.FieldAsFloat32(yi)
	zs := c.FieldAsFloat32(zi)

	n := min(len(xs), len(ys), len(zs))
	out := make([]float32, n*3)
	for i := range n {
		out[i*3] = xs[i]
		out[i*3+1] = ys[i]
		out[i*3+2] = zs[i]
	}
	return out
}

// Labels returns the label column widened to uint32, or an all-zero slice
// of length NumPoints when the cloud has no label field.
func (c *Cloud) Labels() []uint32 {
	i := c.Header.FindField("label")
	if i < 0 {
		return make([]uint32, c.NumPoints())
	}
	return c.cols[i].uint32s()
}

// SetLabels replaces the label column wholesale. When no label field
// exists, a new unsigned 32-bit field is appended to the schema; otherwise
// the existing column is overwritten in place, with values converted to
// its declared type.
func (c *Cloud) SetLabels(labels []uint32) {
	i := c.Header.FindField("label")
	if i < 0 {
		c.Header.AddField(Field{Name: "label", Size: 4, Kind: KindUnsigned, Count: 1})
		col := &buffer[uint32]{}
		col.setUint32s(labels)
		c.cols = append(c.cols, col)
		return
	}
	c.cols[i].setUint32s(labels)
}

// HasRGB reports whether color can be derived from the cloud, either from
// separate r/g/b columns or from a packed 4-byte rgb/rgba column.
func (c *Cloud) HasRGB() bool {
	if c.Header.FindField("r") >= 0 && c.Header.FindField("g") >= 0 && c.Header.FindField("b") >= 0 {
		return true
	}
	i := c.packedColorIndex()
	if i < 0 {
		return false
	}
	f := c.Header.Fields[i]
	return f.Size == 4 && (f.Kind == KindFloat || f.Kind == KindUnsigned)
}

// RGB returns interleaved normalized r,g,b triples per point, or nil when
// no color information is present.
//
// Three mutually exclusive layouts are recognized, in order: separate
// r/g/b columns of any numeric type (scaled by 1/255 when any component
// exceeds 1), a packed 4-byte float whose bit pattern holds the channels,
// and a packed 4-byte unsigned integer.
func (c *Cloud) RGB() []float32 {
	n := c.NumPoints()
	if n == 0 {
		return nil
	}

	ri := c.Header.FindField("r")
	gi := c.Header.FindField("g")
	bi := c.Header.FindField("b")
	if ri >= 0 && gi >= 0 && bi >= 0 {
		return c.separateRGB(n, ri, gi, bi)
	}

	i := c.packedColorIndex()
	if i < 0 {
		return nil
	}

	out := make([]float32, n*3)
	f := c.Header.Fields[i]
	switch {
	case f.Kind == KindFloat && f.Size == 4:
		fb, ok := c.cols[i].(*buffer[float32])
		if !ok {
			return nil
		}
		for p := 0; p < n && p < len(fb.data); p++ {
			// Raw bit copy, not a numeric cast: the float carries the
			// packed channels in its bit pattern.
			unpackInto(out[p*3:], math.Float32bits(fb.data[p]))
		}
	case f.Kind == KindUnsigned && f.Size == 4:
		ub, ok := c.cols[i].(*buffer[uint32])
		if !ok {
			return nil
		}
		for p := 0; p < n && p < len(ub.data); p++ {
			unpackInto(out[p*3:], ub.data[p])
		}
	default:
		return nil
	}
	return out
}

func (c *Cloud) separateRGB(n, ri, gi, bi int) []float32 {
	rs := c.FieldAsFloat32(ri)
	gs := c.FieldAsFloat32(gi)
	bs := c.FieldAsFloat32(bi)

	// Values may be stored as 0-255 bytes or already normalized; decide
	// from the largest component seen.
	var maxVal float32
	for _, ch := range [][]float32{rs, gs, bs} {
		for _, v := range ch {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	scale := float32(1)
	if maxVal > 1 {
		scale = 1.0 / 255.0
	}

	out := make([]float32, n*3)
	for i := range n {
		out[i*3] = at(rs, i) * scale
		out[i*3+1] = at(gs, i) * scale
		out[i*3+2] = at(bs, i) * scale
	}
	return out
}

// packedColorIndex returns the index of the rgb column, falling back to
// rgba, or -1 when neither exists.
func (c *Cloud) packedColorIndex() int {
	if i := c.Header.FindField("rgb"); i >= 0 {
		return i
	}
	return c.Header.FindField("rgba")
}

// unpackInto splits a packed 0x00RRGGBB value into normalized channels.
func unpackInto(dst []float32, packed uint32) {
	dst[0] = float32(packed>>16&0xff) / 255
	dst[1] = float32(packed>>8&0xff) / 255
	dst[2] = float32(packed&0xff) / 255
}

func at(vals []float32, i int) float32 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}
