package pcd

// decodeBinary reads point-major fixed-width records. Wire order is
// little-endian. A truncated payload simply yields fewer points than the
// header declares.
func decodeBinary(c *Cloud, payload []byte) {
	stride := c.Header.PointSize()
	if stride == 0 {
		return
	}

	for pt := 0; pt < c.Header.Points; pt++ {
		base := pt * stride
		if base+stride > len(payload) {
			break
		}
		off := base
		for i, f := range c.Header.Fields {
			c.cols[i].appendNative(payload[off : off+f.Size])
			off += f.stride()
		}
	}
}

// encodeBinary writes the mirror layout. For fields with a repeat count
// above one, bytes past the stored element stay zero so the record width
// always matches the schema.
func encodeBinary(c *Cloud) []byte {
	n := c.NumPoints()
	stride := c.Header.PointSize()
	buf := make([]byte, n*stride)

	for pt := 0; pt < n; pt++ {
		off := pt * stride
		for i, f := range c.Header.Fields {
			if pt < c.cols[i].Len() {
				c.cols[i].putNative(buf[off:off+f.Size], pt)
			}
			off += f.stride()
		}
	}
	return buf
}
