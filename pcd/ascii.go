package pcd

import "strings"

// decodeASCII reads one whitespace-separated line per point. Decoding is
// best-effort: a malformed token appends its column's zero value, a short
// line leaves the remaining fields of that point untouched, and neither
// aborts the file.
func decodeASCII(c *Cloud, payload []byte) {
	for line := range strings.Lines(string(payload)) {
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		for i := range c.Header.Fields {
			if i >= len(toks) {
				break
			}
			c.cols[i].appendParsed(toks[i])
		}
	}
}

// encodeASCII renders one line per point with single-space separators.
// Floats use the shortest round-trip representation, switching to exponent
// notation when the magnitude requires it.
func encodeASCII(c *Cloud) []byte {
	n := c.NumPoints()
	buf := make([]byte, 0, n*(len(c.cols)*8+1))

	for pt := 0; pt < n; pt++ {
		for i, col := range c.cols {
			if i > 0 {
				buf = append(buf, ' ')
			}
			if pt < col.Len() {
				buf = col.appendText(buf, pt)
			} else {
				buf = append(buf, '0')
			}
		}
		buf = append(buf, '\n')
	}
	return buf
}
