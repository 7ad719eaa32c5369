package pcd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Format identifies the on-disk encoding of the point payload.
type Format string

const (
	// FormatASCII stores one whitespace-separated line per point.
	FormatASCII Format = "ascii"
	// FormatBinary stores fixed-width point-major records.
	FormatBinary Format = "binary"
	// FormatBinaryCompressed stores an LZF-compressed field-major payload.
	FormatBinaryCompressed Format = "binary_compressed"
)

// Valid reports whether f names one of the three supported encodings.
func (f Format) Valid() bool {
	switch f {
	case FormatASCII, FormatBinary, FormatBinaryCompressed:
		return true
	default:
		return false
	}
}

// Kind is the numeric family of a field, matching the header TYPE letters.
type Kind uint8

const (
	KindSigned   Kind = iota // I
	KindUnsigned             // U
	KindFloat                // F
)

// String returns the single-letter header form of the kind.
func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "I"
	case KindUnsigned:
		return "U"
	default:
		return "F"
	}
}

func kindFromLetter(s string) (Kind, bool) {
	switch s {
	case "I":
		return KindSigned, true
	case "U":
		return KindUnsigned, true
	case "F":
		return KindFloat, true
	default:
		return 0, false
	}
}

// Field describes the physical layout of one column: its name, the byte
// width of a single element, the numeric kind, and how many elements each
// point carries (almost always one).
type Field struct {
	Name  string
	Size  int // 1, 2, 4 or 8
	Kind  Kind
	Count int
}

// stride is the number of payload bytes one point occupies for this field.
func (f Field) stride() int { return f.Size * f.Count }

// Header is the parsed schema of a PCD file. Field order fixes both the
// column order in the store and the field order on the wire.
type Header struct {
	Version   string
	Fields    []Field
	Width     int
	Height    int
	Viewpoint string
	Points    int
	Format    Format

	byName map[string]int
}

// defaultHeader carries the same defaults the header grammar assumes for
// missing directives.
func defaultHeader() Header {
	return Header{
		Version:   "0.7",
		Height:    1,
		Viewpoint: "0 0 0 1 0 0 0",
		Format:    FormatASCII,
	}
}

// FindField returns the index of the named field, matched
// case-insensitively, or -1 when absent. The lookup map is built once and
// invalidated by AddField.
func (h *Header) FindField(name string) int {
	if h.byName == nil {
		h.byName = make(map[string]int, len(h.Fields))
		for i, f := range h.Fields {
			h.byName[strings.ToLower(f.Name)] = i
		}
	}
	if i, ok := h.byName[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// AddField appends a new field descriptor to the schema.
func (h *Header) AddField(f Field) {
	h.Fields = append(h.Fields, f)
	h.byName = nil
}

// PointSize returns the byte width of one point-major record.
func (h *Header) PointSize() int {
	size := 0
	for _, f := range h.Fields {
		size += f.stride()
	}
	return size
}

// ParseHeader reads the line-oriented text preamble from data and returns
// the schema together with the byte offset where the point payload begins.
//
// Blank lines and lines starting with '#' are skipped. The DATA directive
// terminates the header; so does the first line whose leading token is not
// a recognized key, which tolerates files with a missing terminator (such a
// line is left unconsumed and becomes the first payload line). Missing
// SIZE/TYPE/COUNT entries default to 4/F/1.
//
// A DATA directive naming an unsupported encoding is a schema failure.
func ParseHeader(data []byte) (Header, int, error) {
	h := defaultHeader()

	var (
		names []string
		sizes []int
		kinds []Kind
		cnts  []int
	)

	off := 0
scan:
	for off < len(data) {
		line, next := nextLine(data, off)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' {
			off = next
			continue
		}

		toks := strings.Fields(trimmed)
		key, args := toks[0], toks[1:]

		switch key {
		case "VERSION":
			if len(args) > 0 {
				h.Version = args[0]
			}
		case "FIELDS":
			names = args
		case "SIZE":
			sizes = parseInts(args)
		case "TYPE":
			for _, a := range args {
				if k, ok := kindFromLetter(a); ok {
					kinds = append(kinds, k)
				} else {
					kinds = append(kinds, KindFloat)
				}
			}
		case "COUNT":
			cnts = parseInts(args)
		case "WIDTH":
			h.Width = firstInt(args, h.Width)
		case "HEIGHT":
			h.Height = firstInt(args, h.Height)
		case "VIEWPOINT":
			// Rest of line, not tokenized.
			h.Viewpoint = strings.TrimSpace(strings.TrimPrefix(trimmed, "VIEWPOINT"))
		case "POINTS":
			h.Points = firstInt(args, h.Points)
		case "DATA":
			if len(args) > 0 {
				h.Format = Format(args[0])
			}
			if !h.Format.Valid() {
				return Header{}, 0, fmt.Errorf("%w: %q", ErrUnknownFormat, h.Format)
			}
			off = next
			break scan
		default:
			// Unrecognized key: the header is over and this line
			// already belongs to the payload.
			break scan
		}
		off = next
	}

	// Assemble descriptors positionally, padding missing attributes.
	// Sizes outside the supported widths and non-positive counts take
	// the defaults, mirroring newColumn's fallback, so the codecs never
	// see a negative or zero stride. A negative point count reads as
	// empty.
	h.Fields = make([]Field, 0, len(names))
	for i, name := range names {
		f := Field{Name: name, Size: 4, Kind: KindFloat, Count: 1}
		if i < len(sizes) {
			switch sizes[i] {
			case 1, 2, 4, 8:
				f.Size = sizes[i]
			}
		}
		if i < len(kinds) {
			f.Kind = kinds[i]
		}
		if i < len(cnts) && cnts[i] > 0 {
			f.Count = cnts[i]
		}
		h.Fields = append(h.Fields, f)
	}
	if h.Points < 0 {
		h.Points = 0
	}

	return h, off, nil
}

// Encode serializes the schema back to its textual form, declaring the
// given point count and encoding. WIDTH mirrors the point count and HEIGHT
// is one: the writer always emits unorganized clouds.
func (h *Header) Encode(points int, format Format) []byte {
	var b bytes.Buffer
	b.WriteString("# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(&b, "VERSION %s\n", h.Version)

	b.WriteString("FIELDS")
	for _, f := range h.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Name)
	}
	b.WriteByte('\n')

	b.WriteString("SIZE")
	for _, f := range h.Fields {
		fmt.Fprintf(&b, " %d", f.Size)
	}
	b.WriteByte('\n')

	b.WriteString("TYPE")
	for _, f := range h.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Kind.String())
	}
	b.WriteByte('\n')

	b.WriteString("COUNT")
	for _, f := range h.Fields {
		fmt.Fprintf(&b, " %d", f.Count)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "WIDTH %d\n", points)
	b.WriteString("HEIGHT 1\n")
	fmt.Fprintf(&b, "VIEWPOINT %s\n", h.Viewpoint)
	fmt.Fprintf(&b, "POINTS %d\n", points)
	fmt.Fprintf(&b, "DATA %s\n", format)

	return b.Bytes()
}

// nextLine returns the line starting at off (without the newline) and the
// offset of the following line.
func nextLine(data []byte, off int) (string, int) {
	if i := bytes.IndexByte(data[off:], '\n'); i >= 0 {
		return string(data[off : off+i]), off + i + 1
	}
	return string(data[off:]), len(data)
}

func parseInts(args []string) []int {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}

func firstInt(args []string, fallback int) int {
	if len(args) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fallback
	}
	return n
}
