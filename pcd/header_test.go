package pcd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = `# .PCD v0.7 - Point Cloud Data file format
VERSION 0.7
FIELDS x y z label
SIZE 4 4 4 4
TYPE F F F U
COUNT 1 1 1 1
WIDTH 3
HEIGHT 1
VIEWPOINT 0 0 0 1 0 0 0
POINTS 3
DATA ascii
`

func TestParseHeader(t *testing.T) {
	h, off, err := ParseHeader([]byte(sampleHeader))
	require.NoError(t, err)

	assert.Equal(t, "0.7", h.Version)
	assert.Equal(t, 3, h.Points)
	assert.Equal(t, 3, h.Width)
	assert.Equal(t, 1, h.Height)
	assert.Equal(t, "0 0 0 1 0 0 0", h.Viewpoint)
	assert.Equal(t, FormatASCII, h.Format)
	assert.Equal(t, len(sampleHeader), off)

	require.Len(t, h.Fields, 4)
	assert.Equal(t, Field{Name: "x", Size: 4, Kind: KindFloat, Count: 1}, h.Fields[0])
	assert.Equal(t, Field{Name: "label", Size: 4, Kind: KindUnsigned, Count: 1}, h.Fields[3])
}

func TestParseHeaderDefaults(t *testing.T) {
	// SIZE, TYPE and COUNT are shorter than FIELDS: missing entries
	// default to 4-byte float with count 1.
	header := "FIELDS x y z intensity\nSIZE 4 4\nTYPE F\nPOINTS 2\nDATA binary\n"

	h, _, err := ParseHeader([]byte(header))
	require.NoError(t, err)
	require.Len(t, h.Fields, 4)

	assert.Equal(t, Field{Name: "y", Size: 4, Kind: KindFloat, Count: 1}, h.Fields[1])
	assert.Equal(t, Field{Name: "z", Size: 4, Kind: KindFloat, Count: 1}, h.Fields[2])
	assert.Equal(t, Field{Name: "intensity", Size: 4, Kind: KindFloat, Count: 1}, h.Fields[3])
	assert.Equal(t, FormatBinary, h.Format)
}

func TestParseHeaderStopsAtUnrecognizedKey(t *testing.T) {
	// No DATA terminator: the first non-key line is payload and must not
	// be consumed.
	header := "FIELDS x\nSIZE 4\nTYPE F\nPOINTS 1\n"
	input := header + "1.5\n"

	h, off, err := ParseHeader([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, FormatASCII, h.Format)
	assert.Equal(t, "1.5\n", input[off:])
}

func TestParseHeaderSkipsCommentsAndBlanks(t *testing.T) {
	header := "# comment\n\nFIELDS x\n# another\nSIZE 4\nTYPE F\nPOINTS 1\nDATA ascii\n"

	h, _, err := ParseHeader([]byte(header))
	require.NoError(t, err)
	require.Len(t, h.Fields, 1)
	assert.Equal(t, "x", h.Fields[0].Name)
}

func TestParseHeaderUnknownFormat(t *testing.T) {
	_, _, err := ParseHeader([]byte("FIELDS x\nDATA sparse\n"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestHeaderEncodeRoundTrip(t *testing.T) {
	h := defaultHeader()
	h.AddField(Field{Name: "x", Size: 4, Kind: KindFloat, Count: 1})
	h.AddField(Field{Name: "Label", Size: 4, Kind: KindUnsigned, Count: 1})
	h.AddField(Field{Name: "deep", Size: 8, Kind: KindFloat, Count: 1})

	out := h.Encode(42, FormatBinaryCompressed)
	parsed, _, err := ParseHeader(out)
	require.NoError(t, err)

	assert.Equal(t, h.Fields, parsed.Fields)
	assert.Equal(t, 42, parsed.Points)
	assert.Equal(t, FormatBinaryCompressed, parsed.Format)
	assert.True(t, strings.HasPrefix(string(out), "# .PCD v0.7"))
}

func TestParseHeaderSanitizesLayout(t *testing.T) {
	h, _, err := ParseHeader([]byte(
		"FIELDS x y z\nSIZE -4 3 8\nTYPE F F F\nCOUNT 0 -1 2\nPOINTS -5\nDATA ascii\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, h.Fields[0].Size)
	assert.Equal(t, 4, h.Fields[1].Size)
	assert.Equal(t, 8, h.Fields[2].Size)
	assert.Equal(t, 1, h.Fields[0].Count)
	assert.Equal(t, 1, h.Fields[1].Count)
	assert.Equal(t, 2, h.Fields[2].Count)
	assert.Equal(t, 0, h.Points)
}

func TestFindFieldCaseInsensitive(t *testing.T) {
	h := defaultHeader()
	h.AddField(Field{Name: "X", Size: 4, Kind: KindFloat, Count: 1})
	h.AddField(Field{Name: "Label", Size: 4, Kind: KindUnsigned, Count: 1})

	assert.Equal(t, 0, h.FindField("x"))
	assert.Equal(t, 1, h.FindField("label"))
	assert.Equal(t, 1, h.FindField("LABEL"))
	assert.Equal(t, -1, h.FindField("intensity"))
}

func TestPointSize(t *testing.T) {
	h := defaultHeader()
	for _, name := range []string{"x", "y", "z"} {
		h.AddField(Field{Name: name, Size: 4, Kind: KindFloat, Count: 1})
	}
	h.AddField(Field{Name: "label", Size: 4, Kind: KindUnsigned, Count: 1})

	assert.Equal(t, 16, h.PointSize())
}
