package pcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeCloud builds a cloud directly from typed columns, bypassing a file.
func makeCloud(fields []Field, cols ...column) *Cloud {
	h := defaultHeader()
	for _, f := range fields {
		h.AddField(f)
	}
	return &Cloud{Header: h, cols: cols}
}

func f32Field(name string) Field {
	return Field{Name: name, Size: 4, Kind: KindFloat, Count: 1}
}

func TestNumPoints(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x"), f32Field("y")},
		&buffer[float32]{data: []float32{1, 2, 3, 4, 5}},
		&buffer[float32]{data: []float32{1, 2, 3, 4, 5}},
	)
	assert.Equal(t, 5, c.NumPoints())

	empty := &Cloud{}
	assert.Zero(t, empty.NumPoints())
}

func TestPositions(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x"), f32Field("y"), f32Field("z")},
		&buffer[float32]{data: []float32{1, 2, 3}},
		&buffer[float32]{data: []float32{4, 5, 6}},
		&buffer[float32]{data: []float32{7, 8, 9}},
	)
	assert.Equal(t, []float32{1, 4, 7, 2, 5, 8, 3, 6, 9}, c.Positions())
}

func TestPositionsMissingAxis(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x"), f32Field("y")},
		&buffer[float32]{data: []float32{1}},
		&buffer[float32]{data: []float32{2}},
	)
	assert.Nil(t, c.Positions())
}

func TestPositionsTruncatesToShortest(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x"), f32Field("y"), f32Field("z")},
		&buffer[float32]{data: []float32{1, 2, 3}},
		&buffer[float32]{data: []float32{4, 5}},
		&buffer[float32]{data: []float32{7, 8, 9}},
	)
	assert.Equal(t, []float32{1, 4, 7, 2, 5, 8}, c.Positions())
}

func TestLabelsDefaultZeros(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x")},
		&buffer[float32]{data: []float32{1, 2, 3}},
	)
	assert.Equal(t, []uint32{0, 0, 0}, c.Labels())
}

func TestSetLabels(t *testing.T) {
	t.Run("AddsFieldWhenAbsent", func(t *testing.T) {
		c := makeCloud(
			[]Field{f32Field("x")},
			&buffer[float32]{data: []float32{1, 2, 3}},
		)

		c.SetLabels([]uint32{5, 6, 7})

		require.Len(t, c.Header.Fields, 2)
		assert.Equal(t, Field{Name: "label", Size: 4, Kind: KindUnsigned, Count: 1}, c.Header.Fields[1])
		assert.Equal(t, []uint32{5, 6, 7}, c.Labels())
	})

	t.Run("OverwritesExisting", func(t *testing.T) {
		c := makeCloud(
			[]Field{f32Field("x"), {Name: "label", Size: 4, Kind: KindUnsigned, Count: 1}},
			&buffer[float32]{data: []float32{1, 2, 3}},
			&buffer[uint32]{data: []uint32{0, 1, 2}},
		)

		c.SetLabels([]uint32{5, 6, 7})

		assert.Len(t, c.Header.Fields, 2)
		assert.Equal(t, []uint32{5, 6, 7}, c.Labels())
	})

	t.Run("ConvertsToDeclaredType", func(t *testing.T) {
		// A narrower label column keeps its declared type.
		c := makeCloud(
			[]Field{{Name: "label", Size: 2, Kind: KindUnsigned, Count: 1}},
			&buffer[uint16]{data: []uint16{1, 2}},
		)

		c.SetLabels([]uint32{9, 10})

		assert.Equal(t, []uint32{9, 10}, c.Labels())
		assert.IsType(t, &buffer[uint16]{}, c.cols[0])
	})
}

func TestFieldAsFloat64(t *testing.T) {
	c := makeCloud(
		[]Field{{Name: "Intensity", Size: 2, Kind: KindUnsigned, Count: 1}},
		&buffer[uint16]{data: []uint16{10, 20, 30}},
	)

	assert.Equal(t, []float64{10, 20, 30}, c.FieldAsFloat64("intensity"))
	assert.Nil(t, c.FieldAsFloat64("missing"))
}

func TestFieldAsFloat32OutOfRange(t *testing.T) {
	c := makeCloud(
		[]Field{f32Field("x")},
		&buffer[float32]{data: []float32{1}},
	)
	assert.Nil(t, c.FieldAsFloat32(-1))
	assert.Nil(t, c.FieldAsFloat32(5))
}
