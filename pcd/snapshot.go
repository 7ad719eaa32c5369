package pcd

// Snapshot is the flattened, consumer-ready view of a decoded cloud: the
// shape handed to the HTTP layer and the viewer, which never touch the
// file format directly. Every column is widened to float32 so downstream
// code can treat fields uniformly.
type Snapshot struct {
	Version    string               `json:"version"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Points     int                  `json:"points"`
	Format     Format               `json:"dataType"`
	FieldNames []string             `json:"fields"`
	FieldTypes []string             `json:"fieldTypes"`
	FieldSizes []int                `json:"fieldSizes"`
	Positions  []float32            `json:"positions"`
	Labels     []uint32             `json:"labels"`
	Columns    map[string][]float32 `json:"columns"`
	HasRGB     bool                 `json:"hasRGB"`
	Colors     []float32            `json:"colors,omitempty"`
}

// Snapshot builds the consumer view of the cloud. All slices are copies;
// mutating them does not affect the cloud.
func (c *Cloud) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:    c.Header.Version,
		Width:      c.Header.Width,
		Height:     c.Header.Height,
		Points:     c.NumPoints(),
		Format:     c.Header.Format,
		FieldNames: make([]string, 0, len(c.Header.Fields)),
		FieldTypes: make([]string, 0, len(c.Header.Fields)),
		FieldSizes: make([]int, 0, len(c.Header.Fields)),
		Positions:  c.Positions(),
		Labels:     c.Labels(),
		Columns:    make(map[string][]float32, len(c.Header.Fields)),
		HasRGB:     c.HasRGB(),
	}
	for i, f := range c.Header.Fields {
		s.FieldNames = append(s.FieldNames, f.Name)
		s.FieldTypes = append(s.FieldTypes, f.Kind.String())
		s.FieldSizes = append(s.FieldSizes, f.Size)
		s.Columns[f.Name] = c.FieldAsFloat32(i)
	}
	if s.HasRGB {
		s.Colors = c.RGB()
	}
	return s
}
