// Package pcd reads and writes Point Cloud Data (PCD) files carrying an
// arbitrary set of named, typed per-point attributes.
//
// A file is a line-oriented text header describing the schema followed by
// the point payload in one of three encodings: ascii (one line per point),
// binary (point-major fixed-width records) and binary_compressed (an
// LZF-compressed field-major buffer). Decoded clouds are columnar: one
// typed buffer per field, with derived views for positions, labels and
// color.
//
// Reading:
//
//	cloud, err := pcd.Parse("scan.pcd")
//	positions := cloud.Positions() // interleaved x,y,z
//	labels := cloud.Labels()
//
// Rewriting labels while preserving the file's encoding:
//
//	err := pcd.UpdateLabels("scan.pcd", labels, "")
//
// The writer repacks color columns to suit the target encoding: a packed
// rgb float becomes three readable byte columns in ascii output, and the
// reverse happens for binary output.
package pcd
