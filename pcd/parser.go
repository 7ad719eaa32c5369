package pcd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Parser reads and writes PCD files. The zero value is not usable; create
// one with NewParser. All methods perform one complete, synchronous
// read-or-write of one file and assume exclusive access to it for the
// duration of the call.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser configured by the given options.
func NewParser(opts ...Option) *Parser {
	o := applyOptions(opts)
	return &Parser{logger: o.logger}
}

// Parse decodes the file at path into a Cloud.
func (p *Parser) Parse(path string) (*Cloud, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open point cloud: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		p.logger.Error("parse failed", "path", path, "error", err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	p.logger.Debug("parsed point cloud",
		"path", path,
		"format", c.Header.Format,
		"points", c.NumPoints(),
	)
	return c, nil
}

// ParseAll decodes several files concurrently, preserving input order in
// the result. The first failure cancels the remaining work.
func (p *Parser) ParseAll(ctx context.Context, paths []string) ([]*Cloud, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	clouds := make([]*Cloud, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := p.Parse(path)
			if err != nil {
				return err
			}
			clouds[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clouds, nil
}

// Write encodes the cloud with the given format and overwrites the file at
// path in full. The color repacking appropriate to the format is applied
// before encoding.
func (p *Parser) Write(path string, c *Cloud, format Format) error {
	data, err := Encode(c, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write point cloud: %w", err)
	}
	p.logger.Debug("wrote point cloud",
		"path", path,
		"format", format,
		"points", c.NumPoints(),
		"bytes", len(data),
	)
	return nil
}

// UpdateLabels rewrites the file at path with the given per-point labels.
// An empty format keeps the file's originally declared encoding. This is a
// whole-file read-modify-rewrite, not an in-place patch.
func (p *Parser) UpdateLabels(path string, labels []uint32, format Format) error {
	c, err := p.Parse(path)
	if err != nil {
		return err
	}
	c.SetLabels(labels)
	if format == "" {
		format = c.Header.Format
	}
	return p.Write(path, c, format)
}

// Convert re-encodes the file at path with a new format, including any
// color repacking side effects.
func (p *Parser) Convert(path string, format Format) error {
	c, err := p.Parse(path)
	if err != nil {
		return err
	}
	return p.Write(path, c, format)
}

// Decode parses a complete in-memory PCD file: header first, then the
// payload codec the header declares.
func Decode(data []byte) (*Cloud, error) {
	h, off, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	c := newCloud(h)
	payload := data[off:]
	switch h.Format {
	case FormatASCII:
		decodeASCII(c, payload)
	case FormatBinary:
		decodeBinary(c, payload)
	case FormatBinaryCompressed:
		if err := decodeBinaryCompressed(c, payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, h.Format)
	}
	return c, nil
}

// Encode serializes a cloud to a complete in-memory PCD file in the given
// format, applying the matching color repacking first: text output unpacks
// a packed rgb float into r/g/b bytes, binary output packs them back.
func Encode(c *Cloud, format Format) ([]byte, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if format == FormatASCII {
		c = unpackRGB(c)
	} else {
		c = packRGB(c)
	}

	out := c.Header.Encode(c.NumPoints(), format)
	switch format {
	case FormatASCII:
		out = append(out, encodeASCII(c)...)
	case FormatBinary:
		out = append(out, encodeBinary(c)...)
	case FormatBinaryCompressed:
		payload, err := encodeBinaryCompressed(c)
		if err != nil {
			return nil, err
		}
		out = append(out, payload...)
	}
	return out, nil
}

var defaultParser = NewParser()

// Parse decodes the file at path using the default Parser.
func Parse(path string) (*Cloud, error) { return defaultParser.Parse(path) }

// Write encodes the cloud to path using the default Parser.
func Write(path string, c *Cloud, format Format) error {
	return defaultParser.Write(path, c, format)
}

// UpdateLabels rewrites path with new labels using the default Parser.
func UpdateLabels(path string, labels []uint32, format Format) error {
	return defaultParser.UpdateLabels(path, labels, format)
}

// Convert re-encodes path with a new format using the default Parser.
func Convert(path string, format Format) error {
	return defaultParser.Convert(path, format)
}
