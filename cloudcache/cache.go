// Package cloudcache keeps decoded point clouds on disk so the labeling
// backend does not pay the full PCD decode cost every time the same scene
// is reopened.
//
// An entry stores the cloud re-encoded as an uncompressed binary PCD and
// block-compressed with a fast codec (LZ4 by default, zstd optionally).
// Entries are keyed by the source file's absolute path and invalidated
// when its size or modification time changes.
package cloudcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sddavis14/semantic-segmentation-cloud-labeler/pcd"
)

var entryMagic = [4]byte{'P', 'C', 'C', '1'}

// Entry layout: magic | compression byte | source size int64 |
// source mtime unix-nanos int64 | compressed block.
const entryHeaderSize = 4 + 1 + 8 + 8

// Store is a directory of cached decoded clouds.
type Store struct {
	dir         string
	compression Compression
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCompression selects the block codec for new entries. Existing
// entries record their own codec and stay readable.
func WithCompression(c Compression) Option {
	return func(s *Store) {
		s.compression = c
	}
}

// WithLogger attaches a structured logger to the Store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:         dir,
		compression: CompressionLZ4,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return s, nil
}

// Put stores the decoded cloud for the source file at src. The source must
// still exist; its size and mtime become the entry's validity stamp.
func (s *Store) Put(src string, c *pcd.Cloud) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	data, err := pcd.Encode(c, pcd.FormatBinary)
	if err != nil {
		return fmt.Errorf("encode cloud: %w", err)
	}
	block, err := compressBlock(data, s.compression)
	if err != nil {
		return err
	}

	buf := make([]byte, entryHeaderSize, entryHeaderSize+len(block))
	copy(buf, entryMagic[:])
	buf[4] = byte(s.compression)
	binary.LittleEndian.PutUint64(buf[5:], uint64(fi.Size()))
	binary.LittleEndian.PutUint64(buf[13:], uint64(fi.ModTime().UnixNano()))
	buf = append(buf, block...)

	path := s.entryPath(src)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	s.logger.Debug("cached decoded cloud",
		"source", src,
		"entry", path,
		"points", c.NumPoints(),
		"bytes", len(buf),
	)
	return nil
}

// Get returns the cached cloud for src, or ok=false on a miss or when the
// source file changed since the entry was written.
func (s *Store) Get(src string) (*pcd.Cloud, bool, error) {
	raw, err := os.ReadFile(s.entryPath(src))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if len(raw) < entryHeaderSize || [4]byte(raw[:4]) != entryMagic {
		return nil, false, nil
	}

	fi, err := os.Stat(src)
	if err != nil {
		return nil, false, fmt.Errorf("stat source: %w", err)
	}
	size := int64(binary.LittleEndian.Uint64(raw[5:]))
	mtime := int64(binary.LittleEndian.Uint64(raw[13:]))
	if fi.Size() != size || fi.ModTime().UnixNano() != mtime {
		s.logger.Debug("cache entry stale", "source", src)
		return nil, false, nil
	}

	data, err := decompressBlock(raw[entryHeaderSize:], Compression(raw[4]))
	if err != nil {
		return nil, false, err
	}
	c, err := pcd.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// entryPath maps a source path to its cache file name. The absolute path
// is hashed so entries from different directories cannot collide.
func (s *Store) entryPath(src string) string {
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".pcc")
}
