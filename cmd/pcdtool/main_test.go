package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sddavis14/semantic-segmentation-cloud-labeler/cloudcache"
	"github.com/sddavis14/semantic-segmentation-cloud-labeler/pcd"
)

func TestLoadCloudBrokenCacheEntry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.pcd")
	content := "FIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nPOINTS 3\nDATA ascii\n" +
		"0 0 0\n1 1 1\n2 2 2\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	parser := pcd.NewParser()

	cache, err := cloudcache.New(filepath.Join(dir, "cache"), cloudcache.WithLogger(logger))
	require.NoError(t, err)
	c, err := parser.Parse(src)
	require.NoError(t, err)
	require.NoError(t, cache.Put(src, c))

	// Truncate the entry's compressed block while keeping the magic and
	// the validity stamp intact, so the read fails rather than missing.
	entries, err := filepath.Glob(filepath.Join(dir, "cache", "*.pcc"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(entries[0], raw[:23], 0o644))

	got, err := loadCloud(parser, cache, logger, src)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumPoints())
	assert.Contains(t, logBuf.String(), "cache read failed")
}
