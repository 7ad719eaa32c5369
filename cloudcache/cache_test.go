package cloudcache

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sddavis14/semantic-segmentation-cloud-labeler/pcd"
)

func writeSource(t *testing.T, dir string) (string, *pcd.Cloud) {
	t.Helper()
	path := filepath.Join(dir, "scan.pcd")
	content := "FIELDS x y z label\nSIZE 4 4 4 4\nTYPE F F F U\nPOINTS 3\nDATA ascii\n" +
		"0 0 0 0\n1 1 1 1\n2 2 2 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := pcd.Parse(path)
	require.NoError(t, err)
	return path, c
}

func TestPutGet(t *testing.T) {
	for _, compression := range []Compression{CompressionLZ4, CompressionZSTD} {
		name := "LZ4"
		if compression == CompressionZSTD {
			name = "ZSTD"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src, cloud := writeSource(t, dir)

			store, err := New(filepath.Join(dir, "cache"), WithCompression(compression))
			require.NoError(t, err)

			require.NoError(t, store.Put(src, cloud))

			got, ok, err := store.Get(src)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, cloud.NumPoints(), got.NumPoints())
			assert.Equal(t, cloud.Labels(), got.Labels())
			assert.Equal(t, cloud.Positions(), got.Positions())
		})
	}
}

func TestGetMiss(t *testing.T) {
	dir := t.TempDir()
	src, _ := writeSource(t, dir)

	store, err := New(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	_, ok, err := store.Get(src)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStaleAfterSourceChange(t *testing.T) {
	dir := t.TempDir()
	src, cloud := writeSource(t, dir)

	store, err := New(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	require.NoError(t, store.Put(src, cloud))

	// Touch the source with different content and a different mtime.
	require.NoError(t, os.WriteFile(src, []byte("FIELDS x\nSIZE 4\nTYPE F\nPOINTS 0\nDATA ascii\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(src, future, future))

	_, ok, err := store.Get(src)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompressBlockRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	repetitive := bytes.Repeat([]byte{1, 2, 3, 4}, 4096)
	random := make([]byte, 4096)
	_, err := rng.Read(random)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"Repetitive", repetitive},
		{"Incompressible", random},
		{"Empty", nil},
	}

	codecs := map[string]Compression{"LZ4": CompressionLZ4, "ZSTD": CompressionZSTD}
	for name, compression := range codecs {
		for _, tt := range tests {
			t.Run(name+"_"+tt.name, func(t *testing.T) {
				block, err := compressBlock(tt.data, compression)
				require.NoError(t, err)

				out, err := decompressBlock(block, compression)
				require.NoError(t, err)
				if len(tt.data) == 0 {
					assert.Empty(t, out)
				} else {
					assert.Equal(t, tt.data, out)
				}
			})
		}
	}
}

func TestDecompressBlockTruncated(t *testing.T) {
	_, err := decompressBlock([]byte{1, 2, 3}, CompressionLZ4)
	assert.Error(t, err)
}
