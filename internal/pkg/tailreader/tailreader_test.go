package tailreader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readString(t *testing.T, s string, opts Options) *Result {
	t.Helper()
	r := strings.NewReader(s)
	res, err := Read(r, int64(len(s)), opts)
	require.NoError(t, err)
	return res
}

func TestRead_NewestFirstAcrossChunks(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "line-%03d\n", i)
	}

	res := readString(t, b.String(), Options{ChunkSize: 7})

	require.Len(t, res.Lines, 100)
	require.Equal(t, "line-100", res.Lines[0])
	require.Equal(t, "line-001", res.Lines[99])
	require.False(t, res.Truncated)
}

func TestRead_MaxLines(t *testing.T) {
	res := readString(t, "a\nb\nc\nd\n", Options{MaxLines: 2, ChunkSize: 3})

	require.Equal(t, []string{"d", "c"}, res.Lines)
	require.True(t, res.Truncated)
}

func TestRead_MaxLinesEqualsTotal(t *testing.T) {
	res := readString(t, "a\nb\n", Options{MaxLines: 2})

	require.Equal(t, []string{"b", "a"}, res.Lines)
	require.False(t, res.Truncated)
}

func TestRead_NoTrailingNewlineAndBlankLines(t *testing.T) {
	res := readString(t, "first\r\n\n  \nsecond\nthird", Options{ChunkSize: 4})

	require.Equal(t, []string{"third", "second", "first"}, res.Lines)
}

func TestRead_MaxBytesDropsPartialLine(t *testing.T) {
	s := "aaaa\nbbbb\ncccc\n"
	res := readString(t, s, Options{MaxBytes: 8, ChunkSize: 3})

	// The last 8 bytes are "bb\ncccc\n": only "cccc" is complete.
	require.Equal(t, []string{"cccc"}, res.Lines)
	require.Equal(t, int64(8), res.BytesRead)
	require.True(t, res.Truncated)
}

func TestRead_Empty(t *testing.T) {
	res := readString(t, "", Options{})
	require.Empty(t, res.Lines)
	require.False(t, res.Truncated)
}

func TestReadFile_Missing(t *testing.T) {
	res, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"), Options{MaxLines: 10})
	require.NoError(t, err)
	require.Empty(t, res.Lines)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o600))

	res, err := ReadFile(path, Options{MaxLines: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"three", "two", "one"}, res.Lines)
}
