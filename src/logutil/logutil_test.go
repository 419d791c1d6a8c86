package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, `a\nb\tc?`, Sanitize("a\nb\tc\x01"))
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", Sanitize(long))
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "sk-o...wxyz", RedactKey("sk-or-abcdefwxyz"))
}

func TestRotatingWriterShiftsArchives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 10, 2)
	require.NoError(t, err)
	defer w.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dddddddd\n", string(current))

	first, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "cccccccc\n", string(first))

	second, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb\n", string(second))

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}
