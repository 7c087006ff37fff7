package safemem

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRaw(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, WriteRaw(int(f.Fd()), "hello\n"))
	require.NoError(t, WriteRaw(int(f.Fd()), ""))

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriteRawBadDescriptor(t *testing.T) {
	assert.Error(t, WriteRaw(-1, "x"))
}

func TestPrintfTruncates(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	long := strings.Repeat("a", 2*MaxLine)
	require.NoError(t, Printf(int(w.Fd()), "pregrind: %s %d\n", long, 42))
	w.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, data, MaxLine)
	assert.True(t, strings.HasPrefix(string(data), "pregrind: aaa"))
}
