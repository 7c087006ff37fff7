package log

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_OpensLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parent.1000.42")

	fw := NewFileWriter(path)
	defer fw.Close()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should not exist before the first write")
	assert.False(t, fw.Opened())

	_, err = fw.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = fw.Write([]byte("second\n"))
	require.NoError(t, err)
	assert.True(t, fw.Opened())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestFileWriter_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	fw := NewFileWriter(path)
	_, err := fw.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(content))
}

func TestFileWriter_OpenError(t *testing.T) {
	fw := NewFileWriter(filepath.Join(t.TempDir(), "missing-dir", "log"))

	var got error
	fw.OnOpenError = func(err error) { got = err }

	_, err := fw.Write([]byte("x"))
	assert.Error(t, err)
	assert.Error(t, got)
	assert.True(t, errors.Is(got, os.ErrNotExist))
}

func TestFileWriter_ConcurrentFirstWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	fw := NewFileWriter(path)
	defer fw.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = fw.Write([]byte("line\n"))
		}()
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, content, 16*len("line\n"))
}
