package storage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("letters/lr-1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.True(t, store.Exists(name))

	data, err := store.Read(name)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, store.Delete(name))
	assert.False(t, store.Exists(name))
	require.NoError(t, store.Delete(name))
}

func TestLocalStorageSaveStreamRemovesPartialFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	broken := io.MultiReader(strings.NewReader("partial body"), &failingReader{err: errors.New("connection reset")})
	_, err = store.SaveStream("announcements/upload.pdf", broken)
	require.Error(t, err)
	assert.False(t, store.Exists("announcements/upload.pdf"))
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestLocalStorageStaysInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
}

func TestUniqueNameSanitizes(t *testing.T) {
	name := UniqueName("announcements", "../My Report (final).pdf")
	assert.True(t, strings.HasPrefix(name, "announcements/"))
	assert.True(t, strings.HasSuffix(name, "-My_Report_final_.pdf"))
	assert.Equal(t, "file", SanitizeFilename(""))
}
