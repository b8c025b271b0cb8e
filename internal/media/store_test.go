package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Save(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/", 0)
	require.NoError(t, err)

	url, err := s.Save(context.Background(), "../../etc/passwd.png", "image/png", strings.NewReader("fake png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "fake png", string(data))
}

func TestLocalStore_RejectsNonImages(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads", 0)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "x.exe", "application/octet-stream", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStore_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads", 10)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "big.jpg", "image/jpeg", bytes.NewReader(make([]byte, 11)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized uploads are removed")
}
