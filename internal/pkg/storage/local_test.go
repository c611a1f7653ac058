package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	return NewLocalStorage(&config.Config{
		Storage: config.StorageConfig{LocalPath: t.TempDir(), CDNBaseURL: "http://cdn.test/uploads/"},
		Upload:  config.UploadConfig{MaxSize: 16, AllowedExtensions: []string{"png", ".JPG"}},
	})
}

func TestSaveAndDelete(t *testing.T) {
	s := newTestStorage(t)

	file, err := s.Save(context.Background(), "products/7", "front.PNG", 5, strings.NewReader("hello"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(file.Path, "products/7/"))
	assert.True(t, strings.HasSuffix(file.Path, ".png"))
	assert.Equal(t, "http://cdn.test/uploads/"+file.Path, file.URL)
	assert.Equal(t, int64(5), file.Size)

	data, err := os.ReadFile(filepath.Join(s.Root(), file.Path))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(file.Path))
	_, err = os.Stat(filepath.Join(s.Root(), file.Path))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(file.Path))
}

func TestSave_Rejects(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "products/1", "script.exe", 3, strings.NewReader("bad"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Save(ctx, "products/1", "big.jpg", 100, strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Save(ctx, "products/1", "liar.jpg", 1, strings.NewReader(strings.Repeat("x", 40)))
	assert.ErrorIs(t, err, errs.ErrValidation)

	entries, _ := os.ReadDir(filepath.Join(s.Root(), "products", "1"))
	assert.Empty(t, entries)
}
