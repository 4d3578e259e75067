package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	store, err := New(Config{Root: t.TempDir(), MaxBytes: maxBytes})
	require.NoError(t, err)
	return store
}

func upload(name, body string) storage.Upload {
	return storage.Upload{FileName: name, Size: int64(len(body)), Content: strings.NewReader(body)}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestValidateExtensions(t *testing.T) {
	store := newTestStore(t, 0)

	for _, name := range []string{"a.jpg", "b.JPEG", "c.Png", "d.gif", "e.webp"} {
		assert.NoError(t, store.Validate(upload(name, "x")), name)
	}
	for _, name := range []string{"virus.exe", "noext", "archive.png.zip", "doc.pdf"} {
		err := store.Validate(upload(name, "x"))
		require.Error(t, err, name)
		assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err), name)
	}
	assert.Zero(t, countFiles(t, store.Root()))
}

func TestValidateRejectsEmptyAndOversized(t *testing.T) {
	store := newTestStore(t, 4)

	err := store.Validate(upload("empty.png", ""))
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))

	err = store.Validate(upload("big.png", "12345"))
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))
}

func TestSaveWritesUniqueFile(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	first, err := store.Save(ctx, upload("Photo.PNG", "png-bytes"), storage.FolderCategories)
	require.NoError(t, err)
	second, err := store.Save(ctx, upload("Photo.PNG", "png-bytes"), storage.FolderCategories)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasPrefix(first.Path, "/images/categories/"))
	assert.True(t, strings.HasSuffix(first.Path, ".png"))
	assert.Equal(t, "png", first.Extension)
	assert.EqualValues(t, len("png-bytes"), first.Size)

	ok, err := store.Exists(first.Path)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(store.Root(), "categories", filepath.Base(first.Path)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveUnknownSizeCountsBytes(t *testing.T) {
	store := newTestStore(t, 4)
	ctx := context.Background()

	stored, err := store.Save(ctx, storage.Upload{FileName: "a.gif", Size: -1, Content: strings.NewReader("abc")}, storage.FolderProducts)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored.Size)

	_, err = store.Save(ctx, storage.Upload{FileName: "b.gif", Size: -1, Content: strings.NewReader("abcdef")}, storage.FolderProducts)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))

	_, err = store.Save(ctx, storage.Upload{FileName: "c.gif", Size: -1, Content: strings.NewReader("")}, storage.FolderProducts)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))

	assert.Equal(t, 1, countFiles(t, store.Root()))
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, upload("a.png", "x"), storage.FolderProducts)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err))
	assert.Zero(t, countFiles(t, store.Root()))
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	stored, err := store.Save(ctx, upload("a.webp", "x"), storage.FolderProducts)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, stored.Path))
	require.NoError(t, store.Delete(ctx, stored.Path))
	require.NoError(t, store.Delete(ctx, ""))

	ok, err := store.Exists(stored.Path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRefusesPathsOutsideRoot(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	for _, p := range []string{"/etc/passwd", "/images/../../etc/passwd", "/images", "/images/"} {
		err := store.Delete(ctx, p)
		require.Error(t, err, p)
		assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err), p)
	}
}

func TestNewDefaults(t *testing.T) {
	store, err := New(Config{Root: t.TempDir(), PublicPrefix: "media/"})
	require.NoError(t, err)
	assert.Equal(t, "/media", store.PublicPrefix())
	assert.ElementsMatch(t, DefaultAllowedExtensions, store.allowedList())

	_, err = New(Config{})
	require.Error(t, err)
}
