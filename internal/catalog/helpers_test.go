package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/pkg/db"
	"github.com/angelmondragon/catalog-admin/pkg/db/dbtest"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
	"github.com/angelmondragon/catalog-admin/pkg/storage/local"
)

var errInjected = errors.New("injected failure")

type fixture struct {
	client  *db.Client
	repo    *Repository
	store   *local.Store
	faulty  *faultyStore
	manager *Manager
}

func newFixture(t *testing.T, tweak ...func(*ManagerParams)) *fixture {
	t.Helper()

	client := dbtest.Open(t, models.All()...)
	store, err := local.New(local.Config{Root: t.TempDir()})
	require.NoError(t, err)

	faulty := &faultyStore{Store: store}
	repo := NewRepository(client.DB())
	params := DefaultManagerParams(repo, client, faulty)
	for _, fn := range tweak {
		fn(&params)
	}
	manager, err := NewManager(params)
	require.NoError(t, err)

	return &fixture{client: client, repo: repo, store: store, faulty: faulty, manager: manager}
}

// faultyStore fails the n-th Save or every Delete on demand.
type faultyStore struct {
	*local.Store
	failSaveOn  int32
	saves       int32
	failDeletes atomic.Bool
}

func (f *faultyStore) Save(ctx context.Context, u storage.Upload, folder storage.Folder) (storage.Stored, error) {
	n := atomic.AddInt32(&f.saves, 1)
	if f.failSaveOn > 0 && n == f.failSaveOn {
		return storage.Stored{}, errInjected
	}
	return f.Store.Save(ctx, u, folder)
}

func (f *faultyStore) Delete(ctx context.Context, path string) error {
	if f.failDeletes.Load() {
		return errInjected
	}
	return f.Store.Delete(ctx, path)
}

// failCreates makes the n-th and later inserts into table fail.
func failCreates(t *testing.T, conn *gorm.DB, table string, n int) {
	t.Helper()
	var count int32
	err := conn.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		if atomic.AddInt32(&count, 1) >= int32(n) {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)
}

func png(name string) storage.Upload {
	return fileUpload(name, "\x89PNG\r\n\x1a\n-"+name)
}

func fileUpload(name, body string) storage.Upload {
	return storage.Upload{FileName: name, Size: int64(len(body)), Content: strings.NewReader(body)}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) files(t *testing.T, folder storage.Folder) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.store.Root(), string(folder)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(f.store.PublicPrefix(), string(folder), e.Name()))
	}
	return out
}

func (f *fixture) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := f.store.Exists(path)
	require.NoError(t, err)
	return ok
}

// requireConsistent checks that every stored path on a live row exists and
// that no file lacks a row.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	conn := f.client.DB()

	referenced := map[string]bool{}
	var categories []models.Category
	require.NoError(t, conn.Find(&categories).Error)
	for _, c := range categories {
		if c.HasImage() {
			referenced[*c.ImageURL] = true
		}
	}
	var images []models.ProductImage
	require.NoError(t, conn.Find(&images).Error)
	for _, img := range images {
		referenced[img.ImageURL] = true
	}

	for path := range referenced {
		require.Truef(t, f.exists(t, path), "dangling reference %s", path)
	}
	for _, folder := range []storage.Folder{storage.FolderCategories, storage.FolderProducts} {
		for _, path := range f.files(t, folder) {
			require.Truef(t, referenced[path], "orphan file %s", path)
		}
	}
}

func (f *fixture) mustCategory(t *testing.T, name string) *CategoryDTO {
	t.Helper()
	c, err := f.manager.AddCategory(context.Background(), CategoryInput{Name: name}, nil)
	require.NoError(t, err)
	return c
}
