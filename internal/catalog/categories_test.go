package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

func TestAddCategoryStoresImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)
	require.NotNil(t, c.ImageURL)
	assert.Regexp(t, `^/images/categories/[0-9a-f-]{36}\.png$`, *c.ImageURL)
	assert.True(t, c.IsActive)

	data, err := os.ReadFile(filepath.Join(f.store.Root(), "categories", filepath.Base(*c.ImageURL)))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	f.requireConsistent(t)
}

func TestAddCategoryRejectsDisallowedExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.AddCategory(context.Background(), CategoryInput{Name: "Tools"}, ptr(fileUpload("setup.exe", "MZ")))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.files(t, storage.FolderCategories))
}

func TestAddCategoryRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.AddCategory(context.Background(), CategoryInput{Name: "   "}, ptr(png("a.png")))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, f.files(t, storage.FolderCategories))
}

func TestAddCategoryDuplicateNameRemovesSavedFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("first.png")))
	require.NoError(t, err)

	_, err = f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("second.png")))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	assert.Len(t, f.files(t, storage.FolderCategories), 1)
	f.requireConsistent(t)
}

func TestUpdateCategoryDeleteImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)
	oldPath := *c.ImageURL

	updated, err := f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Shoes"}, nil, true)
	require.NoError(t, err)
	assert.Nil(t, updated.ImageURL)
	assert.False(t, f.exists(t, oldPath))

	stored, err := f.repo.FindCategoryByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasImage())
	f.requireConsistent(t)
}

func TestUpdateCategoryDeleteImageWinsOverUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	updated, err := f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Shoes"}, ptr(png("new.png")), true)
	require.NoError(t, err)
	assert.Nil(t, updated.ImageURL)
	assert.Empty(t, f.files(t, storage.FolderCategories))
}

func TestUpdateCategoryDeleteImageWithoutImageStoresUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, nil)
	require.NoError(t, err)
	require.Nil(t, c.ImageURL)

	updated, err := f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Shoes"}, ptr(png("new.png")), true)
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.True(t, f.exists(t, *updated.ImageURL))
	assert.Len(t, f.files(t, storage.FolderCategories), 1)

	stored, err := f.repo.FindCategoryByID(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, stored.HasImage())
	assert.Equal(t, *updated.ImageURL, *stored.ImageURL)
	f.requireConsistent(t)
}

func TestUpdateCategoryDeleteImageWithoutImageRejectsBadUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, nil)
	require.NoError(t, err)

	_, err = f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Shoes"}, ptr(fileUpload("setup.exe", "MZ")), true)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.As(err).Code())
	assert.Empty(t, f.files(t, storage.FolderCategories))
}

func TestUpdateCategoryReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes", Description: ptr("old")}, ptr(png("old.png")))
	require.NoError(t, err)
	oldPath := *c.ImageURL

	updated, err := f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Boots", IsActive: ptr(false)}, ptr(fileUpload("new.WEBP", "riff")), false)
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.NotEqual(t, oldPath, *updated.ImageURL)
	assert.Equal(t, "Boots", updated.Name)
	assert.Nil(t, updated.Description)
	assert.False(t, updated.IsActive)
	assert.False(t, f.exists(t, oldPath))
	assert.True(t, f.exists(t, *updated.ImageURL))
	f.requireConsistent(t)
}

func TestUpdateCategoryKeepsImageWithoutUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	updated, err := f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Sneakers"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, c.ImageURL, updated.ImageURL)
	assert.True(t, updated.IsActive)
	f.requireConsistent(t)
}

func TestUpdateCategoryErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.UpdateCategory(ctx, uuid.New(), CategoryInput{Name: "x"}, nil, false)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	_, err = f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: ""}, ptr(png("new.png")), false)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.True(t, f.exists(t, *c.ImageURL))

	_, err = f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Shoes"}, ptr(fileUpload("x.bmp", "bm")), false)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))
	assert.True(t, f.exists(t, *c.ImageURL))
	f.requireConsistent(t)
}

func TestUpdateCategoryRowFailureRemovesNewFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCategory(t, "Boots")
	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	_, err = f.manager.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Boots"}, ptr(png("new.png")), false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	// The old file goes before the row update, so the row now dangles; the
	// new file must not survive as an orphan.
	assert.Empty(t, f.files(t, storage.FolderCategories))
	stored, err := f.repo.FindCategoryByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ImageURL, stored.ImageURL)
}

func TestDeleteCategoryRemovesFileThenRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	require.NoError(t, f.manager.DeleteCategory(ctx, c.ID))
	assert.False(t, f.exists(t, *c.ImageURL))
	_, err = f.repo.FindCategoryByID(ctx, c.ID)
	assert.Error(t, err)

	err = f.manager.DeleteCategory(ctx, c.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteCategoryWithProductsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)
	_, err = f.manager.AddProduct(ctx, ProductInput{Name: "Runner", Price: decimal.NewFromInt(10), CategoryID: c.ID}, nil)
	require.NoError(t, err)

	err = f.manager.DeleteCategory(ctx, c.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.True(t, f.exists(t, *c.ImageURL))
	f.requireConsistent(t)
}

func TestDeleteCategoryStorageFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	f.faulty.failDeletes.Store(true)
	err = f.manager.DeleteCategory(ctx, c.ID)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err))

	_, err = f.repo.FindCategoryByID(ctx, c.ID)
	require.NoError(t, err)
	f.requireConsistent(t)
}

func TestDeleteCategoryRowsFirstReportsOrphan(t *testing.T) {
	f := newFixture(t, func(p *ManagerParams) { p.CategoryDeleteOrder = RowsFirst })
	ctx := context.Background()

	c, err := f.manager.AddCategory(ctx, CategoryInput{Name: "Shoes"}, ptr(png("shoes.png")))
	require.NoError(t, err)

	f.faulty.failDeletes.Store(true)
	err = f.manager.DeleteCategory(ctx, c.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err))
	assert.Equal(t, map[string]any{"orphaned": []string{*c.ImageURL}}, pkgerrors.As(err).Details())

	_, err = f.repo.FindCategoryByID(ctx, c.ID)
	assert.Error(t, err)
	assert.True(t, f.exists(t, *c.ImageURL))
}

func TestListCategoriesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.mustCategory(t, "First")
	second := f.mustCategory(t, "Second")

	list, err := f.manager.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	got, err := f.manager.GetCategory(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)

	_, err = f.manager.GetCategory(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
