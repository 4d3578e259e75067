package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-admin/pkg/db"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// AddCategory stores the optional image first and inserts the row last, so a
// failed insert only has to undo the file.
func (m *Manager) AddCategory(ctx context.Context, in CategoryInput, upload *storage.Upload) (_ *CategoryDTO, err error) {
	ctx, finish := m.track(ctx, opAddCategory, "")
	defer finish(&err)

	if in, err = in.normalize(); err != nil {
		return nil, err
	}
	if upload != nil {
		if err := m.validateUploads([]storage.Upload{*upload}); err != nil {
			return nil, err
		}
	}

	written := newArtifactList(m.store)
	defer m.compensate(ctx, opAddCategory, written, &err)

	category := &models.Category{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    activeOr(in.IsActive, true),
	}
	if upload != nil {
		stored, err := m.save(ctx, *upload, storage.FolderCategories, written)
		if err != nil {
			return nil, err
		}
		category.ImageURL = &stored.Path
	}

	if err := m.repo.CreateCategory(ctx, category); err != nil {
		return nil, classifyDB(err, "category", "insert category")
	}
	written.forget()

	dto := NewCategoryDTO(category)
	return &dto, nil
}

// UpdateCategory applies in to an existing category. deleteImage clears the
// current image and wins over an upload in the same call; when there is no
// current image to clear, the upload is stored as usual. Otherwise an upload
// replaces the current image. The old file is removed before the row is
// written, so a failed row update leaves the row pointing at a removed file.
func (m *Manager) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput, upload *storage.Upload, deleteImage bool) (_ *CategoryDTO, err error) {
	ctx, finish := m.track(ctx, opUpdateCategory, id.String())
	defer finish(&err)

	category, err := m.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, classifyDB(err, "category", "load category")
	}
	if in, err = in.normalize(); err != nil {
		return nil, err
	}
	dropImage := deleteImage && category.HasImage()
	replace := upload != nil && !dropImage
	if replace {
		if err := m.validateUploads([]storage.Upload{*upload}); err != nil {
			return nil, err
		}
	}

	written := newArtifactList(m.store)
	defer m.compensate(ctx, opUpdateCategory, written, &err)

	switch {
	case dropImage:
		if err := m.deleteFile(ctx, *category.ImageURL); err != nil {
			return nil, err
		}
		category.ImageURL = nil
	case replace:
		if category.HasImage() {
			if err := m.deleteFile(ctx, *category.ImageURL); err != nil {
				return nil, err
			}
		}
		stored, err := m.save(ctx, *upload, storage.FolderCategories, written)
		if err != nil {
			return nil, err
		}
		category.ImageURL = &stored.Path
	}

	category.Name = in.Name
	category.Description = in.Description
	category.IsActive = activeOr(in.IsActive, category.IsActive)

	if err := m.repo.UpdateCategory(ctx, category); err != nil {
		return nil, classifyDB(err, "category", "update category")
	}
	written.forget()

	dto := NewCategoryDTO(category)
	return &dto, nil
}

// DeleteCategory removes a category that no product references, together
// with its image, in the configured delete order.
func (m *Manager) DeleteCategory(ctx context.Context, id uuid.UUID) (err error) {
	ctx, finish := m.track(ctx, opDeleteCategory, id.String())
	defer finish(&err)

	return m.removeEntity(ctx, removal{
		op:    opDeleteCategory,
		order: m.categoryDeleteOrder,
		collect: func(ctx context.Context, repo *Repository) ([]string, error) {
			category, err := repo.FindCategoryByID(ctx, id)
			if err != nil {
				return nil, classifyDB(err, "category", "load category")
			}
			count, err := repo.CountProductsInCategory(ctx, id)
			if err != nil {
				return nil, classifyDB(err, "category", "count category products")
			}
			if count > 0 {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
					WithDetails(map[string]any{"products": count})
			}
			if !category.HasImage() {
				return nil, nil
			}
			return []string{*category.ImageURL}, nil
		},
		remove: func(ctx context.Context, repo *Repository) error {
			if err := repo.DeleteCategory(ctx, id); err != nil {
				if db.IsForeignKeyViolation(err) {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category still has products")
				}
				return classifyDB(err, "category", "delete category")
			}
			return nil
		},
	})
}

func (m *Manager) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := m.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, classifyDB(err, "category", "load category")
	}
	dto := NewCategoryDTO(category)
	return &dto, nil
}

// ListCategories returns all categories, newest first.
func (m *Manager) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := m.repo.ListCategories(ctx)
	if err != nil {
		return nil, classifyDB(err, "category", "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCategoryDTO(&rows[i]))
	}
	return out, nil
}
