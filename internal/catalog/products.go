package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/pagination"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// ListProductsInput filters ListProducts.
type ListProductsInput struct {
	CategoryID *uuid.UUID
	pagination.Params
}

// AddProduct inserts a product and its images in one transaction. Every file
// written during the attempt is removed again if anything fails before
// commit. The first image becomes primary.
func (m *Manager) AddProduct(ctx context.Context, in ProductInput, uploads []storage.Upload) (_ *ProductDTO, err error) {
	ctx, finish := m.track(ctx, opAddProduct, "")
	defer finish(&err)

	if in, err = in.normalize(); err != nil {
		return nil, err
	}
	if err := m.validateUploads(uploads); err != nil {
		return nil, err
	}

	written := newArtifactList(m.store)
	defer m.compensate(ctx, opAddProduct, written, &err)

	var productID uuid.UUID
	err = m.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)
		if err := ensureCategory(ctx, repo, in.CategoryID); err != nil {
			return err
		}

		product := &models.Product{
			Name:          in.Name,
			Description:   in.Description,
			Price:         in.Price,
			StockQuantity: in.StockQuantity,
			CategoryID:    in.CategoryID,
			IsActive:      activeOr(in.IsActive, true),
		}
		id, err := repo.CreateProduct(ctx, product)
		if err != nil {
			return classifyDB(err, "product", "insert product")
		}
		productID = id

		return m.attachImages(ctx, repo, id, uploads, nil, PrimaryOnAdd, written)
	})
	if err != nil {
		return nil, classifyDB(err, "product", "commit product")
	}
	written.forget()

	return m.loadProduct(ctx, productID)
}

// UpdateProduct rewrites the scalar fields, drops the listed images and
// appends new ones as secondary images, all in one transaction. Files of
// dropped images are removed only after commit, so a rollback leaves every
// committed row with its file. No image is promoted when the primary is
// dropped.
func (m *Manager) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, deleteImageIDs []uuid.UUID, uploads []storage.Upload) (_ *ProductDTO, err error) {
	ctx, finish := m.track(ctx, opUpdateProduct, id.String())
	defer finish(&err)

	if in, err = in.normalize(); err != nil {
		return nil, err
	}
	if err := m.validateUploads(uploads); err != nil {
		return nil, err
	}
	deleteIDs := uniqueIDs(deleteImageIDs)

	written := newArtifactList(m.store)
	defer m.compensate(ctx, opUpdateProduct, written, &err)
	released := newArtifactList(m.store)

	err = m.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		product, err := repo.FindProductByID(ctx, id)
		if err != nil {
			return classifyDB(err, "product", "load product")
		}
		if err := ensureCategory(ctx, repo, in.CategoryID); err != nil {
			return err
		}

		product.Name = in.Name
		product.Description = in.Description
		product.Price = in.Price
		product.StockQuantity = in.StockQuantity
		product.CategoryID = in.CategoryID
		product.IsActive = activeOr(in.IsActive, product.IsActive)
		if err := repo.UpdateProduct(ctx, product); err != nil {
			return classifyDB(err, "product", "update product")
		}

		if len(deleteIDs) > 0 {
			images, err := repo.FindImagesByIDs(ctx, id, deleteIDs)
			if err != nil {
				return classifyDB(err, "product image", "load product images")
			}
			if missing := missingIDs(deleteIDs, images); len(missing) > 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "images do not belong to product").
					WithDetails(map[string]any{"image_ids": missing})
			}
			if err := repo.DeleteImages(ctx, deleteIDs); err != nil {
				return classifyDB(err, "product image", "delete product images")
			}
			for _, img := range images {
				released.add(img.ImageURL)
			}
		}

		if len(uploads) == 0 {
			return nil
		}
		existing, err := repo.ListImages(ctx, id)
		if err != nil {
			return classifyDB(err, "product image", "load product images")
		}
		return m.attachImages(ctx, repo, id, uploads, existing, PrimaryOnUpdate, written)
	})
	if err != nil {
		return nil, classifyDB(err, "product", "commit product update")
	}
	written.forget()

	if err := m.purge(ctx, opUpdateProduct, released); err != nil {
		return nil, err
	}
	return m.loadProduct(ctx, id)
}

// DeleteProduct removes the product, its image rows and its image files in
// the configured delete order.
func (m *Manager) DeleteProduct(ctx context.Context, id uuid.UUID) (err error) {
	ctx, finish := m.track(ctx, opDeleteProduct, id.String())
	defer finish(&err)

	return m.removeEntity(ctx, removal{
		op:    opDeleteProduct,
		order: m.productDeleteOrder,
		collect: func(ctx context.Context, repo *Repository) ([]string, error) {
			if _, err := repo.FindProductByID(ctx, id); err != nil {
				return nil, classifyDB(err, "product", "load product")
			}
			images, err := repo.ListImages(ctx, id)
			if err != nil {
				return nil, classifyDB(err, "product image", "load product images")
			}
			paths := make([]string, 0, len(images))
			for _, img := range images {
				paths = append(paths, img.ImageURL)
			}
			return paths, nil
		},
		remove: func(ctx context.Context, repo *Repository) error {
			if err := repo.DeleteImagesByProduct(ctx, id); err != nil {
				return classifyDB(err, "product image", "delete product images")
			}
			if err := repo.DeleteProduct(ctx, id); err != nil {
				return classifyDB(err, "product", "delete product")
			}
			return nil
		},
	})
}

func (m *Manager) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	return m.loadProduct(ctx, id)
}

// ListProducts pages through products, newest first.
func (m *Manager) ListProducts(ctx context.Context, in ListProductsInput) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(in.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := m.repo.ListProducts(ctx, ProductQuery{
		CategoryID: in.CategoryID,
		Limit:      in.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, classifyDB(err, "product", "list products")
	}

	rows, next := pagination.Trim(rows, in.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	page := &ProductPage{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Products = append(page.Products, NewProductDTO(&rows[i]))
	}
	return page, nil
}

// attachImages saves each upload and inserts its row, in upload order.
func (m *Manager) attachImages(ctx context.Context, repo *Repository, productID uuid.UUID, uploads []storage.Upload, existing []models.ProductImage, mode PrimaryMode, written *artifactList) error {
	primary := ChoosePrimary(existing, len(uploads), mode)
	next := nextPosition(existing)
	for i := range uploads {
		stored, err := m.save(ctx, uploads[i], storage.FolderProducts, written)
		if err != nil {
			return err
		}
		image := &models.ProductImage{
			ProductID:   productID,
			ImageURL:    stored.Path,
			Extension:   stored.Extension,
			SizeInBytes: stored.Size,
			IsPrimary:   i == primary,
			Position:    next + i,
		}
		if err := repo.CreateImage(ctx, image); err != nil {
			return classifyDB(err, "product image", "insert product image")
		}
	}
	return nil
}

func (m *Manager) loadProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := m.repo.GetProductDetail(ctx, id)
	if err != nil {
		return nil, classifyDB(err, "product", "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// nextPosition is one past the highest position among existing images.
func nextPosition(existing []models.ProductImage) int {
	next := 0
	for _, img := range existing {
		if img.Position >= next {
			next = img.Position + 1
		}
	}
	return next
}

func ensureCategory(ctx context.Context, repo *Repository, id uuid.UUID) error {
	ok, err := repo.CategoryExists(ctx, id)
	if err != nil {
		return classifyDB(err, "category", "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
			WithDetails(map[string]any{"category_id": id})
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(want []uuid.UUID, found []models.ProductImage) []uuid.UUID {
	have := make(map[uuid.UUID]struct{}, len(found))
	for _, img := range found {
		have[img.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
