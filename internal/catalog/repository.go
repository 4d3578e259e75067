package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/internal/repo"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	"github.com/angelmondragon/catalog-admin/pkg/pagination"
)

// Repository wires together category, product and product image persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

var (
	categoryColumns = []string{"name", "description", "image_url", "is_active", "updated_at"}
	productColumns  = []string{"name", "description", "price", "stock_quantity", "is_active", "category_id", "updated_at"}
)

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

// UpdateCategory writes every mutable column, including cleared image paths.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := r.DB(ctx).Model(category).Select(categoryColumns).Updates(category)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category, newest first.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CountProductsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// CreateProduct inserts the product row alone and returns its generated id.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (uuid.UUID, error) {
	if err := r.DB(ctx).Omit("Category", "Images").Create(product).Error; err != nil {
		return uuid.Nil, err
	}
	return product.ID, nil
}

// UpdateProduct writes the scalar columns of an existing product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res := r.DB(ctx).
		Model(product).
		Select(productColumns).
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindProductByID loads the product without associations.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductDetail hydrates a product with its category and ordered images.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Category").
		Preload("Images", orderImages).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductQuery filters and pages ListProducts.
type ProductQuery struct {
	CategoryID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// ListProducts returns one page of products, newest first, with images. It
// fetches Limit+1 rows so callers can detect a following page.
func (r *Repository) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	tx := r.DB(ctx).
		Preload("Category").
		Preload("Images", orderImages)

	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if q.Cursor != nil {
		tx = tx.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []models.Product
	err := tx.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.DB(ctx).Create(image).Error
}

// ListImages returns a product's images in upload order.
func (r *Repository) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var rows []models.ProductImage
	err := orderImages(r.DB(ctx)).
		Where("product_id = ?", productID).
		Find(&rows).
		Error
	return rows, err
}

// FindImagesByIDs returns the requested images that belong to productID.
func (r *Repository) FindImagesByIDs(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) ([]models.ProductImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ProductImage
	err := orderImages(r.DB(ctx)).
		Where("product_id = ? AND id IN ?", productID, ids).
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) DeleteImages(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB(ctx).Where("id IN ?", ids).Delete(&models.ProductImage{}).Error
}

func (r *Repository) DeleteImagesByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.DB(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
}

// orderImages sorts by upload position. Timestamps of one batch can tie, so
// created_at only breaks ties between rows written before positions existed.
func orderImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC").Order("id ASC")
}
