package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
)

// CategoryInput carries the mutable category fields. IsActive defaults to
// true on create and keeps the stored value on update when nil.
type CategoryInput struct {
	Name        string
	Description *string
	IsActive    *bool
}

// ProductInput carries the mutable product fields.
type ProductInput struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	StockQuantity int
	CategoryID    uuid.UUID
	IsActive      *bool
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductImageDTO struct {
	ID          uuid.UUID `json:"id"`
	ImageURL    string    `json:"image_url"`
	Extension   string    `json:"extension"`
	SizeInBytes int64     `json:"size_in_bytes"`
	IsPrimary   bool      `json:"is_primary"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductDTO struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	Price         decimal.Decimal   `json:"price"`
	StockQuantity int               `json:"stock_quantity"`
	IsActive      bool              `json:"is_active"`
	CategoryID    uuid.UUID         `json:"category_id"`
	CategoryName  string            `json:"category_name,omitempty"`
	PrimaryImage  *string           `json:"primary_image_url"`
	Images        []ProductImageDTO `json:"images"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ProductPage is one page of ListProducts.
type ProductPage struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func NewCategoryDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func NewProductDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CategoryID:    p.CategoryID,
		Images:        make([]ProductImageDTO, 0, len(p.Images)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		dto.CategoryName = p.Category.Name
	}
	if primary := p.PrimaryImage(); primary != nil {
		url := primary.ImageURL
		dto.PrimaryImage = &url
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, ProductImageDTO{
			ID:          img.ID,
			ImageURL:    img.ImageURL,
			Extension:   img.Extension,
			SizeInBytes: img.SizeInBytes,
			IsPrimary:   img.IsPrimary,
			Position:    img.Position,
			CreatedAt:   img.CreatedAt,
		})
	}
	return dto
}

func (in CategoryInput) normalize() (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "category name is required").
			WithDetails(map[string]any{"field": "name"})
	}
	in.Description = trimOptional(in.Description)
	return in, nil
}

func (in ProductInput) normalize() (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimOptional(in.Description)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if in.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if in.StockQuantity < 0 {
		fields["stock_quantity"] = "must not be negative"
	}
	if in.CategoryID == uuid.Nil {
		fields["category_id"] = "is required"
	}
	if len(fields) > 0 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
	}
	in.Price = in.Price.Round(2)
	return in, nil
}

func activeOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
