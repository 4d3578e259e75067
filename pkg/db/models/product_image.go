package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductImage is one stored artifact attached to a product.
type ProductImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ImageURL    string    `gorm:"column:image_url;size:500;not null"`
	Extension   string    `gorm:"column:extension;size:10"`
	SizeInBytes int64     `gorm:"column:size_in_bytes"`
	IsPrimary   bool      `gorm:"column:is_primary;not null"`
	// Position is the upload order within the product, starting at 0.
	Position    int       `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductImage) TableName() string { return "product_images" }

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
