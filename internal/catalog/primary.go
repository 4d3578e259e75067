package catalog

import "github.com/angelmondragon/catalog-admin/pkg/db/models"

// PrimaryMode selects how a batch of new images competes for the primary flag.
type PrimaryMode int

const (
	// PrimaryOnAdd promotes the first image of the batch unless an existing
	// image is already primary. On AddProduct existing is always empty, so
	// this is the "no pre-existing images" rule; a product whose only images
	// are secondary also gets its first new image promoted.
	PrimaryOnAdd PrimaryMode = iota
	// PrimaryOnUpdate never promotes; images added during an update are
	// always secondary, even if the product lost its primary earlier.
	PrimaryOnUpdate
)

// NoPrimary is returned by ChoosePrimary when no batch index is promoted.
const NoPrimary = -1

// ChoosePrimary returns the index within a batch of batchSize new images that
// should be flagged primary, or NoPrimary. Deleting a primary image never
// triggers a re-election; a product without a primary renders a placeholder.
func ChoosePrimary(existing []models.ProductImage, batchSize int, mode PrimaryMode) int {
	if mode != PrimaryOnAdd || batchSize <= 0 {
		return NoPrimary
	}
	for _, img := range existing {
		if img.IsPrimary {
			return NoPrimary
		}
	}
	return 0
}
