package migrate

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/catalog-admin/pkg/db/models"
)

// MasterAdminHash is the legacy bcrypt hash of the seeded master account. It
// is upgraded to argon2id on first login.
const MasterAdminHash = "$2a$11$zGPseXffSGSUia3dzDi5Xu0.WpkGxrR8IeJASQMzIx6PqXlgIMOu."

var seedRoles = []struct {
	name, description string
}{
	{models.RoleMaster, "Full access including admin management"},
	{models.RoleManager, "Catalog management"},
	{models.RoleEmployee, "Catalog maintenance"},
	{models.RoleSupervisor, "Catalog supervision"},
	{models.RoleBDE, "Business development"},
}

// Seed inserts the roles and master admin the SQL seed migration creates.
// It is idempotent.
func Seed(ctx context.Context, conn *gorm.DB) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range seedRoles {
			desc := r.description
			role := models.Role{Name: r.name, Description: &desc}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
				return err
			}
		}

		var master models.Role
		if err := tx.Where("name = ?", models.RoleMaster).First(&master).Error; err != nil {
			return err
		}

		var existing models.Admin
		err := tx.Where("username = ?", "masteradmin").First(&existing).Error
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Omit("Role").Create(&models.Admin{
			FullName:       "Master Admin",
			Username:       "masteradmin",
			Email:          "master@capstone.com",
			Phone:          "1234567890",
			HashedPassword: MasterAdminHash,
			RoleID:         master.ID,
		}).Error
	})
}
