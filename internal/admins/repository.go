package admins

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/pkg/db"
	"github.com/angelmondragon/catalog-admin/internal/repo"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
)

// ErrDuplicateAdmin reports a username, email or phone already taken.
var ErrDuplicateAdmin = errors.New("duplicate admin")

// Repository exposes admin and role persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// FindConflicting returns an admin sharing any of the unique fields, or nil.
func (r *Repository) FindConflicting(ctx context.Context, username, email, phone string) (*models.Admin, error) {
	var admin models.Admin
	err := r.DB(ctx).
		Where("username = ? OR email = ? OR phone = ?", username, email, phone).
		Limit(1).
		Find(&admin).
		Error
	if err != nil {
		return nil, err
	}
	if admin.ID == uuid.Nil {
		return nil, nil
	}
	return &admin, nil
}

func (r *Repository) Create(ctx context.Context, admin *models.Admin) error {
	err := r.DB(ctx).Omit("Role").Create(admin).Error
	if db.IsUniqueViolation(err) {
		return ErrDuplicateAdmin
	}
	return err
}

// FindByLogin matches login against username, email or phone.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*models.Admin, error) {
	login = strings.TrimSpace(login)
	var admin models.Admin
	err := r.DB(ctx).
		Preload("Role").
		Where("username = ? OR email = ? OR phone = ?", login, strings.ToLower(login), login).
		First(&admin).
		Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	if err := r.DB(ctx).Preload("Role").First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// List returns every admin with its role, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Admin, error) {
	var rows []models.Admin
	err := r.DB(ctx).
		Preload("Role").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}

// UpdatePasswordHash swaps the stored hash, used when upgrading legacy hashes.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		UpdateColumn("hashed_password", hash).
		Error
}

func (r *Repository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.DB(ctx).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *Repository) RoleExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Role{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.DB(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
