package admins

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/pkg/config"
	"github.com/angelmondragon/catalog-admin/pkg/db"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/logger"
	"github.com/angelmondragon/catalog-admin/pkg/security"
)

const duplicateAdminMessage = "username, email, or phone already exists"

// ServiceParams names the dependencies of the admin service.
type ServiceParams struct {
	Repo           *Repository
	DB             db.TxRunner
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// Service manages admin accounts and exposes the role catalogue.
type Service struct {
	repo        *Repository
	db          db.TxRunner
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	validate    *validator.Validate
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, errors.New("admin repository required")
	}
	if p.DB == nil {
		return nil, errors.New("transaction runner required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		repo:        p.Repo,
		db:          p.DB,
		passwordCfg: p.PasswordConfig,
		logg:        logg,
		validate:    newValidator(),
	}, nil
}

// AddAdmin creates an admin after checking that username, email and phone are
// all unused. The check and the insert share a transaction; a unique
// violation from a concurrent insert is reported the same way.
func (s *Service) AddAdmin(ctx context.Context, in AddAdminInput) (*AdminDTO, error) {
	in = normalizeAdmin(in)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, validationError(err)
	}

	hash, err := security.HashPassword(in.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	admin := &models.Admin{
		FullName:       in.FullName,
		Username:       in.Username,
		Email:          in.Email,
		Phone:          in.Phone,
		HashedPassword: hash,
		RoleID:         in.RoleID,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.RoleExists(ctx, in.RoleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check role")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "role does not exist").
				WithDetails(map[string]any{"role_id": in.RoleID})
		}

		existing, err := repo.FindConflicting(ctx, in.Username, in.Email, in.Phone)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check admin uniqueness")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateAdminMessage)
		}

		if err := repo.Create(ctx, admin); err != nil {
			if errors.Is(err, ErrDuplicateAdmin) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, duplicateAdminMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "insert admin")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Classify(err, pkgerrors.CodeTransaction, "commit admin")
	}

	created, err := s.repo.FindByID(ctx, admin.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "load admin")
	}
	s.logg.Info(s.logg.WithField(ctx, "created_admin_id", created.ID.String()), "admin created")
	dto := NewAdminDTO(created)
	return &dto, nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]AdminDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "list admins")
	}
	out := make([]AdminDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewAdminDTO(&rows[i]))
	}
	return out, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleDTO, error) {
	rows, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewRoleDTO(&rows[i]))
	}
	return out, nil
}

func normalizeAdmin(in AddAdminInput) AddAdminInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// validationError reports failing fields by json name and tag.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin")
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid admin").WithDetails(fields)
}
