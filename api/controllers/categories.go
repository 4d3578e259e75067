package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-admin/api/responses"
	"github.com/angelmondragon/catalog-admin/api/validators"
	"github.com/angelmondragon/catalog-admin/internal/catalog"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/logger"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// CategoryService is the category half of catalog.Manager.
type CategoryService interface {
	AddCategory(ctx context.Context, in catalog.CategoryInput, upload *storage.Upload) (*catalog.CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in catalog.CategoryInput, upload *storage.Upload, deleteImage bool) (*catalog.CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (*catalog.CategoryDTO, error)
	ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error)
}

func ListCategories(svc CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		list, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetCategory(svc CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.GetCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// CreateCategory accepts multipart fields name, description, is_active and an
// optional image file.
func CreateCategory(svc CategoryService, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		form, err := validators.ParseMultipart(w, r, validators.MaxBodyBytes(maxUpload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeForm(r.Context(), logg, form)

		in, err := categoryInput(form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		upload, err := form.Upload("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.AddCategory(r.Context(), in, upload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateCategory additionally honours delete_image=true to drop the current
// image without replacing it.
func UpdateCategory(svc CategoryService, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form, err := validators.ParseMultipart(w, r, validators.MaxBodyBytes(maxUpload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeForm(r.Context(), logg, form)

		in, err := categoryInput(form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleteImage, err := form.Bool("delete_image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		upload, err := form.Upload("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateCategory(r.Context(), id, in, upload, deleteImage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeleteCategory(svc CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func categoryInput(form *validators.MultipartForm) (catalog.CategoryInput, error) {
	active, err := form.OptionalBool("is_active")
	if err != nil {
		return catalog.CategoryInput{}, err
	}
	return catalog.CategoryInput{
		Name:        form.Value("name"),
		Description: form.OptionalString("description"),
		IsActive:    active,
	}, nil
}

func closeForm(ctx context.Context, logg *logger.Logger, form *validators.MultipartForm) {
	if err := form.Close(); err != nil && logg != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "multipart.cleanup_failed")
	}
}
