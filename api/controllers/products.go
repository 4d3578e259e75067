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
	"github.com/angelmondragon/catalog-admin/pkg/pagination"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// ProductService is the product half of catalog.Manager.
type ProductService interface {
	AddProduct(ctx context.Context, in catalog.ProductInput, uploads []storage.Upload) (*catalog.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in catalog.ProductInput, deleteImageIDs []uuid.UUID, uploads []storage.Upload) (*catalog.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error)
	ListProducts(ctx context.Context, in catalog.ListProductsInput) (*catalog.ProductPage, error)
}

// ListProducts supports ?category_id=&limit=&cursor=.
func ListProducts(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			CategoryID: categoryID,
			Params: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CreateProduct accepts the product fields plus any number of files under images.
func CreateProduct(svc ProductService, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
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

		in, err := productInput(form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads, err := form.Uploads("images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.AddProduct(r.Context(), in, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateProduct also reads delete_image_ids, repeated or comma separated.
func UpdateProduct(svc ProductService, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
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

		in, err := productInput(form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleteIDs, err := form.UUIDs("delete_image_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads, err := form.Uploads("images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), id, in, deleteIDs, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeleteProduct(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func productInput(form *validators.MultipartForm) (catalog.ProductInput, error) {
	price, err := form.Decimal("price")
	if err != nil {
		return catalog.ProductInput{}, err
	}
	stock, err := form.Int("stock_quantity")
	if err != nil {
		return catalog.ProductInput{}, err
	}
	categoryID, err := form.UUID("category_id")
	if err != nil {
		return catalog.ProductInput{}, err
	}
	active, err := form.OptionalBool("is_active")
	if err != nil {
		return catalog.ProductInput{}, err
	}
	return catalog.ProductInput{
		Name:          form.Value("name"),
		Description:   form.OptionalString("description"),
		Price:         price,
		StockQuantity: stock,
		CategoryID:    categoryID,
		IsActive:      active,
	}, nil
}
