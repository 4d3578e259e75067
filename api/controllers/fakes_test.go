package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catalog-admin/internal/catalog"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

type uploadSeen struct {
	FileName string
	Content  string
}

type fakeCatalog struct {
	err error

	categoryInput catalog.CategoryInput
	productInput  catalog.ProductInput
	deleteImage   bool
	deleteIDs     []uuid.UUID
	listInput     catalog.ListProductsInput
	uploads       []uploadSeen
	deleted       uuid.UUID
}

func (f *fakeCatalog) record(uploads ...storage.Upload) {
	for _, u := range uploads {
		raw, _ := io.ReadAll(u.Content)
		f.uploads = append(f.uploads, uploadSeen{FileName: u.FileName, Content: string(raw)})
	}
}

func (f *fakeCatalog) AddCategory(_ context.Context, in catalog.CategoryInput, upload *storage.Upload) (*catalog.CategoryDTO, error) {
	f.categoryInput = in
	if upload != nil {
		f.record(*upload)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.CategoryDTO{ID: uuid.New(), Name: in.Name}, nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, id uuid.UUID, in catalog.CategoryInput, upload *storage.Upload, deleteImage bool) (*catalog.CategoryDTO, error) {
	f.categoryInput = in
	f.deleteImage = deleteImage
	if upload != nil {
		f.record(*upload)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.CategoryDTO{ID: id, Name: in.Name}, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

func (f *fakeCatalog) GetCategory(_ context.Context, id uuid.UUID) (*catalog.CategoryDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.CategoryDTO{ID: id}, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]catalog.CategoryDTO, error) {
	return []catalog.CategoryDTO{}, f.err
}

func (f *fakeCatalog) AddProduct(_ context.Context, in catalog.ProductInput, uploads []storage.Upload) (*catalog.ProductDTO, error) {
	f.productInput = in
	f.record(uploads...)
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.ProductDTO{ID: uuid.New(), Name: in.Name}, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id uuid.UUID, in catalog.ProductInput, deleteIDs []uuid.UUID, uploads []storage.Upload) (*catalog.ProductDTO, error) {
	f.productInput = in
	f.deleteIDs = deleteIDs
	f.record(uploads...)
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.ProductDTO{ID: id, Name: in.Name}, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.ProductDTO{ID: id}, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, in catalog.ListProductsInput) (*catalog.ProductPage, error) {
	f.listInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.ProductPage{Products: []catalog.ProductDTO{}}, nil
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, method, target string, fields map[string][]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}
