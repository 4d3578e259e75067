package validators

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
)

type formFile struct {
	field, name, body string
}

func multipartRequest(t *testing.T, values map[string][]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, vals := range values {
		for _, v := range vals {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func parse(t *testing.T, req *http.Request) *MultipartForm {
	t.Helper()
	form, err := ParseMultipart(httptest.NewRecorder(), req, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.Close() })
	return form
}

func TestMultipartScalars(t *testing.T) {
	id := uuid.New()
	form := parse(t, multipartRequest(t, map[string][]string{
		"name":        {"  Shoes  "},
		"description": {""},
		"active":      {"true"},
		"stock":       {"12"},
		"price":       {"19.90"},
		"category_id": {id.String()},
	}, nil))

	assert.Equal(t, "Shoes", form.Value("name"))
	assert.True(t, form.Has("description"))
	assert.False(t, form.Has("missing"))

	desc := form.OptionalString("description")
	require.NotNil(t, desc)
	assert.Empty(t, *desc)
	assert.Nil(t, form.OptionalString("missing"))

	active, err := form.Bool("active")
	require.NoError(t, err)
	assert.True(t, active)

	flag, err := form.OptionalBool("missing")
	require.NoError(t, err)
	assert.Nil(t, flag)

	stock, err := form.Int("stock")
	require.NoError(t, err)
	assert.Equal(t, 12, stock)

	price, err := form.Decimal("price")
	require.NoError(t, err)
	assert.Equal(t, "19.9", price.String())

	got, err := form.UUID("category_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestMultipartScalarErrors(t *testing.T) {
	form := parse(t, multipartRequest(t, map[string][]string{
		"active": {"maybe"},
		"stock":  {"ten"},
		"price":  {"1,5"},
		"id":     {"nope"},
	}, nil))

	_, err := form.Bool("active")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = form.Int("stock")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = form.Int("missing")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = form.Decimal("price")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = form.UUID("id")
	require.Error(t, err)
	assert.Equal(t, map[string]string{"id": "must be a uuid"}, pkgerrors.As(err).Details())
}

func TestMultipartUUIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	form := parse(t, multipartRequest(t, map[string][]string{
		"delete_image_ids": {a.String() + ", " + b.String() + ",", c.String()},
		"bad":              {a.String() + ",zzz"},
	}, nil))

	ids, err := form.UUIDs("delete_image_ids")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b, c}, ids)

	ids, err = form.UUIDs("missing")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = form.UUIDs("bad")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestMultipartUploads(t *testing.T) {
	form := parse(t, multipartRequest(t, nil, []formFile{
		{field: "images", name: "a.png", body: "aaa"},
		{field: "images", name: "b.jpg", body: "bb"},
		{field: "image", name: "c.webp", body: "c"},
	}))

	uploads, err := form.Uploads("images")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "a.png", uploads[0].FileName)
	assert.EqualValues(t, 3, uploads[0].Size)
	content, err := io.ReadAll(uploads[1].Content)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(content))

	single, err := form.Upload("image")
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "c.webp", single.FileName)

	none, err := form.Upload("absent")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = form.Upload("images")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, form.Close())
	assert.Empty(t, form.files)
}

func TestMultipartTooManyFiles(t *testing.T) {
	files := make([]formFile, 0, MaxFilesPerField+1)
	for i := 0; i <= MaxFilesPerField; i++ {
		files = append(files, formFile{field: "images", name: "x.png", body: "x"})
	}
	form := parse(t, multipartRequest(t, nil, files))

	_, err := form.Uploads("images")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestParseMultipartLimits(t *testing.T) {
	req := multipartRequest(t, nil, []formFile{{field: "images", name: "big.png", body: strings.Repeat("x", 4096)}})
	_, err := ParseMultipart(httptest.NewRecorder(), req, 512)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidArtifact, pkgerrors.CodeOf(err))

	plain := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=x"))
	plain.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = ParseMultipart(httptest.NewRecorder(), plain, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestMaxBodyBytes(t *testing.T) {
	assert.Zero(t, MaxBodyBytes(0))
	assert.EqualValues(t, 100*MaxFilesPerField+1<<20, MaxBodyBytes(100))
}

type loginBody struct {
	Login    string `json:"login" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"admin","password":"Password1"}`))
		var body loginBody
		require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), req, &body))
		assert.Equal(t, "admin", body.Login)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"a","password":"Password1","role":"master"}`))
		var body loginBody
		err := DecodeJSONBody(httptest.NewRecorder(), req, &body)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	})

	t.Run("tag failures use json names", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"short"}`))
		var body loginBody
		err := DecodeJSONBody(httptest.NewRecorder(), req, &body)
		require.Error(t, err)
		assert.Equal(t, map[string]string{
			"login":    "is required",
			"email":    "must be a valid email",
			"password": "must be at least 8",
		}, pkgerrors.As(err).Details())
	})
}

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{query: "", want: 25},
		{query: "limit=10", want: 10},
		{query: "limit=0", wantErr: true},
		{query: "limit=101", wantErr: true},
		{query: "limit=abc", wantErr: true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		got, err := ParseQueryInt(req, "limit", 25, 1, 100)
		if tc.wantErr {
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), tc.query)
			continue
		}
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestParseQueryUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/?category_id="+id.String(), nil), "category_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	got, err = ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/", nil), "category_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/?category_id=1", nil), "category_id")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("productId", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseURLUUID(withParam(id.String()), "productId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseURLUUID(withParam("not-a-uuid"), "productId")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
