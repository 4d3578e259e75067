package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

const (
	multipartMemoryBytes = 8 << 20
	// MaxFilesPerField caps how many files one form field may carry.
	MaxFilesPerField = 10
)

// MultipartForm is a parsed multipart request. Close must be called once the
// uploads have been consumed.
type MultipartForm struct {
	form  *multipart.Form
	files []multipart.File
}

// ParseMultipart parses r with the body capped at maxBody bytes; zero means
// no cap.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) (*MultipartForm, error) {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArtifact, err, "request body too large").
				WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	return &MultipartForm{form: r.MultipartForm}, nil
}

// MaxBodyBytes sizes the request cap for files of at most perFile bytes.
func MaxBodyBytes(perFile int64) int64 {
	if perFile <= 0 {
		return 0
	}
	return perFile*MaxFilesPerField + 1<<20
}

// Close releases opened files and temporary spill files.
func (m *MultipartForm) Close() error {
	var err error
	for _, f := range m.files {
		err = multierr.Append(err, f.Close())
	}
	m.files = nil
	if m.form != nil {
		err = multierr.Append(err, m.form.RemoveAll())
	}
	return err
}

// Value returns the trimmed first value of key.
func (m *MultipartForm) Value(key string) string {
	if vals := m.form.Value[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// Has reports whether key was submitted at all, even empty.
func (m *MultipartForm) Has(key string) bool {
	_, ok := m.form.Value[key]
	return ok
}

// OptionalString is nil when key is absent.
func (m *MultipartForm) OptionalString(key string) *string {
	if !m.Has(key) {
		return nil
	}
	v := m.Value(key)
	return &v
}

// OptionalBool is nil when key is absent or empty.
func (m *MultipartForm) OptionalBool(key string) (*bool, error) {
	raw := m.Value(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fieldError(key, "must be a boolean")
	}
	return &v, nil
}

func (m *MultipartForm) Bool(key string) (bool, error) {
	v, err := m.OptionalBool(key)
	if err != nil || v == nil {
		return false, err
	}
	return *v, nil
}

func (m *MultipartForm) Int(key string) (int, error) {
	raw := m.Value(key)
	if raw == "" {
		return 0, fieldError(key, "is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "must be an integer")
	}
	return v, nil
}

func (m *MultipartForm) Decimal(key string) (decimal.Decimal, error) {
	raw := m.Value(key)
	if raw == "" {
		return decimal.Zero, fieldError(key, "is required")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fieldError(key, "must be a decimal number")
	}
	return v, nil
}

func (m *MultipartForm) UUID(key string) (uuid.UUID, error) {
	raw := m.Value(key)
	if raw == "" {
		return uuid.Nil, fieldError(key, "is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fieldError(key, "must be a uuid")
	}
	return id, nil
}

// UUIDs accepts repeated fields and comma separated lists.
func (m *MultipartForm) UUIDs(key string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, raw := range m.form.Value[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fieldError(key, "must be a list of uuids")
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// Uploads opens every file sent under field. Parts without a filename and
// without content are skipped, since browsers send them for untouched file
// inputs.
func (m *MultipartForm) Uploads(field string) ([]storage.Upload, error) {
	headers := m.form.File[field]
	if len(headers) > MaxFilesPerField {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many files").
			WithDetails(map[string]any{"field": field, "max": MaxFilesPerField})
	}
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload").
				WithDetails(map[string]any{"field": field, "file": fh.Filename})
		}
		m.files = append(m.files, f)
		uploads = append(uploads, storage.Upload{FileName: fh.Filename, Size: fh.Size, Content: f})
	}
	return uploads, nil
}

// Upload returns the single file under field, or nil when none was sent.
func (m *MultipartForm) Upload(field string) (*storage.Upload, error) {
	uploads, err := m.Uploads(field)
	if err != nil {
		return nil, err
	}
	switch len(uploads) {
	case 0:
		return nil, nil
	case 1:
		return &uploads[0], nil
	default:
		return nil, fieldError(field, "accepts a single file")
	}
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: msg})
}
