// Package local stores artifacts on the local filesystem under a configured
// root and hands out public paths rooted at a URL prefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// DefaultAllowedExtensions is the image allow-list.
var DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

// Config is the explicit store configuration.
type Config struct {
	// Root is the directory holding one subdirectory per storage.Folder.
	Root string
	// PublicPrefix is prepended to stored paths, "/images" by default.
	PublicPrefix      string
	AllowedExtensions []string
	// MaxBytes caps a single upload; zero disables the check.
	MaxBytes int64
}

type Store struct {
	root     string
	prefix   string
	allowed  map[string]struct{}
	maxBytes int64
}

var _ storage.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("artifact root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving artifact root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact root: %w", err)
	}

	prefix := strings.TrimRight(cfg.PublicPrefix, "/")
	if prefix == "" {
		prefix = "/images"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	exts := cfg.AllowedExtensions
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = normalizeExtension(ext)
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}

	return &Store{root: root, prefix: prefix, allowed: allowed, maxBytes: cfg.MaxBytes}, nil
}

// Root returns the absolute directory served under PublicPrefix.
func (s *Store) Root() string { return s.root }

// PublicPrefix returns the URL prefix of stored paths.
func (s *Store) PublicPrefix() string { return s.prefix }

// Validate checks an upload without touching the filesystem.
func (s *Store) Validate(u storage.Upload) error {
	ext := normalizeExtension(filepath.Ext(u.FileName))
	if _, ok := s.allowed[ext]; !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidArtifact, "file extension not allowed").
			WithDetails(map[string]any{"file_name": u.FileName, "allowed": s.allowedList()})
	}
	if u.Content == nil || u.Size == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidArtifact, "file is empty").
			WithDetails(map[string]any{"file_name": u.FileName})
	}
	if s.maxBytes > 0 && u.Size > s.maxBytes {
		return s.tooLarge(u.FileName)
	}
	return nil
}

// Save writes the upload under a fresh random name in folder. A partially
// written file is removed before an error is returned.
func (s *Store) Save(ctx context.Context, u storage.Upload, folder storage.Folder) (storage.Stored, error) {
	if err := s.Validate(u); err != nil {
		return storage.Stored{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.Stored{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "save artifact")
	}

	dir := filepath.Join(s.root, string(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storage.Stored{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create artifact folder")
	}

	ext := normalizeExtension(filepath.Ext(u.FileName))
	name := uuid.NewString() + "." + ext
	full := filepath.Join(dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return storage.Stored{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create artifact file")
	}

	src := u.Content
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(full)
		return storage.Stored{}, pkgerrors.Wrap(pkgerrors.CodeStorage, copyErr, "write artifact file")
	case closeErr != nil:
		_ = os.Remove(full)
		return storage.Stored{}, pkgerrors.Wrap(pkgerrors.CodeStorage, closeErr, "close artifact file")
	case written == 0:
		_ = os.Remove(full)
		return storage.Stored{}, pkgerrors.New(pkgerrors.CodeInvalidArtifact, "file is empty").
			WithDetails(map[string]any{"file_name": u.FileName})
	case s.maxBytes > 0 && written > s.maxBytes:
		_ = os.Remove(full)
		return storage.Stored{}, s.tooLarge(u.FileName)
	}

	return storage.Stored{
		Path:      path.Join(s.prefix, string(folder), name),
		Extension: ext,
		Size:      written,
	}, nil
}

// Delete removes the file behind a public path. Missing files and empty
// paths are not errors.
func (s *Store) Delete(_ context.Context, publicPath string) error {
	if strings.TrimSpace(publicPath) == "" {
		return nil
	}
	full, err := s.resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete artifact file")
	}
	return nil
}

// Exists reports whether a public path names a regular file in the store.
func (s *Store) Exists(publicPath string) (bool, error) {
	full, err := s.resolve(publicPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "stat artifact file")
	}
	return info.Mode().IsRegular(), nil
}

// resolve maps a public path back to a file below root and refuses anything
// that would escape it.
func (s *Store) resolve(publicPath string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimPrefix(publicPath, "/"))
	rel, ok := strings.CutPrefix(cleaned, s.prefix+"/")
	if !ok || rel == "" {
		return "", pkgerrors.New(pkgerrors.CodeStorage, "artifact path outside store").
			WithDetails(map[string]any{"path": publicPath})
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(s.root, full)
	if err != nil || within == "." || strings.HasPrefix(within, "..") {
		return "", pkgerrors.New(pkgerrors.CodeStorage, "artifact path outside store").
			WithDetails(map[string]any{"path": publicPath})
	}
	return full, nil
}

func (s *Store) tooLarge(fileName string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidArtifact, "file exceeds upload limit").
		WithDetails(map[string]any{"file_name": fileName, "max_bytes": s.maxBytes})
}

func (s *Store) allowedList() []string {
	list := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
