// Package storage defines the artifact store surface used by the catalog.
package storage

import (
	"context"
	"io"
)

// Folder is a subdirectory of the artifact root, one per entity kind.
type Folder string

const (
	FolderCategories Folder = "categories"
	FolderProducts   Folder = "products"
)

// Upload is an incoming file. Size is the client-declared length; a negative
// value means unknown and the store counts bytes while writing.
type Upload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// Stored describes a file that now exists in the store.
type Stored struct {
	// Path is the public path persisted on entity rows.
	Path      string
	Extension string
	Size      int64
}

// Store validates, writes and removes artifacts.
type Store interface {
	Validate(u Upload) error
	Save(ctx context.Context, u Upload, folder Folder) (Stored, error)
	Delete(ctx context.Context, path string) error
}
