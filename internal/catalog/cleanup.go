package catalog

import (
	"context"

	"go.uber.org/multierr"

	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

// artifactList collects stored paths touched by one operation attempt. It is
// used both as the compensation list for files written before commit and as
// the purge list for files released by a commit.
type artifactList struct {
	store storage.Store
	paths []string
}

func newArtifactList(store storage.Store) *artifactList {
	return &artifactList{store: store}
}

func (l *artifactList) add(path string) {
	if path != "" {
		l.paths = append(l.paths, path)
	}
}

func (l *artifactList) len() int { return len(l.paths) }

// removeAll deletes every tracked file, newest first, and keeps going past
// failures. It returns the paths it could not delete and the combined error.
func (l *artifactList) removeAll(ctx context.Context) (failed []string, err error) {
	for i := len(l.paths) - 1; i >= 0; i-- {
		if delErr := l.store.Delete(ctx, l.paths[i]); delErr != nil {
			failed = append(failed, l.paths[i])
			err = multierr.Append(err, delErr)
		}
	}
	l.paths = nil
	return failed, err
}

// forget drops tracked paths once the rows referencing them are committed.
func (l *artifactList) forget() {
	l.paths = nil
}
