package catalog

import (
	"context"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
)

// DeleteOrder decides whether an entity's artifact files or its rows go first
// when the entity is deleted.
type DeleteOrder int

const (
	// FilesFirst removes files and then rows. A failed row delete can leave
	// an empty reference but never an orphan file. Default for categories.
	FilesFirst DeleteOrder = iota
	// RowsFirst commits the row delete and then removes files. A failed file
	// delete leaves an orphan file but never a dangling row. Default for
	// products.
	RowsFirst
)

func (o DeleteOrder) String() string {
	switch o {
	case FilesFirst:
		return "files_first"
	case RowsFirst:
		return "rows_first"
	default:
		return "unknown"
	}
}

// removal describes how to delete one entity. collect loads the entity and
// returns the artifact paths it owns; remove deletes its rows. Both run in
// the same transaction.
type removal struct {
	op      string
	order   DeleteOrder
	collect func(ctx context.Context, repo *Repository) ([]string, error)
	remove  func(ctx context.Context, repo *Repository) error
}

func (m *Manager) removeEntity(ctx context.Context, r removal) error {
	released := newArtifactList(m.store)

	err := m.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)
		paths, err := r.collect(ctx, repo)
		if err != nil {
			return err
		}
		for _, p := range paths {
			released.add(p)
		}

		if r.order == FilesFirst {
			total := released.len()
			failed, err := released.removeAll(ctx)
			m.metrics.ObserveCleanup(r.op, total-len(failed), len(failed))
			if err != nil {
				return pkgerrors.Classify(err, pkgerrors.CodeStorage, "delete artifact")
			}
		}
		return r.remove(ctx, repo)
	})
	if err != nil {
		return classifyDB(err, "entity", "commit delete")
	}

	return m.purge(ctx, r.op, released)
}
