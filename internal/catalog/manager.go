package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/catalog-admin/pkg/db"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
	"github.com/angelmondragon/catalog-admin/pkg/logger"
	"github.com/angelmondragon/catalog-admin/pkg/metrics"
	"github.com/angelmondragon/catalog-admin/pkg/storage"
)

const (
	opAddCategory    = "add_category"
	opUpdateCategory = "update_category"
	opDeleteCategory = "delete_category"
	opAddProduct     = "add_product"
	opUpdateProduct  = "update_product"
	opDeleteProduct  = "delete_product"
)

// ManagerParams wires a Manager. Logger and Metrics are optional.
type ManagerParams struct {
	Repo    *Repository
	DB      db.TxRunner
	Store   storage.Store
	Logger  *logger.Logger
	Metrics *metrics.LifecycleMetrics

	CategoryDeleteOrder DeleteOrder
	ProductDeleteOrder  DeleteOrder
}

// Manager keeps catalog rows and their artifact files consistent. Files are
// written before the owning rows are committed and removed again on any
// failure; files released by an update or delete are removed per DeleteOrder.
type Manager struct {
	repo    *Repository
	db      db.TxRunner
	store   storage.Store
	logg    *logger.Logger
	metrics *metrics.LifecycleMetrics

	categoryDeleteOrder DeleteOrder
	productDeleteOrder  DeleteOrder
}

// NewManager validates dependencies. The zero value of the delete orders is
// FilesFirst, so products must opt into RowsFirst explicitly; use
// DefaultManagerParams for the standard pairing.
func NewManager(p ManagerParams) (*Manager, error) {
	if p.Repo == nil {
		return nil, errors.New("catalog repository required")
	}
	if p.DB == nil {
		return nil, errors.New("transaction runner required")
	}
	if p.Store == nil {
		return nil, errors.New("artifact store required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{
		repo:                p.Repo,
		db:                  p.DB,
		store:               p.Store,
		logg:                logg,
		metrics:             p.Metrics,
		categoryDeleteOrder: p.CategoryDeleteOrder,
		productDeleteOrder:  p.ProductDeleteOrder,
	}, nil
}

// DefaultManagerParams pairs categories with FilesFirst and products with
// RowsFirst.
func DefaultManagerParams(repo *Repository, tx db.TxRunner, store storage.Store) ManagerParams {
	return ManagerParams{
		Repo:                repo,
		DB:                  tx,
		Store:               store,
		CategoryDeleteOrder: FilesFirst,
		ProductDeleteOrder:  RowsFirst,
	}
}

// track starts an operation and returns the finisher to defer.
func (m *Manager) track(ctx context.Context, op, entityID string) (context.Context, func(*error)) {
	ctx = m.logg.WithOperation(ctx, op, entityID)
	started := time.Now()
	return ctx, func(errp *error) {
		err := *errp
		code := ""
		if err != nil {
			code = string(pkgerrors.CodeOf(err))
			switch pkgerrors.CodeOf(err) {
			case pkgerrors.CodeStorage, pkgerrors.CodeTransaction, pkgerrors.CodeInternal:
				m.logg.Error(ctx, "catalog operation failed", err)
			default:
				m.logg.Warn(m.logg.WithField(ctx, "code", code), err.Error())
			}
		}
		m.metrics.Observe(op, time.Since(started), code)
	}
}

// compensate removes files written by a failed attempt. It runs detached from
// ctx cancellation and folds cleanup failures into *errp after the original
// error, so the original error code is what callers observe.
func (m *Manager) compensate(ctx context.Context, op string, written *artifactList, errp *error) {
	if *errp == nil || written.len() == 0 {
		return
	}
	total := written.len()
	failed, cleanupErr := written.removeAll(context.WithoutCancel(ctx))
	m.metrics.ObserveCleanup(op, total-len(failed), len(failed))
	if cleanupErr != nil {
		m.logg.Error(m.logg.WithField(ctx, "orphaned", failed), "artifact compensation incomplete", cleanupErr)
		*errp = multierr.Append(*errp, cleanupErr)
	}
}

// purge removes files whose rows are already gone. Files that survive are
// orphans; they are logged, counted and reported as a storage failure.
func (m *Manager) purge(ctx context.Context, op string, released *artifactList) error {
	if released.len() == 0 {
		return nil
	}
	total := released.len()
	failed, err := released.removeAll(context.WithoutCancel(ctx))
	m.metrics.ObserveCleanup(op, total-len(failed), len(failed))
	if err == nil {
		return nil
	}
	m.logg.Error(m.logg.WithField(ctx, "orphaned", failed), "artifact purge incomplete", err)
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "rows committed but artifact cleanup incomplete").
		WithDetails(map[string]any{"orphaned": failed})
}

// validateUploads checks every upload before anything is written.
func (m *Manager) validateUploads(uploads []storage.Upload) error {
	for i := range uploads {
		if err := m.store.Validate(uploads[i]); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Details() == nil {
				typed.WithDetails(map[string]any{"index": i})
			}
			return pkgerrors.Classify(err, pkgerrors.CodeInvalidArtifact, "invalid upload")
		}
	}
	return nil
}

func (m *Manager) save(ctx context.Context, u storage.Upload, folder storage.Folder, written *artifactList) (storage.Stored, error) {
	stored, err := m.store.Save(ctx, u, folder)
	if err != nil {
		return storage.Stored{}, pkgerrors.Classify(err, pkgerrors.CodeStorage, "save artifact")
	}
	written.add(stored.Path)
	return stored, nil
}

func (m *Manager) deleteFile(ctx context.Context, path string) error {
	if err := m.store.Delete(ctx, path); err != nil {
		return pkgerrors.Classify(err, pkgerrors.CodeStorage, "delete artifact")
	}
	return nil
}
