package catalog

import (
	"github.com/angelmondragon/catalog-admin/pkg/db"
	pkgerrors "github.com/angelmondragon/catalog-admin/pkg/errors"
)

// classifyDB maps a persistence error onto the catalog error kinds. Errors
// that already carry a code pass through untouched.
func classifyDB(err error, entity, action string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case db.IsNotFound(err):
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	case db.IsUniqueViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" name already exists")
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, entity+" references a missing record")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, action)
	}
}
