package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "categories_name_key", TableName: "categories", Message: "duplicate key"}
	err := Wrap(CodeConflict, pgErr, "insert category")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "categories_name_key", d.PGConstraint)
	assert.Equal(t, "categories", d.PGTable)
	require.Len(t, d.Chain, 2)
}

func TestDumpListsCombinedErrors(t *testing.T) {
	primary := stdErrors.New("insert image row")
	cleanup := stdErrors.New("remove /images/products/a.png")
	err := Wrap(CodeTransaction, multierr.Combine(primary, cleanup), "add product")

	d := Dump(err)
	assert.Equal(t, CodeTransaction, d.Code)
	assert.Equal(t, []string{primary.Error(), cleanup.Error()}, d.Combined)
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
