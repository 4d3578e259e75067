package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-admin/pkg/db/dbtest"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t).DB()
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, "value", bound.Statement.Context.Value(ctxKey{}))
}

func TestBaseBind(t *testing.T) {
	conn := dbtest.Open(t).DB()
	base := NewBase(conn)

	tx := conn.Session(&gorm.Session{})
	assert.Same(t, tx, base.Bind(tx).db)
	assert.Same(t, conn, base.Bind(nil).db)
}
