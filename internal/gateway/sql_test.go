package gateway

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func newSQLGateway(t *testing.T) Gateway {
	t.Helper()
	dsn := fmt.Sprintf("file:gw_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gw := NewSQL(db, widgetSchema())
	require.NoError(t, gw.Migrate(context.Background()))
	return gw
}

func TestSQLGateway(t *testing.T) {
	runContract(t, newSQLGateway)
}

func TestSQLGateway_Ping(t *testing.T) {
	gw := newSQLGateway(t)
	require.NoError(t, gw.Ping(context.Background()))
}
