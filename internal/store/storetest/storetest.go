// Package storetest открывает временную sqlite-базу с применёнными миграциями.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/psds-microservice/support-relay/internal/database"
	"github.com/psds-microservice/support-relay/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open возвращает gorm-соединение к свежей базе; база закрывается вместе с тестом.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "appeals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.MigrateUp(context.Background(), db, database.DriverSQLite, zerolog.Nop()))
	return db
}

// New возвращает TicketStore поверх свежей базы.
func New(t testing.TB) *store.TicketStore {
	t.Helper()
	return store.NewTicketStore(Open(t))
}
