package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"expense-api/internal/storage"
	"expense-api/internal/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newMemoryDB(t *testing.T) storage.Store {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create test database")
	return db
}

func TestDBSuite(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{NewStore: newMemoryDB})
}

func TestNewDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")

	db, err := storage.NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Migrations must be idempotent on reopen.
	db, err = storage.NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNewDB_InvalidPath(t *testing.T) {
	_, err := storage.NewDB(t.TempDir())
	assert.Error(t, err)
}
