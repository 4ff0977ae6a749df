package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expense-api/internal/config"
	"expense-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")

	s, err := Open(context.Background(), config.StoreConfig{
		StoreDriver:  config.DriverSQLite,
		DBPath:       path,
		StoreTimeout: time.Second,
	})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &storage.DB{}, s)
	assert.NoError(t, s.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestOpen_MongoUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unused.db")

	_, err := Open(context.Background(), config.StoreConfig{
		StoreDriver:  config.DriverMongo,
		DBPath:       path,
		MongoURI:     "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
		MongoDB:      "expense-test",
		StoreTimeout: 500 * time.Millisecond,
	})
	require.Error(t, err)
	assert.NoFileExists(t, path, "a mongo config must never fall back to sqlite")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{StoreDriver: "postgres", StoreTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
