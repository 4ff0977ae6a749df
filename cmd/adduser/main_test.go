package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"expense-api/internal/service"
	"expense-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_success.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "testuser", "-email", "test@example.com", "-password", "secret", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "User testuser created successfully")
	assert.Contains(t, output, "(1 users total)")

	// The created account can log in through the same service the API uses.
	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := service.NewAccounts(db).Authenticate(context.Background(), "test@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Contains(t, output, user.ID)
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_duplicate.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "testuser", "-email", "test@example.com", "-password", "secret", "-db", dbPath}

	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err, "first run should succeed")

	stdout.Reset()
	stderr.Reset()
	err = run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error on duplicate user")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_DuplicateEmail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_duplicate_email.db")
	stdin := new(bytes.Buffer)

	err := run([]string{"-user", "first", "-email", "same@example.com", "-password", "secret", "-db", dbPath},
		stdin, new(bytes.Buffer), new(bytes.Buffer))
	require.NoError(t, err)

	err = run([]string{"-user", "second", "-email", "same@example.com", "-password", "secret", "-db", dbPath},
		stdin, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestRun_MissingFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing user", []string{"-email", "a@example.com", "-password", "secret"}, "missing required flags: user"},
		{"missing email", []string{"-user", "a", "-password", "secret"}, "missing required flags: email"},
		{"missing both", []string{"-password", "secret"}, "missing required flags: user, email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := new(bytes.Buffer)
			err := run(tt.args, new(bytes.Buffer), stdout, new(bytes.Buffer))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, stdout.String(), "Usage:")
		})
	}
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_interactive.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	stdin := bytes.NewBufferString("interactive_secret\n")

	args := []string{"-user", "interactive_user", "-email", "i@example.com", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Password: ")
	assert.Contains(t, output, "User interactive_user created successfully")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	stdin := bytes.NewBufferString("\n")

	args := []string{"-user", "empty_pass_user", "-email", "e@example.com"}
	err := run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error for empty password")
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_EnvVarOverride(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_env.db")

	t.Setenv("DB_PATH", dbPath)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "envuser", "-email", "env@example.com", "-password", "secret"}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.FileExists(t, dbPath)
}

func TestRun_MongoDriverNeverWritesSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stray.db")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200")
	t.Setenv("STORE_TIMEOUT", "500ms")
	t.Setenv("DB_PATH", dbPath)

	args := []string{"-user", "mongouser", "-email", "m@example.com", "-password", "secret"}
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "an unreachable mongo server must fail the command")
	assert.Contains(t, err.Error(), "failed to open database")
	assert.NoFileExists(t, dbPath)
}

func TestRun_DBFlagRequiresSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flag.db")
	t.Setenv("STORE_DRIVER", "mongo")

	args := []string{"-user", "u", "-email", "u@example.com", "-password", "secret", "-db", dbPath}
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-db applies to the sqlite driver only")
	assert.NoFileExists(t, dbPath)
}

func TestRun_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")

	args := []string{"-user", "u", "-email", "u@example.com", "-password", "secret"}
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestRun_InvalidDBPath(t *testing.T) {
	// A directory cannot be opened as a database file.
	tmpDir := t.TempDir()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "failuser", "-email", "f@example.com", "-password", "secret", "-db", tmpDir}
	err := run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error for invalid db path")
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-invalid"}
	err := run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error for invalid flag")
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
