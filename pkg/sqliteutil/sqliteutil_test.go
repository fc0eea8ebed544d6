package sqliteutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("libsql://example.turso.io"))
	require.True(t, IsRemote("https://example.turso.io"))
	require.False(t, IsRemote("history.db"))
	require.False(t, IsRemote(":memory:"))
}

func TestOpenAndMigrateDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := OpenAndMigrateDB(testSchema, path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO kv (key, value) VALUES ('a', 'b')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// migrating an existing database must keep its rows
	db, err = OpenAndMigrateDB(testSchema, path)
	require.NoError(t, err)
	defer db.Close()

	var value string
	err = db.QueryRow("SELECT value FROM kv WHERE key = 'a'").Scan(&value)
	require.NoError(t, err)
	require.Equal(t, "b", value)
}

func TestOpenExistingDB(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "typo.db")

	_, err := OpenExistingDB(missing)
	require.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(missing)
	require.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "history.db")
	db, err := OpenAndMigrateDB(testSchema, path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO kv (key, value) VALUES ('a', 'b')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenExistingDB(path)
	require.NoError(t, err)
	defer db.Close()

	var value string
	err = db.QueryRow("SELECT value FROM kv WHERE key = 'a'").Scan(&value)
	require.NoError(t, err)
	require.Equal(t, "b", value)
}
