package testutil

import (
	"database/sql"
	"testing"

	"marietje-uploads/pkg/sqliteutil"
)

// SetupDB opens an in-memory database with `schema` applied, it is closed
// when the test finishes.
func SetupDB(t testing.TB, schema string) *sql.DB {
	database, err := sqliteutil.OpenAndMigrateDB(schema, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
