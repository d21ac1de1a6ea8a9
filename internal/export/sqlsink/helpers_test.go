package sqlsink

import (
	"database/sql"
	"testing"

	"retailetl/internal/storage"
)

// sqliteDB digs the *sql.DB out of a repository opened through storage.New.
func sqliteDB(t *testing.T, repo storage.Repository) *sql.DB {
	t.Helper()
	h, ok := repo.(interface{ DB() *sql.DB })
	if !ok {
		t.Fatalf("repository %T does not expose DB()", repo)
	}
	return h.DB()
}
