// Package all registers every bundled storage backend. Import it for side
// effects:
//
//	import _ "retailetl/internal/storage/all"
//
// After that, storage.New and storage.EnsureTable accept the kinds
// "postgres", "mssql", "mysql" and "sqlite".
package all

import (
	_ "retailetl/internal/storage/mssql"
	_ "retailetl/internal/storage/mysql"
	_ "retailetl/internal/storage/postgres"
	_ "retailetl/internal/storage/sqlite"
)
