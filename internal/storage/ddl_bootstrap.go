package storage

import (
	"context"
	"fmt"
	"sync"

	"retailetl/internal/ddl"
)

// DDLBootstrapper creates td through repo if it does not exist yet.
// Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, td ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, td ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, td)
}

// DialectBootstrapper returns a DDLBootstrapper that renders td in d and
// executes it.
func DialectBootstrapper(d ddl.Dialect) DDLBootstrapper {
	return func(ctx context.Context, repo Repository, td ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(td, d)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", td.FQN, err)
		}
		return nil
	}
}
