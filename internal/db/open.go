package db

import (
	"context"
	"fmt"
)

// Open returns a migrated Store for the named driver.
// For sqlite the dsn is a file path; for postgres it is a connection URL.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		pg, err := Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
