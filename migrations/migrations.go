// Package migrations selects the embedded migration set for a driver.
package migrations

import (
	"fmt"
	"io/fs"

	"github.com/dropDatabas3/viajes/migrations/mysql"
	"github.com/dropDatabas3/viajes/migrations/postgres"
	"github.com/dropDatabas3/viajes/migrations/sqlite"
)

// For returns the migrations FS and directory for driver.
func For(driver string) (fs.FS, string, error) {
	switch driver {
	case "mysql":
		return mysql.FS, mysql.Dir, nil
	case "postgres":
		return postgres.FS, postgres.Dir, nil
	case "sqlite":
		return sqlite.FS, sqlite.Dir, nil
	default:
		return nil, "", fmt.Errorf("migrations: driver no soportado: %q", driver)
	}
}
