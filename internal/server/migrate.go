package server

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded schema files in name order. They are
// written with IF NOT EXISTS, so every start runs all of them. A nil logger
// keeps it quiet.
func RunMigrations(db *sql.DB, logger *log.Logger) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("migration %s: %w", path.Base(name), err)
		}
		if logger != nil {
			logger.Printf("db: applied %s", path.Base(name))
		}
	}
	return nil
}
