package server

import (
	"database/sql"
	"log"

	_ "modernc.org/sqlite"
)

// OpenDB opens the sqlite file backing SQLitePersister and brings its schema
// up to date. logger may be nil.
func OpenDB(path string, logger *log.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
