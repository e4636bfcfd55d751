package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenInMemory opens a private, migrated in-memory SQLite database. Each
// call gets its own named database so parallel tests never share rows. A
// single connection keeps SQLite from reporting shared-cache table locks.
func OpenInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := Open(Config{Driver: DriverSQLite, DSN: dsn, MaxOpenConns: 1})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
