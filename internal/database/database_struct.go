package database

import "gorm.io/gorm"

// Database is the sole shared mutable resource: every read and write goes
// through it, correctness relies on the store's transactional guarantees.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
