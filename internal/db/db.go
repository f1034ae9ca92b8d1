// Package db opens the SQLite databases used by the server and builds
// queries against them.
package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// Both pools use WAL mode so reads and writes don't block each other,
	// enforce foreign keys and wait up to 5 seconds for a lock.
	// Writers start their transactions immediately, which serializes them
	// at BEGIN instead of failing on lock upgrades halfway through.
	sharedOptions = "_foreign_keys=on&_journal_mode=wal&_busy_timeout=5000"
	writeOptions  = "?" + sharedOptions + "&_txlock=immediate"
	readOptions   = "?" + sharedOptions
)

// OpenSQLite opens a pool of SQLite connections. Reading and writing need
// different settings, so the caller tells what the pool will be used for.
//
// See https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
func OpenSQLite(dbFile string, write bool) (*sql.DB, error) {
	opts := readOptions
	if write {
		opts = writeOptions
	}

	db, err := sql.Open("sqlite3", dbFile+opts)
	if err != nil {
		return nil, err
	}

	if write {
		// a single connection does all the writing.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	return db, nil
}
