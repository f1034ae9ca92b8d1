// Package migrate applies numbered .sql files to a database exactly once,
// recording each applied file in a migrations table.
//
// Files are named <number>_<description>.sql and applied in numeric order,
// so 10_x.sql runs after 2_x.sql. Numbers don't need to be contiguous but
// must be unique.
package migrate

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Migration is a migration file that was applied.
type Migration struct {
	// Sequence is the position of the file in application order, starting at 0.
	Sequence int
	Filename string
	Metadata Metadata
}

// Equal reports whether m and other describe the same applied migration.
func (m Migration) Equal(other Migration) bool {
	return m.Sequence == other.Sequence &&
		m.Filename == other.Filename &&
		m.Metadata.AppVersion == other.Metadata.AppVersion &&
		m.Metadata.Timestamp.Equal(other.Metadata.Timestamp)
}

// Metadata is stored alongside every applied migration.
type Metadata struct {
	AppVersion string
	Timestamp  time.Time
}

var (
	// ErrNoTable indicates the migrations table does not exist.
	ErrNoTable = errors.New("migrations table does not exist")
	// ErrMigrationsMismatch indicates the applied migrations no longer line up with the files.
	ErrMigrationsMismatch = errors.New("migrations mismatch")
	// ErrInvalidFilename indicates a .sql file without a unique number prefix.
	ErrInvalidFilename = errors.New("invalid migration filename")
)

// MigrationError is returned when executing a migration file fails.
type MigrationError struct {
	Sequence int
	Filename string
	Err      error
}

func (m MigrationError) Error() string {
	return fmt.Sprintf("migration [%d] %q failed: %v", m.Sequence, m.Filename, m.Err)
}

func (m MigrationError) Unwrap() error {
	return m.Err
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RunFS applies the .sql files in the root of fileSys that were not applied
// before. All files are applied in a single transaction, either all of them
// succeed or none is recorded. It returns the migrations applied by this
// call, which is empty if the database was up to date.
func RunFS(ctx context.Context, db *sql.DB, fileSys fs.FS, meta Metadata) (applied []Migration, err error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			err = errors.Join(err, rErr)
		}
	}()

	_, err = tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
		sequence    INTEGER PRIMARY KEY,
		filename    TEXT NOT NULL,
		app_version TEXT NOT NULL,
		timestamp   TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	done, err := queryMigrations(ctx, tx)
	if err != nil {
		return nil, err
	}

	pending, err := pendingFiles(done, files)
	if err != nil {
		return nil, err
	}

	applied = make([]Migration, 0, len(pending))
	for i, f := range pending {
		m := Migration{
			Sequence: len(done) + i,
			Filename: f.name,
			Metadata: meta,
		}

		err = apply(ctx, tx, m, f.content)
		if err != nil {
			return nil, err
		}

		applied = append(applied, m)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return applied, nil
}

func apply(ctx context.Context, tx *sql.Tx, m Migration, content string) error {
	_, err := tx.ExecContext(ctx, content)
	if err != nil {
		return MigrationError{
			Sequence: m.Sequence,
			Filename: m.Filename,
			Err:      err,
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO migrations (sequence, filename, app_version, timestamp) VALUES (?, ?, ?, ?)`,
		m.Sequence, m.Filename, m.Metadata.AppVersion, m.Metadata.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %q: %w", m.Filename, err)
	}

	return nil
}

// Pending returns the names of the files in fileSys that RunFS would apply,
// in the order it would apply them.
func Pending(ctx context.Context, db *sql.DB, fileSys fs.FS) ([]string, error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	done, err := QueryMigrations(ctx, db)
	if err != nil && !errors.Is(err, ErrNoTable) {
		return nil, err
	}

	pending, err := pendingFiles(done, files)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pending))
	for _, f := range pending {
		names = append(names, f.name)
	}

	return names, nil
}

// QueryMigrations returns all applied migrations ordered by sequence.
// It returns ErrNoTable if no migration was ever applied.
func QueryMigrations(ctx context.Context, db *sql.DB) ([]Migration, error) {
	return queryMigrations(ctx, db)
}

func queryMigrations(ctx context.Context, q querier) ([]Migration, error) {
	rows, err := q.QueryContext(ctx, `SELECT sequence, filename, app_version, timestamp FROM migrations ORDER BY sequence`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, ErrNoTable
		}
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	out := make([]Migration, 0)
	for rows.Next() {
		var m Migration
		err := rows.Scan(&m.Sequence, &m.Filename, &m.Metadata.AppVersion, &m.Metadata.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over migrations: %w", err)
	}

	return out, nil
}

// pendingFiles checks that every applied migration still matches the file
// at its position and returns the files after them.
func pendingFiles(done []Migration, files []file) ([]file, error) {
	if len(done) > len(files) {
		return nil, fmt.Errorf(
			"found %d applied migrations but only %d files: %w",
			len(done), len(files), ErrMigrationsMismatch,
		)
	}

	for i, m := range done {
		switch {
		case m.Sequence != i:
			return nil, fmt.Errorf("migration sequence mismatch, wanted %d got %d: %w", i, m.Sequence, ErrMigrationsMismatch)
		case m.Filename != files[i].name:
			return nil, fmt.Errorf(
				"migration %d was applied as %s, but the file is now %s: %w",
				i, m.Filename, files[i].name, ErrMigrationsMismatch,
			)
		}
	}

	return files[len(done):], nil
}

type file struct {
	number  int
	name    string
	content string
}

// loadFiles reads the .sql files in the root of fileSys ordered by their
// number prefix. Directories and other files are ignored.
func loadFiles(fileSys fs.FS) ([]file, error) {
	entries, err := fs.ReadDir(fileSys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]file, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}

		number, err := fileNumber(name)
		if err != nil {
			return nil, err
		}

		if other, ok := seen[number]; ok {
			return nil, fmt.Errorf("%q and %q share number %d: %w", other, name, number, ErrInvalidFilename)
		}
		seen[number] = name

		content, err := fs.ReadFile(fileSys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", name, err)
		}

		files = append(files, file{number: number, name: name, content: string(content)})
	}

	slices.SortFunc(files, func(a, b file) int {
		return cmp.Compare(a.number, b.number)
	})

	return files, nil
}

func fileNumber(name string) (int, error) {
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, fmt.Errorf("%q has no number prefix: %w", name, ErrInvalidFilename)
	}

	n, err := strconv.Atoi(prefix)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q has no number prefix: %w", name, ErrInvalidFilename)
	}

	return n, nil
}
