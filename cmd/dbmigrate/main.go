package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ferrianes/foodmarket-backend/internal"
	"github.com/ferrianes/foodmarket-backend/internal/db"
	"github.com/ferrianes/foodmarket-backend/internal/db/migrate"
	"github.com/ferrianes/foodmarket-backend/migrations"
)

const helpText = `Usage: dbmigrate [sqlite_file] [status]

Applies the embedded migrations to the database. With "status" the
applied and pending migrations are listed and nothing is changed.`

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 || (len(os.Args) == 3 && os.Args[2] != "status") {
		fmt.Fprintln(os.Stderr, helpText)
		os.Exit(1)
	}

	dbFile := os.Args[1]

	sqlDB, err := db.OpenSQLite(dbFile, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	if len(os.Args) == 3 {
		err = status(ctx, sqlDB)
	} else {
		err = run(ctx, sqlDB)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, sqlDB *sql.DB) error {
	meta := migrate.Metadata{
		AppVersion: internal.Build.String(),
		Timestamp:  time.Now(),
	}

	ran, err := migrate.RunFS(ctx, sqlDB, migrations.FS, meta)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, m := range ran {
		fmt.Printf("%d: %s\n", m.Sequence, m.Filename)
	}

	return nil
}

func status(ctx context.Context, sqlDB *sql.DB) error {
	applied, err := migrate.QueryMigrations(ctx, sqlDB)
	if err != nil && !errors.Is(err, migrate.ErrNoTable) {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	pending, err := migrate.Pending(ctx, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to determine pending migrations: %w", err)
	}

	for _, m := range applied {
		fmt.Printf("applied  %d: %s (%s, %s)\n", m.Sequence, m.Filename, m.Metadata.AppVersion, m.Metadata.Timestamp.Format(time.RFC3339))
	}

	for _, name := range pending {
		fmt.Printf("pending  %s\n", name)
	}

	return nil
}
