package migrate_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ferrianes/foodmarket-backend/internal/db/migrate"
	"github.com/ferrianes/foodmarket-backend/internal/db/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is a single RunFS call against a directory in testdata.
type step struct {
	dir  string
	want []string // files applied by this step.
	// wantErr is checked with errors.Is, wantFailed is the file that
	// should be reported in a MigrationError.
	wantErr    error
	wantFailed string
	// rows is the number of rows expected in test_table afterwards,
	// which the testdata migrations use to show they ran. -1 skips the check.
	rows int
}

func Test_RunFS(t *testing.T) {
	tests := map[string][]step{
		"ok, empty dir": {
			{dir: "emptydir", rows: -1},
		},
		"ok, subdir is skipped": {
			{dir: "skip_subdir", want: []string{"2_create_test_table.sql"}, rows: 0},
		},
		"ok, progression of migrations": {
			{dir: "progression/run_1", want: []string{"1_create_test_table.sql"}, rows: 0},
			{dir: "progression/run_2", want: []string{"2_add_row_to_test_table.sql"}, rows: 1},
			{dir: "progression/run_3", want: []string{"3_add_another_row.sql", "4_and_one_more.sql"}, rows: 3},
		},
		"ok, nothing to do on rerun": {
			{dir: "progression/run_2", want: []string{"1_create_test_table.sql", "2_add_row_to_test_table.sql"}, rows: 1},
			{dir: "progression/run_2", rows: 1},
		},
		"ok, numeric order": {
			{
				dir:  "numeric_order",
				want: []string{"1_create_test_table.sql", "2_add_note_column.sql", "10_add_row_with_note.sql"},
				rows: 1,
			},
		},
		"fail, error in migration": {
			{dir: "error_in_migration/run_1", want: []string{"1_create_test_table.sql"}, rows: 0},
			{dir: "error_in_migration/run_2", wantFailed: "2_insert_with_typo.sql", rows: 0},
		},
		"fail, migration file that was executed was removed": {
			{dir: "removal_mismatch/run_1", want: []string{"1_create_test_table.sql", "2_add_row.sql", "3_add_row.sql"}, rows: 3},
			{dir: "removal_mismatch/run_2", wantErr: migrate.ErrMigrationsMismatch, rows: 3},
		},
		"fail, migration file that was executed was renamed": {
			{dir: "rename_mismatch/run_1", want: []string{"1_create_test_table.sql", "2_add_row.sql", "3_add_row.sql"}, rows: 3},
			{dir: "rename_mismatch/run_2", wantErr: migrate.ErrMigrationsMismatch, rows: 3},
		},
		"fail, duplicate number": {
			{dir: "duplicate_sequence", wantErr: migrate.ErrInvalidFilename, rows: -1},
		},
		"fail, no number": {
			{dir: "invalid_name", wantErr: migrate.ErrInvalidFilename, rows: -1},
		},
	}

	for name, steps := range tests {
		t.Run(name, func(t *testing.T) {
			db := testdb.OpenEmpty(t)

			var applied []migrate.Migration
			for i, s := range steps {
				meta := metaForStep(i)

				got, err := migrate.RunFS(context.Background(), db, testdata(s.dir), meta)

				switch {
				case s.wantFailed != "":
					var mErr migrate.MigrationError
					require.ErrorAs(t, err, &mErr, "step %d", i)
					assert.Equal(t, s.wantFailed, mErr.Filename)
					assert.Equal(t, len(applied), mErr.Sequence)
				case s.wantErr != nil:
					require.ErrorIs(t, err, s.wantErr, "step %d", i)
				default:
					require.NoError(t, err, "step %d", i)

					want := make([]migrate.Migration, 0, len(s.want))
					for _, f := range s.want {
						want = append(want, migrate.Migration{
							Sequence: len(applied) + len(want),
							Filename: f,
							Metadata: meta,
						})
					}

					assertMigrations(t, want, got)
					applied = append(applied, want...)
				}

				if len(applied) > 0 {
					table, err := migrate.QueryMigrations(context.Background(), db)
					require.NoError(t, err)
					assertMigrations(t, applied, table)
				}

				if s.rows >= 0 {
					assert.Equal(t, s.rows, rowsInTestTable(t, db), "rows in test_table after step %d", i)
				}
			}
		})
	}
}

func Test_QueryMigrations(t *testing.T) {
	t.Run("fail, no table", func(t *testing.T) {
		db := testdb.OpenEmpty(t)

		_, err := migrate.QueryMigrations(context.Background(), db)
		assert.ErrorIs(t, err, migrate.ErrNoTable)
	})
}

func Test_Pending(t *testing.T) {
	tests := map[string]struct {
		before  string // applied before calling Pending, if set.
		dir     string
		want    []string
		wantErr error
	}{
		"ok, nothing applied yet": {
			dir:  "progression/run_2",
			want: []string{"1_create_test_table.sql", "2_add_row_to_test_table.sql"},
		},
		"ok, only new files are pending": {
			before: "progression/run_1",
			dir:    "progression/run_3",
			want:   []string{"2_add_row_to_test_table.sql", "3_add_another_row.sql", "4_and_one_more.sql"},
		},
		"ok, up to date": {
			before: "progression/run_3",
			dir:    "progression/run_3",
			want:   []string{},
		},
		"ok, numeric order": {
			dir:  "numeric_order",
			want: []string{"1_create_test_table.sql", "2_add_note_column.sql", "10_add_row_with_note.sql"},
		},
		"fail, renamed file": {
			before:  "rename_mismatch/run_1",
			dir:     "rename_mismatch/run_2",
			wantErr: migrate.ErrMigrationsMismatch,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			db := testdb.OpenEmpty(t)

			if tc.before != "" {
				_, err := migrate.RunFS(context.Background(), db, testdata(tc.before), migrate.Metadata{})
				require.NoError(t, err)
			}

			got, err := migrate.Pending(context.Background(), db, testdata(tc.dir))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// Pending never changes the database.
			_, err = migrate.QueryMigrations(context.Background(), db)
			if tc.before == "" {
				assert.ErrorIs(t, err, migrate.ErrNoTable)
			}
		})
	}
}

func testdata(dir string) fs.FS {
	return os.DirFS(filepath.Join("testdata", dir))
}

func metaForStep(i int) migrate.Metadata {
	return migrate.Metadata{
		AppVersion: fmt.Sprintf("v%d.0.0", i+1),
		Timestamp:  time.Date(2024, time.Month(3+i), 20, 14, 56, 0, 0, time.UTC),
	}
}

func assertMigrations(t *testing.T, want, got []migrate.Migration) {
	t.Helper()

	if !assert.Len(t, got, len(want), "got %+v", got) {
		return
	}

	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "migration %d: want %+v, got %+v", i, want[i], got[i])
	}
}

func rowsInTestTable(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM test_table`).Scan(&n)
	require.NoError(t, err, "failed to count rows in test_table")

	return n
}
