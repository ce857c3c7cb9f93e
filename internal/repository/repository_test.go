package repository

import (
	"context"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/pkg/config"
	"github.com/noah-isme/epiviu-api/pkg/database"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// newSQLiteDB opens a migrated file-backed database that is removed with the
// test.
func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "epiviu.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

// seedSector stores a staff member and one sector owned by them.
func seedSector(t *testing.T, db *sqlx.DB, staffName, sectorName string) (*models.Staff, *models.Sector) {
	t.Helper()
	ctx := context.Background()
	staff := &models.Staff{Name: staffName, Shift: models.ShiftMorning, NeedsPasswordChange: true}
	require.NoError(t, NewStaffRepository(db).Create(ctx, staff))
	sector := &models.Sector{Name: sectorName, StaffID: staff.ID}
	require.NoError(t, NewSectorRepository(db).Create(ctx, sector))
	return staff, sector
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}
