package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
)

func TestReportRepositoryRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"staff_id", "staff_name", "shift", "sector_id", "sector_name", "missed_date"}).
		AddRow("s1", "Ana", "morning", "sec2", "Necrotério", nil).
		AddRow("s1", "Ana", "morning", "sec1", "UTI 1", "2024-03-01")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN missed_visits mv ON mv.sector_id = s.id AND mv.visit_date BETWEEN ? AND ?")).
		WithArgs("2024-03-01", "2024-03-01").
		WillReturnRows(rows)

	list, err := repo.Rows(context.Background(), "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].MissedDate)
	require.NotNil(t, list[1].MissedDate)
	assert.Equal(t, models.Date("2024-03-01"), *list[1].MissedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryRowsOnSQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	staff, uti := seedSector(t, db, "Ana", "UTI 1")
	necro := &models.Sector{Name: "Necrotério", StaffID: staff.ID}
	require.NoError(t, NewSectorRepository(db).Create(ctx, necro))

	visits := NewMissedVisitRepository(db)
	for _, day := range []models.Date{"2024-03-01", "2024-03-02", "2024-03-05"} {
		require.NoError(t, visits.Insert(ctx, &models.MissedVisit{SectorID: uti.ID, VisitDate: day}))
	}

	list, err := NewReportRepository(db).Rows(ctx, "2024-03-01", "2024-03-02")
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, necro.ID, list[0].SectorID)
	assert.Nil(t, list[0].MissedDate)
	assert.Equal(t, models.ShiftMorning, list[0].Shift)
	for i, day := range []models.Date{"2024-03-01", "2024-03-02"} {
		row := list[i+1]
		assert.Equal(t, uti.ID, row.SectorID)
		assert.Equal(t, "Ana", row.StaffName)
		require.NotNil(t, row.MissedDate)
		assert.Equal(t, day, *row.MissedDate)
	}
}
