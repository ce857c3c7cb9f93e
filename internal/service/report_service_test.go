package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type mapReportCache struct {
	entries map[string][]models.ReportRow
	gets    int
	gen     int64
}

func (m *mapReportCache) Generation(ctx context.Context, pattern string) (int64, error) {
	return m.gen, nil
}

func (m *mapReportCache) Invalidate(ctx context.Context, pattern string) error {
	m.gen++
	m.entries = nil
	return nil
}

func (m *mapReportCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.gets++
	rows, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]models.ReportRow)) = rows
	return true, nil
}

func (m *mapReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = map[string][]models.ReportRow{}
	}
	m.entries[key] = value.([]models.ReportRow)
	return nil
}

func seedAnaScenario(store *memStore) (*models.Staff, *models.Sector, *models.Sector) {
	ana := store.addStaff("Ana", models.ShiftMorning)
	uti := store.addSector("UTI 1", ana.ID)
	necro := store.addSector("Necrotério", ana.ID)
	store.markMissed(uti.ID, "2024-03-01")
	return ana, uti, necro
}

func TestReportServiceSingleDayScenario(t *testing.T) {
	store := newMemStore()
	seedAnaScenario(store)
	svc := NewReportService(memReportRepo{store}, nil, fixedClock("2024-03-10"), 0, nil)

	rows, hit, err := svc.Rows(context.Background(), ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-01"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, rows, 2)

	assert.Equal(t, "Necrotério", rows[0].SectorName)
	assert.Nil(t, rows[0].MissedDate)
	assert.Equal(t, "UTI 1", rows[1].SectorName)
	require.NotNil(t, rows[1].MissedDate)
	assert.Equal(t, models.Date("2024-03-01"), *rows[1].MissedDate)

	summary := Summarize("2024-03-01", "2024-03-01", rows)
	assert.Equal(t, models.Tally{TotalSectors: 2, MissedCount: 1, VisitedCount: 1, VisitedPercent: 50}, summary.Totals)
	assert.Equal(t, summary.Totals.TotalSectors, summary.Totals.MissedCount+summary.Totals.VisitedCount)
}

func TestReportServiceNextDayIsAllVisited(t *testing.T) {
	store := newMemStore()
	seedAnaScenario(store)
	svc := NewReportService(memReportRepo{store}, nil, fixedClock("2024-03-10"), 0, nil)

	rows, _, err := svc.Rows(context.Background(), ReportQuery{StartDate: "2024-03-02", EndDate: "2024-03-02"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Nil(t, row.MissedDate)
	}
}

func TestReportServiceFanOutOverRange(t *testing.T) {
	store := newMemStore()
	_, uti, _ := seedAnaScenario(store)
	store.markMissed(uti.ID, "2024-03-03")
	svc := NewReportService(memReportRepo{store}, nil, fixedClock("2024-03-10"), 0, nil)

	rows, _, err := svc.Rows(context.Background(), ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-05"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Date("2024-03-01"), *rows[1].MissedDate)
	assert.Equal(t, models.Date("2024-03-03"), *rows[2].MissedDate)

	summary := Summarize("2024-03-01", "2024-03-05", rows)
	assert.Equal(t, 2, summary.Totals.TotalSectors)
	assert.Equal(t, 2, summary.Totals.MissedCount)
	assert.Equal(t, 0, summary.Totals.VisitedCount)
}

func TestReportServiceDefaultRangeIsToday(t *testing.T) {
	svc := NewReportService(memReportRepo{newMemStore()}, nil, fixedClock("2024-03-10"), 0, nil)

	start, end, err := svc.ResolveRange(ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.Date("2024-03-10"), start)
	assert.Equal(t, models.Date("2024-03-10"), end)

	start, end, err = svc.ResolveRange(ReportQuery{StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, models.Date("2024-03-01"), start)
	assert.Equal(t, models.Date("2024-03-10"), end)
}

func TestReportServiceRejectsInvalidRange(t *testing.T) {
	svc := NewReportService(memReportRepo{newMemStore()}, nil, fixedClock("2024-03-10"), 0, nil)

	_, _, err := svc.Rows(context.Background(), ReportQuery{StartDate: "2024-13-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.Rows(context.Background(), ReportQuery{StartDate: "2024-03-05", EndDate: "2024-03-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReportServiceUsesCache(t *testing.T) {
	store := newMemStore()
	seedAnaScenario(store)
	cache := &mapReportCache{}
	svc := NewReportService(memReportRepo{store}, cache, fixedClock("2024-03-10"), time.Minute, nil)
	query := ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-01"}

	_, hit, err := svc.Rows(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, cache.entries, "reports:rows:0:2024-03-01:2024-03-01")

	summary, hit, err := svc.Summary(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, summary.Totals.MissedCount)
}

// midQueryRepo runs hook while the report query is in flight.
type midQueryRepo struct {
	memReportRepo
	hook func()
}

func (r *midQueryRepo) Rows(ctx context.Context, start, end models.Date) ([]models.ReportRow, error) {
	rows, err := r.memReportRepo.Rows(ctx, start, end)
	if r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return rows, err
}

func TestReportServiceDropsRowsReadBeforeToggle(t *testing.T) {
	store := newMemStore()
	_, _, necro := seedAnaScenario(store)
	cache := &mapReportCache{}
	clock := fixedClock("2024-03-01")
	visits := NewVisitService(&memVisitRepo{memStore: store}, memSectorRepo{store}, memStaffRepo{store}, cache, nil, clock, nil)
	repo := &midQueryRepo{memReportRepo: memReportRepo{store}}
	reports := NewReportService(repo, cache, clock, time.Minute, nil)

	repo.hook = func() {
		status, err := visits.Toggle(context.Background(), models.Actor{Role: models.RoleAdmin}, ToggleRequest{SectorID: necro.ID})
		require.NoError(t, err)
		require.Equal(t, models.ToggleAdded, status)
	}
	_, hit, err := reports.Rows(context.Background(), ReportQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, cache.entries)

	rows, hit, err := reports.Rows(context.Background(), ReportQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	var necroMissed bool
	for _, row := range rows {
		if row.SectorID == necro.ID && row.MissedDate != nil {
			necroMissed = true
		}
	}
	assert.True(t, necroMissed)

	_, hit, err = reports.Rows(context.Background(), ReportQuery{})
	require.NoError(t, err)
	assert.True(t, hit)
}

type labelObserver struct {
	labels []string
}

func (o *labelObserver) ObserveDBQuery(label string, duration time.Duration) {
	o.labels = append(o.labels, label)
}

func TestReportServiceObservesQueries(t *testing.T) {
	store := newMemStore()
	seedAnaScenario(store)
	observer := &labelObserver{}
	svc := NewReportService(memReportRepo{store}, &mapReportCache{}, fixedClock("2024-03-01"), time.Minute, nil).WithQueryObserver(observer)

	_, _, err := svc.Rows(context.Background(), ReportQuery{})
	require.NoError(t, err)
	_, hit, err := svc.Rows(context.Background(), ReportQuery{})
	require.NoError(t, err)

	assert.True(t, hit)
	assert.Equal(t, []string{"report_rows"}, observer.labels)
}

func TestSummarizeGroups(t *testing.T) {
	day := models.Date("2024-03-01")
	rows := []models.ReportRow{
		{StaffID: "s1", StaffName: "Ana", Shift: models.ShiftMorning, SectorID: "a", SectorName: "A", MissedDate: &day},
		{StaffID: "s1", StaffName: "Ana", Shift: models.ShiftMorning, SectorID: "b", SectorName: "B"},
		{StaffID: "s1", StaffName: "Ana", Shift: models.ShiftMorning, SectorID: "c", SectorName: "C"},
		{StaffID: "s2", StaffName: "Zé", Shift: models.ShiftOnCall, SectorID: "d", SectorName: "D"},
	}

	summary := Summarize(day, day, rows)
	assert.Equal(t, models.Tally{TotalSectors: 4, MissedCount: 1, VisitedCount: 3, VisitedPercent: 75}, summary.Totals)
	require.Len(t, summary.ByStaff, 2)
	assert.Equal(t, "Ana", summary.ByStaff[0].StaffName)
	assert.Equal(t, 67, summary.ByStaff[0].VisitedPercent)
	assert.Equal(t, 100, summary.ByStaff[1].VisitedPercent)
	require.Len(t, summary.ByShift, 2)
	assert.Equal(t, models.ShiftMorning, summary.ByShift[0].Shift)
	assert.Equal(t, models.ShiftOnCall, summary.ByShift[1].Shift)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize("2024-03-01", "2024-03-01", nil)
	assert.Equal(t, models.Tally{}, summary.Totals)
	assert.Empty(t, summary.ByStaff)
	assert.Empty(t, summary.ByShift)
}
