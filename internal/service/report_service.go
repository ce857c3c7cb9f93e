package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type reportRepository interface {
	Rows(ctx context.Context, start, end models.Date) ([]models.ReportRow, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Generation(ctx context.Context, pattern string) (int64, error)
}

// ReportQuery selects an inclusive range of days. Missing bounds default to today.
type ReportQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// ReportService aggregates missed visits over a range of days.
type ReportService struct {
	repo     reportRepository
	cache    reportCache
	clock    Clock
	cacheTTL time.Duration
	observer queryObserver
	logger   *zap.Logger
}

// NewReportService constructs a ReportService. cache may be nil.
func NewReportService(repo reportRepository, cache reportCache, clock Clock, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, clock: clock, cacheTTL: cacheTTL, logger: logger}
}

// WithQueryObserver times report queries through observer.
func (s *ReportService) WithQueryObserver(observer queryObserver) *ReportService {
	s.observer = observer
	return s
}

// ResolveRange validates the query and fills missing bounds with today.
func (s *ReportService) ResolveRange(query ReportQuery) (models.Date, models.Date, error) {
	today := s.clock.Today()
	start, err := parseBound(query.StartDate, today, "startDate")
	if err != nil {
		return "", "", err
	}
	end, err := parseBound(query.EndDate, today, "endDate")
	if err != nil {
		return "", "", err
	}
	if start.After(end) {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	return start, end, nil
}

// Rows returns the report rows of the range and whether they came from cache.
func (s *ReportService) Rows(ctx context.Context, query ReportQuery) ([]models.ReportRow, bool, error) {
	start, end, err := s.ResolveRange(query)
	if err != nil {
		return nil, false, err
	}
	return s.rows(ctx, start, end)
}

// Summary aggregates the report rows of the range.
func (s *ReportService) Summary(ctx context.Context, query ReportQuery) (*models.ReportSummary, bool, error) {
	start, end, err := s.ResolveRange(query)
	if err != nil {
		return nil, false, err
	}
	rows, hit, err := s.rows(ctx, start, end)
	if err != nil {
		return nil, false, err
	}
	summary := Summarize(start, end, rows)
	return &summary, hit, nil
}

func (s *ReportService) rows(ctx context.Context, start, end models.Date) ([]models.ReportRow, bool, error) {
	cacheable := s.cache != nil
	var gen int64
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx, reportCachePattern); err != nil {
			cacheable = false
		}
	}
	key := reportCacheKey(gen, start, end)
	if cacheable {
		var cached []models.ReportRow
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return cached, true, nil
		}
	}

	queryStart := time.Now()
	rows, err := s.repo.Rows(ctx, start, end)
	if s.observer != nil {
		s.observer.ObserveDBQuery("report_rows", time.Since(queryStart))
	}
	if err != nil {
		return nil, false, storeError(err, "failed to build report")
	}

	if cacheable {
		current, err := s.cache.Generation(ctx, reportCachePattern)
		if err != nil || current != gen {
			s.logger.Debug("report cache write skipped, data changed during query", zap.String("key", key))
			return rows, false, nil
		}
		if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
			s.logger.Debug("report cache write skipped", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, false, nil
}

// Summarize computes totals plus per-staff and per-shift subtotals. A sector
// counts once however many days it was missed; missed counts every day.
func Summarize(start, end models.Date, rows []models.ReportRow) models.ReportSummary {
	type group struct {
		sectors map[string]struct{}
		missed  int
	}
	newGroup := func() *group { return &group{sectors: map[string]struct{}{}} }

	totals := newGroup()
	staffOrder := []string{}
	staffInfo := map[string]models.StaffTally{}
	byStaff := map[string]*group{}
	byShift := map[models.Shift]*group{}

	for _, row := range rows {
		g, ok := byStaff[row.StaffID]
		if !ok {
			g = newGroup()
			byStaff[row.StaffID] = g
			staffOrder = append(staffOrder, row.StaffID)
			staffInfo[row.StaffID] = models.StaffTally{StaffID: row.StaffID, StaffName: row.StaffName, Shift: row.Shift}
		}
		sg, ok := byShift[row.Shift]
		if !ok {
			sg = newGroup()
			byShift[row.Shift] = sg
		}

		for _, target := range []*group{totals, g, sg} {
			target.sectors[row.SectorID] = struct{}{}
			if row.MissedDate != nil {
				target.missed++
			}
		}
	}

	summary := models.ReportSummary{
		StartDate: start,
		EndDate:   end,
		Totals:    newTally(len(totals.sectors), totals.missed),
		ByStaff:   make([]models.StaffTally, 0, len(staffOrder)),
		ByShift:   []models.ShiftTally{},
	}
	for _, id := range staffOrder {
		entry := staffInfo[id]
		entry.Tally = newTally(len(byStaff[id].sectors), byStaff[id].missed)
		summary.ByStaff = append(summary.ByStaff, entry)
	}
	for _, shift := range []models.Shift{models.ShiftMorning, models.ShiftAfternoon, models.ShiftOnCall} {
		if g, ok := byShift[shift]; ok {
			summary.ByShift = append(summary.ByShift, models.ShiftTally{Shift: shift, Tally: newTally(len(g.sectors), g.missed)})
		}
	}
	return summary
}

// newTally derives visited counts. visitedCount never drops below zero and
// visitedPercent is zero when there are no sectors.
func newTally(total, missed int) models.Tally {
	visited := total - missed
	if visited < 0 {
		visited = 0
	}
	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(visited) / float64(total)))
	}
	return models.Tally{TotalSectors: total, MissedCount: missed, VisitedCount: visited, VisitedPercent: percent}
}

func parseBound(raw string, fallback models.Date, field string) (models.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return "", validationError(err, fmt.Sprintf("%s must be YYYY-MM-DD", field))
	}
	return date, nil
}

func reportCacheKey(gen int64, start, end models.Date) string {
	return fmt.Sprintf("reports:rows:%d:%s:%s", gen, start, end)
}
