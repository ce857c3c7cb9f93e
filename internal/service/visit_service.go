package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/repository"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type missedVisitRepository interface {
	Exists(ctx context.Context, sectorID string, date models.Date) (bool, error)
	Insert(ctx context.Context, visit *models.MissedVisit) error
	Delete(ctx context.Context, sectorID string, date models.Date) (int64, error)
	ListSectorIDsByDate(ctx context.Context, date models.Date) ([]string, error)
}

type sectorReader interface {
	List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error)
	FindByID(ctx context.Context, id string) (*models.Sector, error)
}

type staffLister interface {
	List(ctx context.Context) ([]models.Staff, error)
}

type toggleRecorder interface {
	RecordToggle(outcome string)
}

// Clock yields "today" in the configured location.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Today returns the current calendar day.
func (c Clock) Today() models.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return models.DateOf(now(), c.Location)
}

// ToggleRequest flips the missed flag of a sector. Date defaults to today.
type ToggleRequest struct {
	SectorID string `json:"sectorId"`
	Date     string `json:"date,omitempty"`
}

// VisitService is the toggle engine plus the daily roster view.
type VisitService struct {
	visits  missedVisitRepository
	sectors sectorReader
	staff   staffLister
	cache   cacheInvalidator
	metrics toggleRecorder
	clock   Clock
	logger  *zap.Logger
}

// NewVisitService constructs a VisitService.
func NewVisitService(visits missedVisitRepository, sectors sectorReader, staff staffLister, cache cacheInvalidator, metrics toggleRecorder, clock Clock, logger *zap.Logger) *VisitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitService{visits: visits, sectors: sectors, staff: staff, cache: cache, metrics: metrics, clock: clock, logger: logger}
}

// Today returns the current calendar day of the service clock.
func (s *VisitService) Today() models.Date {
	return s.clock.Today()
}

// Toggle removes the missed marker of (sector, day) when present and adds it
// otherwise. Racing toggles are resolved by the store unique constraint: the
// reported status always matches the state after the call.
func (s *VisitService) Toggle(ctx context.Context, actor models.Actor, req ToggleRequest) (models.ToggleStatus, error) {
	sectorID := strings.TrimSpace(req.SectorID)
	if sectorID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "sectorId is required")
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return "", err
	}

	sector, err := s.sectors.FindByID(ctx, sectorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "sector not found")
		}
		return "", storeError(err, "failed to load sector")
	}
	if !CanToggle(actor.Role, actor.ID, sector.StaffID) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "sector belongs to another staff member")
	}

	exists, err := s.visits.Exists(ctx, sectorID, date)
	if err != nil {
		return "", storeError(err, "failed to read missed visit")
	}

	var status models.ToggleStatus
	if exists {
		status, err = s.remove(ctx, sectorID, date)
	} else {
		status, err = s.add(ctx, sector, date)
	}
	if err != nil {
		return "", err
	}

	s.invalidateReports(ctx)
	return status, nil
}

func (s *VisitService) remove(ctx context.Context, sectorID string, date models.Date) (models.ToggleStatus, error) {
	removed, err := s.visits.Delete(ctx, sectorID, date)
	if err != nil {
		return "", storeError(err, "failed to clear missed visit")
	}
	if removed == 0 {
		s.recordToggle(ToggleOutcomeRaced)
		s.logger.Debug("missed visit already cleared", zap.String("sector_id", sectorID), zap.String("date", date.String()))
	} else {
		s.recordToggle(ToggleOutcomeRemoved)
	}
	return models.ToggleRemoved, nil
}

func (s *VisitService) add(ctx context.Context, sector *models.Sector, date models.Date) (models.ToggleStatus, error) {
	err := s.visits.Insert(ctx, &models.MissedVisit{SectorID: sector.ID, VisitDate: date, OwnerID: sector.OwnerID})
	switch {
	case err == nil:
		s.recordToggle(ToggleOutcomeAdded)
		return models.ToggleAdded, nil
	case errors.Is(err, repository.ErrDuplicate):
		s.recordToggle(ToggleOutcomeRaced)
		exists, readErr := s.visits.Exists(ctx, sector.ID, date)
		if readErr != nil {
			return "", storeError(readErr, "failed to read missed visit")
		}
		if exists {
			return models.ToggleAdded, nil
		}
		return models.ToggleRemoved, nil
	case errors.Is(err, repository.ErrForeignKey):
		return "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "sector not found")
	default:
		return "", storeError(err, "failed to record missed visit")
	}
}

// IsMissed reports whether the sector is marked as missed on date.
func (s *VisitService) IsMissed(ctx context.Context, sectorID string, date models.Date) (bool, error) {
	if !date.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	missed, err := s.visits.Exists(ctx, sectorID, date)
	if err != nil {
		return false, storeError(err, "failed to read missed visit")
	}
	return missed, nil
}

// ListMissedForDate returns the ids of sectors marked as missed on date.
func (s *VisitService) ListMissedForDate(ctx context.Context, date models.Date) ([]string, error) {
	if !date.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	ids, err := s.visits.ListSectorIDsByDate(ctx, date)
	if err != nil {
		return nil, storeError(err, "failed to list missed visits")
	}
	return ids, nil
}

// DailyState returns today's roster. An empty shift returns everyone;
// otherwise only staff visible in that shift and their sectors are returned.
func (s *VisitService) DailyState(ctx context.Context, shift string) (*models.DailyState, error) {
	view := models.Shift(strings.TrimSpace(shift))
	if view != "" && !view.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "shift must be morning, afternoon or oncall")
	}
	date := s.clock.Today()

	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list staff")
	}
	sectors, err := s.sectors.List(ctx, models.SectorFilter{})
	if err != nil {
		return nil, storeError(err, "failed to list sectors")
	}
	missed, err := s.ListMissedForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	state := &models.DailyState{Date: date, Shift: view, Staff: staff, Sectors: sectors, Missed: missed}
	if view != "" {
		state.Staff, state.Sectors, state.Missed = filterByShift(view, staff, sectors, missed)
	}
	state.Summary = newTally(len(state.Sectors), len(state.Missed))
	return state, nil
}

func filterByShift(view models.Shift, staff []models.Staff, sectors []models.Sector, missed []string) ([]models.Staff, []models.Sector, []string) {
	visibleStaff := make([]models.Staff, 0, len(staff))
	owners := make(map[string]struct{}, len(staff))
	for _, member := range staff {
		if member.Shift.VisibleIn(view) {
			visibleStaff = append(visibleStaff, member)
			owners[member.ID] = struct{}{}
		}
	}

	visibleSectors := make([]models.Sector, 0, len(sectors))
	sectorIDs := make(map[string]struct{}, len(sectors))
	for _, sector := range sectors {
		if _, ok := owners[sector.StaffID]; ok {
			visibleSectors = append(visibleSectors, sector)
			sectorIDs[sector.ID] = struct{}{}
		}
	}

	visibleMissed := make([]string, 0, len(missed))
	for _, id := range missed {
		if _, ok := sectorIDs[id]; ok {
			visibleMissed = append(visibleMissed, id)
		}
	}
	return visibleStaff, visibleSectors, visibleMissed
}

func (s *VisitService) resolveDate(raw string) (models.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return s.clock.Today(), nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return "", validationError(err, "date must be YYYY-MM-DD")
	}
	return date, nil
}

func (s *VisitService) recordToggle(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordToggle(outcome)
	}
}

func (s *VisitService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("pattern", reportCachePattern), zap.Error(err))
	}
}
