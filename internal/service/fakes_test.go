package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/repository"
)

// memStore is an in-memory stand-in for the SQL repositories sharing one
// dataset, so cascades and uniqueness behave like the real store.
type memStore struct {
	mu      sync.Mutex
	staff   map[string]*models.Staff
	sectors map[string]*models.Sector
	visits  map[string]models.MissedVisit
	seq     int
	err     error
}

func newMemStore() *memStore {
	return &memStore{
		staff:   map[string]*models.Staff{},
		sectors: map[string]*models.Sector{},
		visits:  map[string]models.MissedVisit{},
	}
}

func visitKey(sectorID string, date models.Date) string {
	return sectorID + "|" + date.String()
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addStaff(name string, shift models.Shift) *models.Staff {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Staff{ID: m.nextID("staff"), Name: name, Shift: shift, Role: models.RoleStaff}
	m.staff[s.ID] = s
	return s
}

func (m *memStore) addSector(name, staffID string) *models.Sector {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Sector{ID: m.nextID("sector"), Name: name, StaffID: staffID}
	m.sectors[s.ID] = s
	return s
}

func (m *memStore) markMissed(sectorID string, date models.Date) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[visitKey(sectorID, date)] = models.MissedVisit{ID: m.nextID("visit"), SectorID: sectorID, VisitDate: date}
}

type memStaffRepo struct{ *memStore }

func (r memStaffRepo) List(ctx context.Context) ([]models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	list := make([]models.Staff, 0, len(r.staff))
	for _, s := range r.staff {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID < list[j].ID
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r memStaffRepo) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.staff[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r memStaffRepo) FindByName(ctx context.Context, name string) (*models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if strings.EqualFold(s.Name, name) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memStaffRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for id, s := range r.staff {
		if strings.EqualFold(s.Name, name) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memStaffRepo) Create(ctx context.Context, staff *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, s := range r.staff {
		if strings.EqualFold(s.Name, staff.Name) {
			return fmt.Errorf("create staff: %w", repository.ErrDuplicate)
		}
	}
	if staff.ID == "" {
		staff.ID = r.nextID("staff")
	}
	staff.CreatedAt = time.Now()
	cp := *staff
	r.staff[staff.ID] = &cp
	return nil
}

func (r memStaffRepo) Update(ctx context.Context, staff *models.Staff) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[staff.ID]; !ok {
		return 0, nil
	}
	cp := *staff
	r.staff[staff.ID] = &cp
	return 1, nil
}

func (r memStaffRepo) UpdatePassword(ctx context.Context, id, passwordHash string, needsChange bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.PasswordHash = &passwordHash
	s.NeedsPasswordChange = needsChange
	s.UpdatedAt = updatedAt
	return nil
}

func (r memStaffRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	for sectorID, sector := range r.sectors {
		if sector.StaffID != id {
			continue
		}
		for key, visit := range r.visits {
			if visit.SectorID == sectorID {
				delete(r.visits, key)
			}
		}
		delete(r.sectors, sectorID)
	}
	if _, ok := r.staff[id]; !ok {
		return 0, nil
	}
	delete(r.staff, id)
	return 1, nil
}

type memSectorRepo struct{ *memStore }

func (r memSectorRepo) List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	list := []models.Sector{}
	for _, s := range r.sectors {
		if filter.StaffID != "" && s.StaffID != filter.StaffID {
			continue
		}
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID < list[j].ID
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r memSectorRepo) FindByID(ctx context.Context, id string) (*models.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.sectors[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r memSectorRepo) Create(ctx context.Context, sector *models.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[sector.StaffID]; !ok {
		return fmt.Errorf("create sector: %w", repository.ErrForeignKey)
	}
	if sector.ID == "" {
		sector.ID = r.nextID("sector")
	}
	cp := *sector
	r.sectors[sector.ID] = &cp
	return nil
}

func (r memSectorRepo) Update(ctx context.Context, sector *models.Sector) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[sector.StaffID]; !ok {
		return 0, fmt.Errorf("update sector: %w", repository.ErrForeignKey)
	}
	if _, ok := r.sectors[sector.ID]; !ok {
		return 0, nil
	}
	cp := *sector
	r.sectors[sector.ID] = &cp
	return 1, nil
}

func (r memSectorRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, visit := range r.visits {
		if visit.SectorID == id {
			delete(r.visits, key)
		}
	}
	if _, ok := r.sectors[id]; !ok {
		return 0, nil
	}
	delete(r.sectors, id)
	return 1, nil
}

type memVisitRepo struct {
	*memStore
	// beforeInsert and beforeDelete simulate a concurrent toggle landing
	// between the existence check and the write.
	beforeInsert func()
	beforeDelete func()
}

func (r *memVisitRepo) Exists(ctx context.Context, sectorID string, date models.Date) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.visits[visitKey(sectorID, date)]
	return ok, nil
}

func (r *memVisitRepo) Insert(ctx context.Context, visit *models.MissedVisit) error {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sectors[visit.SectorID]; !ok {
		return fmt.Errorf("insert missed visit: %w", repository.ErrForeignKey)
	}
	key := visitKey(visit.SectorID, visit.VisitDate)
	if _, ok := r.visits[key]; ok {
		return fmt.Errorf("insert missed visit: %w", repository.ErrDuplicate)
	}
	visit.ID = r.nextID("visit")
	r.visits[key] = *visit
	return nil
}

func (r *memVisitRepo) Delete(ctx context.Context, sectorID string, date models.Date) (int64, error) {
	if r.beforeDelete != nil {
		r.beforeDelete()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := visitKey(sectorID, date)
	if _, ok := r.visits[key]; !ok {
		return 0, nil
	}
	delete(r.visits, key)
	return 1, nil
}

func (r *memVisitRepo) ListSectorIDsByDate(ctx context.Context, date models.Date) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	ids := []string{}
	for _, visit := range r.visits {
		if visit.VisitDate == date {
			ids = append(ids, visit.SectorID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memReportRepo struct{ *memStore }

func (r memReportRepo) Rows(ctx context.Context, start, end models.Date) ([]models.ReportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	rows := []models.ReportRow{}
	for _, sector := range r.sectors {
		owner := r.staff[sector.StaffID]
		base := models.ReportRow{StaffID: owner.ID, StaffName: owner.Name, Shift: owner.Shift, SectorID: sector.ID, SectorName: sector.Name}
		var dates []models.Date
		for _, visit := range r.visits {
			if visit.SectorID == sector.ID && !visit.VisitDate.After(end) && !start.After(visit.VisitDate) {
				dates = append(dates, visit.VisitDate)
			}
		}
		if len(dates) == 0 {
			rows = append(rows, base)
			continue
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
		for _, d := range dates {
			row := base
			date := d
			row.MissedDate = &date
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StaffName != b.StaffName {
			return a.StaffName < b.StaffName
		}
		if a.SectorName != b.SectorName {
			return a.SectorName < b.SectorName
		}
		if a.SectorID != b.SectorID {
			return a.SectorID < b.SectorID
		}
		return a.MissedDate != nil && b.MissedDate != nil && *a.MissedDate < *b.MissedDate
	})
	return rows, nil
}

type recordingInvalidator struct {
	patterns []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

type recordingToggles struct {
	outcomes []string
}

func (r *recordingToggles) RecordToggle(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

type recordingAudit struct {
	entries []AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}

func fixedClock(day string) Clock {
	t, _ := time.Parse(models.DateLayout, day)
	return Clock{Now: func() time.Time { return t.Add(12 * time.Hour) }, Location: time.UTC}
}
