package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
)

// Roster is the provisioning file layout.
type Roster struct {
	Staff []RosterStaff `yaml:"staff"`
}

// RosterStaff is one staff entry of a roster file.
type RosterStaff struct {
	Name     string   `yaml:"name"`
	Shift    string   `yaml:"shift"`
	Role     string   `yaml:"role,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Sectors  []string `yaml:"sectors,omitempty"`
}

// ParseRoster decodes a YAML roster.
func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for i, entry := range roster.Staff {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("parse roster: staff #%d has no name", i+1)
		}
	}
	return &roster, nil
}

type rosterStaffFinder interface {
	FindByName(ctx context.Context, name string) (*models.Staff, error)
}

type rosterStaffCreator interface {
	Create(ctx context.Context, req CreateStaffRequest) (*models.Staff, error)
}

type rosterSectors interface {
	List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error)
	Create(ctx context.Context, req CreateSectorRequest) (*models.Sector, error)
}

// ProvisionResult counts what Apply created and skipped.
type ProvisionResult struct {
	StaffCreated   int
	StaffSkipped   int
	SectorsCreated int
	SectorsSkipped int
}

// ProvisionService creates missing staff and sectors from a roster. It never
// updates or deletes existing rows.
type ProvisionService struct {
	finder  rosterStaffFinder
	staff   rosterStaffCreator
	sectors rosterSectors
	cache   cacheInvalidator
	logger  *zap.Logger
}

// NewProvisionService constructs a ProvisionService. cache may be nil.
func NewProvisionService(finder rosterStaffFinder, staff rosterStaffCreator, sectors rosterSectors, cache cacheInvalidator, logger *zap.Logger) *ProvisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisionService{finder: finder, staff: staff, sectors: sectors, cache: cache, logger: logger}
}

// Apply provisions every roster entry, matching staff by name and sectors by
// name within their owner. Cached reports are invalidated once anything was
// created, even when a later entry fails.
func (s *ProvisionService) Apply(ctx context.Context, roster *Roster) (result ProvisionResult, err error) {
	if roster == nil {
		return result, nil
	}
	defer func() {
		if result.StaffCreated+result.SectorsCreated > 0 {
			s.invalidateReports(ctx)
		}
	}()
	for _, entry := range roster.Staff {
		member, created, err := s.ensureStaff(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("provision staff %q: %w", entry.Name, err)
		}
		if created {
			result.StaffCreated++
		} else {
			result.StaffSkipped++
		}

		existing, err := s.sectors.List(ctx, models.SectorFilter{StaffID: member.ID})
		if err != nil {
			return result, fmt.Errorf("list sectors of %q: %w", member.Name, err)
		}
		known := make(map[string]struct{}, len(existing))
		for _, sector := range existing {
			known[strings.ToLower(sector.Name)] = struct{}{}
		}
		for _, name := range entry.Sectors {
			name = strings.TrimSpace(name)
			if _, ok := known[strings.ToLower(name)]; ok {
				result.SectorsSkipped++
				continue
			}
			if _, err := s.sectors.Create(ctx, CreateSectorRequest{Name: name, StaffID: member.ID}); err != nil {
				return result, fmt.Errorf("provision sector %q of %q: %w", name, member.Name, err)
			}
			known[strings.ToLower(name)] = struct{}{}
			result.SectorsCreated++
		}
	}
	s.logger.Info("roster provisioned",
		zap.Int("staff_created", result.StaffCreated),
		zap.Int("staff_skipped", result.StaffSkipped),
		zap.Int("sectors_created", result.SectorsCreated),
		zap.Int("sectors_skipped", result.SectorsSkipped),
	)
	return result, nil
}

func (s *ProvisionService) ensureStaff(ctx context.Context, entry RosterStaff) (*models.Staff, bool, error) {
	name := strings.TrimSpace(entry.Name)
	member, err := s.finder.FindByName(ctx, name)
	if err == nil {
		return member, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	req := CreateStaffRequest{Name: name, Shift: entry.Shift, Role: entry.Role}
	if entry.Password != "" {
		password := entry.Password
		req.Password = &password
	}
	member, err = s.staff.Create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return member, true, nil
}

func (s *ProvisionService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("pattern", reportCachePattern), zap.Error(err))
	}
}
