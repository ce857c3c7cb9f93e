package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/repository"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type sectorRepository interface {
	List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error)
	FindByID(ctx context.Context, id string) (*models.Sector, error)
	Create(ctx context.Context, sector *models.Sector) error
	Update(ctx context.Context, sector *models.Sector) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type staffLookup interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// CreateSectorRequest represents payload for creating sectors.
type CreateSectorRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	StaffID string `json:"staffId" validate:"required"`
}

// UpdateSectorRequest moves a sector to another staff member and optionally renames it.
type UpdateSectorRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=120"`
	StaffID string  `json:"staffId" validate:"required"`
}

// SectorService orchestrates sector operations.
type SectorService struct {
	repo      sectorRepository
	staff     staffLookup
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectorService constructs a SectorService.
func NewSectorService(repo sectorRepository, staff staffLookup, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SectorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectorService{repo: repo, staff: staff, cache: cache, validator: validate, logger: logger}
}

// List returns sectors ordered by name.
func (s *SectorService) List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error) {
	sectors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "failed to list sectors")
	}
	return sectors, nil
}

// Get returns a sector by id.
func (s *SectorService) Get(ctx context.Context, id string) (*models.Sector, error) {
	sector, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sector not found")
		}
		return nil, storeError(err, "failed to load sector")
	}
	return sector, nil
}

// Create registers a sector owned by an existing staff member.
func (s *SectorService) Create(ctx context.Context, req CreateSectorRequest) (*models.Sector, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.StaffID = strings.TrimSpace(req.StaffID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "name and staffId are required")
	}
	if err := s.ensureStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}

	sector := &models.Sector{Name: req.Name, StaffID: req.StaffID}
	if err := s.repo.Create(ctx, sector); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, validationError(err, "staffId does not reference an existing staff member")
		}
		return nil, storeError(err, "failed to create sector")
	}
	s.invalidateReports(ctx)
	return sector, nil
}

// Update reassigns a sector and optionally renames it.
func (s *SectorService) Update(ctx context.Context, id string, req UpdateSectorRequest) (*models.Sector, error) {
	req.StaffID = strings.TrimSpace(req.StaffID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "staffId is required")
	}

	sector, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be empty")
		}
		sector.Name = name
	}
	if err := s.ensureStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}
	sector.StaffID = req.StaffID

	updated, err := s.repo.Update(ctx, sector)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, validationError(err, "staffId does not reference an existing staff member")
		}
		return nil, storeError(err, "failed to update sector")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sector not found")
	}
	s.invalidateReports(ctx)
	return sector, nil
}

// Delete removes a sector and its missed-visit history.
func (s *SectorService) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err, "failed to delete sector")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "sector not found")
	}
	s.invalidateReports(ctx)
	return nil
}

func (s *SectorService) ensureStaff(ctx context.Context, staffID string) error {
	if _, err := s.staff.FindByID(ctx, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "staffId does not reference an existing staff member")
		}
		return storeError(err, "failed to load staff")
	}
	return nil
}

func (s *SectorService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}
