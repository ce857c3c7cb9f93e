package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/repository"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context) ([]models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// CreateStaffRequest represents payload for registering staff.
type CreateStaffRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Shift    string  `json:"shift" validate:"required,oneof=morning afternoon oncall"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin staff"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// UpdateStaffRequest represents a partial staff update. Shift only changes here.
type UpdateStaffRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Shift *string `json:"shift" validate:"omitempty,oneof=morning afternoon oncall"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin staff"`
}

// StaffService orchestrates staff operations.
type StaffService struct {
	repo      staffRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(repo staffRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every staff member ordered by name.
func (s *StaffService) List(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list staff")
	}
	return staff, nil
}

// Get returns a staff member by id.
func (s *StaffService) Get(ctx context.Context, id string) (*models.Staff, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, storeError(err, "failed to load staff")
	}
	return staff, nil
}

// Create registers a staff member. A password is optional; without one the
// member cannot log in until provisioned.
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest) (*models.Staff, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "name and a valid shift are required")
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	staff := &models.Staff{
		Name:                req.Name,
		Shift:               models.Shift(req.Shift),
		Role:                models.RoleStaff,
		NeedsPasswordChange: true,
	}
	if req.Role != "" {
		staff.Role = models.StaffRole(req.Role)
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		encoded := string(hash)
		staff.PasswordHash = &encoded
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "staff name already exists")
		}
		return nil, storeError(err, "failed to create staff")
	}
	s.invalidateReports(ctx)
	return staff, nil
}

// Update changes name, shift or role of a staff member.
func (s *StaffService) Update(ctx context.Context, id string, req UpdateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}

	staff, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be empty")
		}
		if err := s.ensureUniqueName(ctx, name, id); err != nil {
			return nil, err
		}
		staff.Name = name
	}
	if req.Shift != nil {
		staff.Shift = models.Shift(*req.Shift)
	}
	if req.Role != nil {
		staff.Role = models.StaffRole(*req.Role)
	}

	updated, err := s.repo.Update(ctx, staff)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "staff name already exists")
		}
		return nil, storeError(err, "failed to update staff")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
	}
	s.invalidateReports(ctx)
	return staff, nil
}

// Delete removes a staff member with their sectors and missed-visit history.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err, "failed to delete staff")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "staff not found")
	}
	s.logger.Info("staff deleted", zap.String("staff_id", id))
	s.invalidateReports(ctx)
	return nil
}

func (s *StaffService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return storeError(err, "failed to validate staff name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "staff name already exists")
	}
	return nil
}

func (s *StaffService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}
