package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type authStaffRepository interface {
	FindByName(ctx context.Context, name string) (*models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, needsChange bool, updatedAt time.Time) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Name      string `json:"name" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72,nefield=OldPassword"`
}

// UserInfo is the public profile returned after login.
type UserInfo struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Shift               models.Shift     `json:"shift"`
	Role                models.StaffRole `json:"role"`
	NeedsPasswordChange bool             `json:"needsPasswordChange"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	IssuedAt    time.Time `json:"issuedAt"`
	User        UserInfo  `json:"user"`
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authStaffRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authStaffRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates a staff member by name and returns an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "name and password are required")
	}

	staff, err := s.repo.FindByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, storeError(err, "failed to fetch staff")
	}
	if !staff.HasCredential() {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*staff.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	issuedAt := time.Now().UTC()
	token, err := s.generateAccessToken(staff, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.record(ctx, AuditEntry{
		ActorID:    staff.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: staff.ID,
		Payload:    map[string]interface{}{"status": "success"},
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User: UserInfo{
			ID:                  staff.ID,
			Name:                staff.Name,
			Shift:               staff.Shift,
			Role:                staff.Role,
			NeedsPasswordChange: staff.NeedsPasswordChange,
		},
	}, nil
}

// ChangePassword verifies the old password, stores the new one and clears
// the forced-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, staffID string, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "new password must have at least 6 characters and differ from the old one")
	}

	staff, err := s.repo.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return storeError(err, "failed to load staff")
	}
	if !staff.HasCredential() {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*staff.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, staffID, string(newHash), false, time.Now().UTC()); err != nil {
		return storeError(err, "failed to update password")
	}

	s.record(ctx, AuditEntry{
		ActorID:    staffID,
		Action:     models.AuditActionPasswordChange,
		Resource:   "auth",
		ResourceID: staffID,
		Payload:    map[string]interface{}{"status": "changed"},
	})
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.StaffID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(staff *models.Staff, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		StaffID: staff.ID,
		Name:    staff.Name,
		Role:    staff.Role,
		Shift:   staff.Shift,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   staff.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) record(ctx context.Context, entry AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}
