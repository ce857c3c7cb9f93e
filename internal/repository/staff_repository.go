package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epiviu-api/internal/models"
)

const staffColumns = "id, name, shift, role, password_hash, needs_password_change, owner_id, created_at, updated_at"

// StaffRepository manages persistence for staff members.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns every staff member ordered by name.
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	query := "SELECT " + staffColumns + " FROM staff ORDER BY name ASC, id ASC"
	staff := []models.Staff{}
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("list staff: %w", classify(err))
	}
	return staff, nil
}

// FindByID fetches a staff member by ID. Missing rows return sql.ErrNoRows.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := r.db.Rebind("SELECT " + staffColumns + " FROM staff WHERE id = ?")
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff: %w", classify(err))
	}
	return &staff, nil
}

// FindByName fetches a staff member by case-insensitive name.
func (r *StaffRepository) FindByName(ctx context.Context, name string) (*models.Staff, error) {
	query := r.db.Rebind("SELECT " + staffColumns + " FROM staff WHERE LOWER(name) = LOWER(?)")
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by name: %w", classify(err))
	}
	return &staff, nil
}

// ExistsByName checks if another staff member uses the same name.
func (r *StaffRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM staff WHERE LOWER(name) = LOWER(?)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check staff name: %w", classify(err))
	}
	return true, nil
}

// Create inserts a new staff record.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if staff.Role == "" {
		staff.Role = models.RoleStaff
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	const query = `INSERT INTO staff (id, name, shift, role, password_hash, needs_password_change, owner_id, created_at, updated_at)
		VALUES (:id, :name, :shift, :role, :password_hash, :needs_password_change, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", classify(err))
	}
	return nil
}

// Update modifies name, shift and role of an existing staff member.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) (int64, error) {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET name = :name, shift = :shift, role = :role, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, staff)
	if err != nil {
		return 0, fmt.Errorf("update staff: %w", classify(err))
	}
	return res.RowsAffected()
}

// UpdatePassword stores a new password hash.
func (r *StaffRepository) UpdatePassword(ctx context.Context, id, passwordHash string, needsChange bool, updatedAt time.Time) error {
	query := r.db.Rebind("UPDATE staff SET password_hash = ?, needs_password_change = ?, updated_at = ? WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, passwordHash, needsChange, updatedAt, id); err != nil {
		return fmt.Errorf("update staff password: %w", classify(err))
	}
	return nil
}

// Delete removes a staff member together with the sectors they own and the
// missed visits recorded for those sectors, in one transaction. It returns
// the number of staff rows removed, zero when the id is unknown.
func (r *StaffRepository) Delete(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var sectorIDs []string
		if err := tx.SelectContext(ctx, &sectorIDs, tx.Rebind("SELECT id FROM sectors WHERE staff_id = ?"), id); err != nil {
			return fmt.Errorf("list staff sectors: %w", classify(err))
		}

		if len(sectorIDs) > 0 {
			query, args, err := sqlx.In("DELETE FROM missed_visits WHERE sector_id IN (?)", sectorIDs)
			if err != nil {
				return fmt.Errorf("build missed visit cascade: %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("delete staff missed visits: %w", classify(err))
			}
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sectors WHERE staff_id = ?"), id); err != nil {
			return fmt.Errorf("delete staff sectors: %w", classify(err))
		}

		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM staff WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete staff: %w", classify(err))
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
