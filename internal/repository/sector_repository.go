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

const sectorColumns = "id, name, staff_id, owner_id, created_at, updated_at"

// SectorRepository manages persistence for sectors.
type SectorRepository struct {
	db *sqlx.DB
}

// NewSectorRepository constructs a SectorRepository.
func NewSectorRepository(db *sqlx.DB) *SectorRepository {
	return &SectorRepository{db: db}
}

// List returns sectors ordered by name, optionally restricted to one owner.
func (r *SectorRepository) List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error) {
	query := "SELECT " + sectorColumns + " FROM sectors"
	var args []interface{}
	if filter.StaffID != "" {
		query += " WHERE staff_id = ?"
		args = append(args, filter.StaffID)
	}
	query += " ORDER BY name ASC, id ASC"

	sectors := []models.Sector{}
	if err := r.db.SelectContext(ctx, &sectors, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sectors: %w", classify(err))
	}
	return sectors, nil
}

// FindByID fetches a sector. Missing rows return sql.ErrNoRows.
func (r *SectorRepository) FindByID(ctx context.Context, id string) (*models.Sector, error) {
	query := r.db.Rebind("SELECT " + sectorColumns + " FROM sectors WHERE id = ?")
	var sector models.Sector
	if err := r.db.GetContext(ctx, &sector, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find sector: %w", classify(err))
	}
	return &sector, nil
}

// Create inserts a sector.
func (r *SectorRepository) Create(ctx context.Context, sector *models.Sector) error {
	if sector.ID == "" {
		sector.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sector.CreatedAt.IsZero() {
		sector.CreatedAt = now
	}
	sector.UpdatedAt = now

	const query = `INSERT INTO sectors (id, name, staff_id, owner_id, created_at, updated_at)
		VALUES (:id, :name, :staff_id, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sector); err != nil {
		return fmt.Errorf("create sector: %w", classify(err))
	}
	return nil
}

// Update renames a sector or moves it to another staff member.
func (r *SectorRepository) Update(ctx context.Context, sector *models.Sector) (int64, error) {
	sector.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sectors SET name = :name, staff_id = :staff_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, sector)
	if err != nil {
		return 0, fmt.Errorf("update sector: %w", classify(err))
	}
	return res.RowsAffected()
}

// Delete removes a sector and its missed-visit history in one transaction.
// It returns the number of sector rows removed.
func (r *SectorRepository) Delete(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM missed_visits WHERE sector_id = ?"), id); err != nil {
			return fmt.Errorf("delete sector missed visits: %w", classify(err))
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sectors WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete sector: %w", classify(err))
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
