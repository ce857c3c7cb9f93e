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

// MissedVisitRepository stores missed-visit markers keyed by (sector, day).
type MissedVisitRepository struct {
	db *sqlx.DB
}

// NewMissedVisitRepository constructs a MissedVisitRepository.
func NewMissedVisitRepository(db *sqlx.DB) *MissedVisitRepository {
	return &MissedVisitRepository{db: db}
}

// Exists reports whether the sector is marked as missed on date.
func (r *MissedVisitRepository) Exists(ctx context.Context, sectorID string, date models.Date) (bool, error) {
	query := r.db.Rebind("SELECT 1 FROM missed_visits WHERE sector_id = ? AND visit_date = ? LIMIT 1")
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sectorID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check missed visit: %w", classify(err))
	}
	return true, nil
}

// Insert marks a sector as missed. A concurrent insert for the same key
// fails with ErrDuplicate.
func (r *MissedVisitRepository) Insert(ctx context.Context, visit *models.MissedVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO missed_visits (id, sector_id, visit_date, owner_id, created_at)
		VALUES (:id, :sector_id, :visit_date, :owner_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, visit); err != nil {
		return fmt.Errorf("insert missed visit: %w", classify(err))
	}
	return nil
}

// Delete clears the marker and returns the number of rows removed.
func (r *MissedVisitRepository) Delete(ctx context.Context, sectorID string, date models.Date) (int64, error) {
	query := r.db.Rebind("DELETE FROM missed_visits WHERE sector_id = ? AND visit_date = ?")
	res, err := r.db.ExecContext(ctx, query, sectorID, date)
	if err != nil {
		return 0, fmt.Errorf("delete missed visit: %w", classify(err))
	}
	return res.RowsAffected()
}

// ListSectorIDsByDate returns the sectors marked as missed on date.
func (r *MissedVisitRepository) ListSectorIDsByDate(ctx context.Context, date models.Date) ([]string, error) {
	query := r.db.Rebind("SELECT sector_id FROM missed_visits WHERE visit_date = ? ORDER BY sector_id ASC")
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, date); err != nil {
		return nil, fmt.Errorf("list missed visits: %w", classify(err))
	}
	return ids, nil
}
