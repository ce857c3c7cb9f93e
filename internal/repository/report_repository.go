package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epiviu-api/internal/models"
)

// ReportRepository reads the visitation report.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Rows returns one row per sector without a miss in [start, end] and one row
// per (sector, day) for every recorded miss in range.
func (r *ReportRepository) Rows(ctx context.Context, start, end models.Date) ([]models.ReportRow, error) {
	const query = `SELECT st.id AS staff_id, st.name AS staff_name, st.shift AS shift,
		s.id AS sector_id, s.name AS sector_name, mv.visit_date AS missed_date
		FROM sectors s
		JOIN staff st ON st.id = s.staff_id
		LEFT JOIN missed_visits mv ON mv.sector_id = s.id AND mv.visit_date BETWEEN ? AND ?
		ORDER BY st.name ASC, s.name ASC, s.id ASC, mv.visit_date ASC`

	rows := []models.ReportRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), start, end); err != nil {
		return nil, fmt.Errorf("query report rows: %w", classify(err))
	}
	return rows, nil
}
