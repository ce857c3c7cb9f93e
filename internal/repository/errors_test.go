package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"pq unique", &pq.Error{Code: "23505"}, ErrDuplicate},
		{"pq foreign key", &pq.Error{Code: "23503"}, ErrForeignKey},
		{"pq connection", &pq.Error{Code: "08006"}, ErrUnavailable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: missed_visits.sector_id, missed_visits.visit_date"), ErrDuplicate},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), ErrForeignKey},
		{"bad conn", driver.ErrBadConn, ErrUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}

	plain := errors.New("syntax error")
	assert.Equal(t, plain, classify(plain))
	assert.Nil(t, classify(nil))
}

func TestClassifySQLiteDriverErrors(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	_, sector := seedSector(t, db, "Ana", "UTI 1")
	require.NoError(t, NewMissedVisitRepository(db).Insert(ctx, &models.MissedVisit{SectorID: sector.ID, VisitDate: "2024-03-01"}))

	_, err := db.ExecContext(ctx, "DELETE FROM sectors WHERE id = ?", sector.ID)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err), ErrForeignKey)

	_, err = db.ExecContext(ctx, "INSERT INTO missed_visits (id, sector_id, visit_date, created_at) VALUES ('dup', ?, '2024-03-01', CURRENT_TIMESTAMP)", sector.ID)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err), ErrDuplicate)
}
