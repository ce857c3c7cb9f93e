package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

func newSectorServiceForTest(store *memStore) *SectorService {
	return NewSectorService(memSectorRepo{store}, memStaffRepo{store}, &recordingInvalidator{}, nil, nil)
}

func TestSectorServiceCreate(t *testing.T) {
	store := newMemStore()
	ana := store.addStaff("Ana", models.ShiftMorning)
	svc := newSectorServiceForTest(store)

	sector, err := svc.Create(context.Background(), CreateSectorRequest{Name: " UTI 1 ", StaffID: ana.ID})
	require.NoError(t, err)
	assert.Equal(t, "UTI 1", sector.Name)
	assert.Equal(t, ana.ID, sector.StaffID)
}

func TestSectorServiceCreateRejectsUnknownStaff(t *testing.T) {
	svc := newSectorServiceForTest(newMemStore())

	_, err := svc.Create(context.Background(), CreateSectorRequest{Name: "UTI 1", StaffID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), CreateSectorRequest{Name: "", StaffID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

type staleStaffLookup struct{}

func (staleStaffLookup) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	return &models.Staff{ID: id}, nil
}

func TestSectorServiceCreateForeignKeyIsValidation(t *testing.T) {
	store := newMemStore()
	svc := NewSectorService(memSectorRepo{store}, staleStaffLookup{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSectorRequest{Name: "UTI 1", StaffID: "deleted"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSectorServiceReassign(t *testing.T) {
	store := newMemStore()
	ana := store.addStaff("Ana", models.ShiftMorning)
	bia := store.addStaff("Bia", models.ShiftAfternoon)
	uti := store.addSector("UTI 1", ana.ID)
	svc := newSectorServiceForTest(store)

	name := "UTI 2"
	sector, err := svc.Update(context.Background(), uti.ID, UpdateSectorRequest{Name: &name, StaffID: bia.ID})
	require.NoError(t, err)
	assert.Equal(t, bia.ID, sector.StaffID)
	assert.Equal(t, "UTI 2", store.sectors[uti.ID].Name)

	_, err = svc.Update(context.Background(), uti.ID, UpdateSectorRequest{StaffID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSectorServiceDelete(t *testing.T) {
	store := newMemStore()
	ana := store.addStaff("Ana", models.ShiftMorning)
	uti := store.addSector("UTI 1", ana.ID)
	store.markMissed(uti.ID, "2024-03-01")
	store.markMissed(uti.ID, "2024-03-02")
	svc := newSectorServiceForTest(store)

	require.NoError(t, svc.Delete(context.Background(), uti.ID))
	assert.Empty(t, store.visits)
	assert.ErrorIs(t, svc.Delete(context.Background(), uti.ID), appErrors.ErrNotFound)
}
