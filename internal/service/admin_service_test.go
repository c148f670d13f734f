package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/auth"
	"smartpark/internal/clock"
	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
	"smartpark/internal/repository"
)

type fakeAdminStore struct {
	filter  entities.ReservationFilter
	rows    []db.Reservation
	updates map[string][2]int
}

func (f *fakeAdminStore) ListReservations(_ context.Context, filter entities.ReservationFilter) ([]db.Reservation, error) {
	f.filter = filter
	return f.rows, nil
}

func (f *fakeAdminStore) UpdateLocationSpaces(_ context.Context, id string, total, available int) error {
	if id != "loc-1" {
		return apperrors.ErrNotFound
	}
	if f.updates == nil {
		f.updates = map[string][2]int{}
	}
	f.updates[id] = [2]int{total, available}
	return nil
}

func TestAdminService_ListReservations(t *testing.T) {
	store := &fakeAdminStore{rows: []db.Reservation{{ID: "r-1"}, {ID: "r-2"}}}
	svc := NewAdminService(store)
	ctx := context.Background()

	list, err := svc.ListReservations(ctx, entities.ReservationFilter{Status: db.StatusConfirmed, SlotID: "slot-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "slot-1", store.filter.SlotID)

	_, err = svc.ListReservations(ctx, entities.ReservationFilter{Status: "parked"})
	requireValidation(t, err, "status")
}

func TestAdminService_UpdateLocationSpaces(t *testing.T) {
	store := &fakeAdminStore{}
	svc := NewAdminService(store)
	ctx := context.Background()

	require.NoError(t, svc.UpdateLocationSpaces(ctx, "loc-1", 40, 12))
	assert.Equal(t, [2]int{40, 12}, store.updates["loc-1"])

	requireValidation(t, svc.UpdateLocationSpaces(ctx, "loc-1", -1, 0), "total_slots")
	requireValidation(t, svc.UpdateLocationSpaces(ctx, "loc-1", 10, 11), "available_slots")
	requireValidation(t, svc.UpdateLocationSpaces(ctx, "loc-1", 10, -1), "available_slots")
	assert.ErrorIs(t, svc.UpdateLocationSpaces(ctx, "loc-9", 10, 5), apperrors.ErrNotFound)
}

type fakeAdminAuthRepo struct {
	admins map[string]repository.Admin
}

func (f *fakeAdminAuthRepo) GetByEmail(_ context.Context, email string) (*repository.Admin, error) {
	a, ok := f.admins[email]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAdminAuthRepo) CreateAdmin(_ context.Context, email, hash string) (bool, error) {
	if _, ok := f.admins[email]; ok {
		return false, nil
	}
	f.admins[email] = repository.Admin{ID: int64(len(f.admins) + 1), Email: email, PasswordHash: hash}
	return true, nil
}

func TestAdminAuthService(t *testing.T) {
	repo := &fakeAdminAuthRepo{admins: map[string]repository.Admin{}}
	svc := NewAdminAuthService(repo, "secret", time.Hour, clock.NewSystem())
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "ops@smartpark.test", "s3cret!")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "s3cret!", repo.admins["ops@smartpark.test"].PasswordHash)

	created, err = svc.EnsureAdmin(ctx, "ops@smartpark.test", "other")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.EnsureAdmin(ctx, "", "x")
	requireValidation(t, err, "email")

	token, err := svc.Login(ctx, "ops@smartpark.test", "s3cret!")
	require.NoError(t, err)
	claims, err := auth.ParseToken([]byte("secret"), token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "ops@smartpark.test", claims.Email)

	_, err = svc.Login(ctx, "ops@smartpark.test", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@smartpark.test", "s3cret!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
