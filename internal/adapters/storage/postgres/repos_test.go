package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/domain/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere MEDEASE_TEST_DSN apuntando a una base descartable.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MEDEASE_TEST_DSN")
	if dsn == "" {
		t.Skip("MEDEASE_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgres_UsersAndMedicines(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	ur := NewUsersRepo(db)
	mr := NewMedicinesRepo(db)

	uid := uuid.NewString()
	email := uid + "@example.com"
	require.NoError(t, ur.Create(ctx, users.User{
		ID: uid, Name: "Ana", Email: email, Language: "en",
		Caretaker:    &users.Caretaker{Name: "Luis", Phone: "+1"},
		PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	}))
	assert.ErrorIs(t, ur.Create(ctx, users.User{
		ID: uuid.NewString(), Name: "Ana2", Email: email, PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	}), users.ErrEmailTaken)

	u, err := ur.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, u.Caretaker)
	assert.Equal(t, "Luis", u.Caretaker.Name)

	clock := "03:17"
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mid := uuid.NewString()
	require.NoError(t, mr.Create(ctx, medicines.Medicine{
		ID: mid, OwnerUserID: uid, Name: "Aspirin", Dosage: "100mg", Time: clock,
		Frequency: medicines.FrequencyDaily, StartDate: start, CreatedAt: now, UpdatedAt: now,
	}))

	due, err := mr.FindByTime(ctx, clock)
	require.NoError(t, err)
	found := false
	for _, m := range due {
		if m.ID == mid {
			found = true
			assert.Equal(t, "Aspirin", m.Name)
			assert.Nil(t, m.EndDate)
		}
	}
	assert.True(t, found)

	m, err := mr.GetByID(ctx, mid)
	require.NoError(t, err)
	bad := start.AddDate(0, 0, -1)
	m.EndDate = &bad
	assert.ErrorIs(t, mr.Update(ctx, m), medicines.ErrInvalidDateRange)

	require.NoError(t, mr.Delete(ctx, mid))
	_, err = mr.GetByID(ctx, mid)
	assert.ErrorIs(t, err, medicines.ErrNotFound)
}
