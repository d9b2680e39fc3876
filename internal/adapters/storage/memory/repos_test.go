package memory

import (
	"context"
	"testing"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMedicineRepo_RejectsEndBeforeStart(t *testing.T) {
	repo := NewMedicineRepo()
	ctx := context.Background()

	end := day(2025, 3, 9)
	err := repo.Create(ctx, medicines.Medicine{ID: "m1", Time: "08:00", StartDate: day(2025, 3, 10), EndDate: &end})
	assert.ErrorIs(t, err, medicines.ErrInvalidDateRange)

	same := day(2025, 3, 10)
	require.NoError(t, repo.Create(ctx, medicines.Medicine{ID: "m2", Time: "08:00", StartDate: day(2025, 3, 10), EndDate: &same}))

	m, err := repo.GetByID(ctx, "m2")
	require.NoError(t, err)
	m.EndDate = &end
	assert.ErrorIs(t, repo.Update(ctx, m), medicines.ErrInvalidDateRange)
}

func TestMedicineRepo_FindByTimeExactMatch(t *testing.T) {
	repo := NewMedicineRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, tm := range []string{"09:00", "09:01", "09:00", "21:00"} {
		require.NoError(t, repo.Create(ctx, medicines.Medicine{
			ID:        string(rune('a' + i)),
			Time:      tm,
			StartDate: base,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := repo.FindByTime(ctx, "09:00")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got, err = repo.FindByTime(ctx, "9:00")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMedicineRepo_NotFound(t *testing.T) {
	repo := NewMedicineRepo()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, medicines.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, medicines.Medicine{ID: "nope"}), medicines.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), medicines.ErrNotFound)
}

func TestMedicineRepo_ListByOwnerAndDelete(t *testing.T) {
	repo := NewMedicineRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, medicines.Medicine{ID: "m1", OwnerUserID: "u1", Time: "08:00"}))
	require.NoError(t, repo.Create(ctx, medicines.Medicine{ID: "m2", OwnerUserID: "u2", Time: "08:00"}))

	list, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "m1"))
	list, err = repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserRepo(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, users.User{ID: "u1", Email: "Ana@Example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, users.User{ID: "u2", Email: "ana@example.com"}), users.ErrEmailTaken)

	u, err := repo.GetByEmail(ctx, " ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = repo.GetByID(ctx, "u9")
	assert.ErrorIs(t, err, users.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)
}
