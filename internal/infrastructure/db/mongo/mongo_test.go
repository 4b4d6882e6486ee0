package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saudijob/jobboard/internal/core/domain"
)

func setupHandle(t *testing.T) *Handle {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	h := NewHandle(Config{
		URI:         uri,
		Database:    fmt.Sprintf("jobboard_test_%d", time.Now().UnixNano()),
		Timeout:     5 * time.Second,
		RetryDelay:  100 * time.Millisecond,
		MaxAttempts: 2,
	}, zerolog.Nop())

	ctx := context.Background()
	if err := h.Open(ctx); err != nil {
		t.Skipf("mongodb not reachable: %v", err)
	}
	t.Cleanup(func() {
		if db, err := h.Database(); err == nil {
			_ = db.Drop(ctx)
		}
		_ = h.Close(ctx)
	})
	return h
}

func TestHandle_DatabaseBeforeOpen(t *testing.T) {
	h := NewHandle(Config{URI: "mongodb://127.0.0.1:1", Database: "x"}, zerolog.Nop())
	assert.Equal(t, StateIdle, h.State())

	_, err := h.Database()
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestHandle_OpenGivesUpAfterMaxAttempts(t *testing.T) {
	h := NewHandle(Config{
		URI:         "mongodb://127.0.0.1:1",
		Database:    "x",
		Timeout:     200 * time.Millisecond,
		RetryDelay:  10 * time.Millisecond,
		MaxAttempts: 2,
	}, zerolog.Nop())

	err := h.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Equal(t, StateIdle, h.State())
}

func TestHandle_OpenAfterClose(t *testing.T) {
	h := NewHandle(Config{URI: "mongodb://127.0.0.1:1", Database: "x"}, zerolog.Nop())
	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, StateClosed, h.State())
	assert.Error(t, h.Open(context.Background()))
}

func TestJobRepository_CreateFindUpdateDelete(t *testing.T) {
	h := setupHandle(t)
	repo := NewJobRepository(h)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	created, err := repo.Create(ctx, &domain.Job{
		FullName:    "Alice",
		PhoneNumber: "0500000000",
		Email:       "alice@x.com",
		City:        "Riyadh",
		JobRole:     "Driver",
		Description: "Day shifts",
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Driver", got.JobRole)
	assert.Equal(t, int64(0), got.Views)

	city := "Jeddah"
	until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Millisecond)
	on := true
	updated, err := repo.Update(ctx, created.ID, domain.JobPatch{
		City:           &city,
		IsUrgent:       &on,
		UrgentUntil:    &until,
		SetUrgentUntil: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jeddah", updated.City)
	assert.Equal(t, "Alice", updated.FullName)
	assert.True(t, updated.IsUrgent)
	require.NotNil(t, updated.UrgentUntil)
	assert.True(t, updated.UrgentUntil.Equal(until))

	off := false
	updated, err = repo.Update(ctx, created.ID, domain.JobPatch{IsUrgent: &off, SetUrgentUntil: true})
	require.NoError(t, err)
	assert.False(t, updated.IsUrgent)
	assert.Nil(t, updated.UrgentUntil)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrJobNotFound)
}

func TestJobRepository_MalformedID(t *testing.T) {
	h := setupHandle(t)
	repo := NewJobRepository(h)

	_, err := repo.FindByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, repo.IncrementViews(context.Background(), "not-an-id"), domain.ErrJobNotFound)
}

func TestJobRepository_ConcurrentViews(t *testing.T) {
	h := setupHandle(t)
	repo := NewJobRepository(h)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Job{Email: "v@x.com", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.IncrementViews(ctx, created.ID)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Views)
}

func TestJobRepository_DeleteCreatedBefore(t *testing.T) {
	h := setupHandle(t)
	repo := NewJobRepository(h)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Create(ctx, &domain.Job{Email: "old@x.com", CreatedAt: now.Add(-100 * 24 * time.Hour)})
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, &domain.Job{Email: "new@x.com", CreatedAt: now})
	require.NoError(t, err)

	n, err := repo.DeleteCreatedBefore(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, fresh.ID, jobs[0].ID)
}

func TestQuotaRepository_ConsumeAndRollover(t *testing.T) {
	h := setupHandle(t)
	repo := NewQuotaRepository(h, time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	day1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	for i := 0; i < 2; i++ {
		_, ok, err := repo.TryConsume(ctx, "c@x.com", day1, 2)
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := repo.TryConsume(ctx, "c@x.com", day1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	q, err := repo.AddExtraCredit(ctx, "c@x.com", day1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.ExtraCredits)

	_, ok, err = repo.TryConsume(ctx, "c@x.com", day1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	q, err = repo.Get(ctx, "c@x.com", day2)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Count)
	assert.Equal(t, 0, q.ExtraCredits)
	assert.True(t, q.LastReset.Equal(day2))
}

func TestQuotaRepository_ConsumeWhenRecordIsAheadOfToday(t *testing.T) {
	h := setupHandle(t)
	repo := NewQuotaRepository(h, time.Hour)
	ctx := context.Background()

	day2 := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	day1 := day2.AddDate(0, 0, -1)

	// A record stamped with a later day, as after a time zone change.
	_, ok, err := repo.TryConsume(ctx, "tz@x.com", day2, 2)
	require.NoError(t, err)
	require.True(t, ok)

	q, ok, err := repo.TryConsume(ctx, "tz@x.com", day1, 2)
	require.NoError(t, err)
	assert.True(t, ok, "one credit is still left on the record")
	assert.Equal(t, 2, q.Count)
}

func TestQuotaRepository_ConcurrentConsume(t *testing.T) {
	h := setupHandle(t)
	repo := NewQuotaRepository(h, time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.TryConsume(ctx, "race@x.com", today, 2)
			if err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), granted.Load())
}
