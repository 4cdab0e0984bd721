package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/habits-api/internal/models"
)

func TestMemoryService_CreateHabit_CaseInsensitiveUnique(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()

	run, err := ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "Run"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.NotNil(t, run.CompletedDates)
	assert.Empty(t, run.CompletedDates)

	_, err = ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "run"})
	assert.ErrorIs(t, err, ErrHabitExists)

	_, err = ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "RUN"})
	assert.ErrorIs(t, err, ErrHabitExists)

	_, err = ms.CreateHabit(ctx, "bob", models.NewHabit{Name: "run"})
	assert.NoError(t, err, "names are unique per user only")
}

func TestMemoryService_CreateHabit_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "Read"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryService_ListHabits_SortedAndScoped(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()
	for _, name := range []string{"Walk", "Meditate", "Read"} {
		_, err := ms.CreateHabit(ctx, "alice", models.NewHabit{Name: name})
		require.NoError(t, err)
	}
	_, err := ms.CreateHabit(ctx, "bob", models.NewHabit{Name: "Code"})
	require.NoError(t, err)

	habits, err := ms.ListHabits(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, habits, 3)
	assert.Equal(t, "Meditate", habits[0].Name)
	assert.Equal(t, "Read", habits[1].Name)
	assert.Equal(t, "Walk", habits[2].Name)

	none, err := ms.ListHabits(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryService_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()
	h, err := ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "Run"})
	require.NoError(t, err)

	_, err = ms.GetHabit(ctx, "bob", h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, ms.DeleteHabit(ctx, "bob", h.ID), ErrNotFound)
	_, err = ms.ToggleHabitDay(ctx, "bob", h.ID, time.Now(), time.UTC)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ms.DeleteHabit(ctx, "alice", h.ID))
	_, err = ms.GetHabit(ctx, "alice", h.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// the name is free again once the habit is gone
	_, err = ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "run"})
	assert.NoError(t, err)
}

func TestMemoryService_ToggleHabitDay(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()
	h, err := ms.CreateHabit(ctx, "alice", models.NewHabit{Name: "Run"})
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	on, err := ms.ToggleHabitDay(ctx, "alice", h.ID, now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}, on.CompletedDates)

	off, err := ms.ToggleHabitDay(ctx, "alice", h.ID, now.Add(time.Hour), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, off.CompletedDates)
}

func TestMemoryService_FocusTimes(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryService()
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	late, err := ms.CreateFocusTime(ctx, "alice", base.Add(2*time.Hour), base.Add(2*time.Hour+30*time.Minute+20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 30, late.Duration)

	_, err = ms.CreateFocusTime(ctx, "alice", base, base.Add(45*time.Minute))
	require.NoError(t, err)
	_, err = ms.CreateFocusTime(ctx, "alice", base.AddDate(0, 1, 0), base.AddDate(0, 1, 0).Add(time.Hour))
	require.NoError(t, err)
	_, err = ms.CreateFocusTime(ctx, "bob", base, base.Add(time.Hour))
	require.NoError(t, err)

	all, err := ms.ListFocusTimes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].TimeFrom.Equal(base))
	assert.True(t, all[1].TimeFrom.Equal(base.Add(2*time.Hour)))

	start, end := models.MonthRange(base, time.UTC)
	march, err := ms.ListFocusTimesBetween(ctx, "alice", start, end)
	require.NoError(t, err)
	assert.Len(t, march, 2)
}
