package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytakahashi/habits-api/internal/models"
)

// MemoryService is an in-process Store for local development and tests.
type MemoryService struct {
	mu         sync.Mutex
	habits     map[string]*models.Habit
	habitNames map[string]string
	focusTimes map[string]*models.FocusTime
	now        func() time.Time
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		habits:     make(map[string]*models.Habit),
		habitNames: make(map[string]string),
		focusTimes: make(map[string]*models.FocusTime),
		now:        time.Now,
	}
}

func (ms *MemoryService) Close() error {
	return nil
}

func (ms *MemoryService) CreateHabit(ctx context.Context, userID string, in models.NewHabit) (*models.Habit, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := habitNameKey(userID, in.Name)
	if _, taken := ms.habitNames[key]; taken {
		return nil, ErrHabitExists
	}

	now := ms.now()
	habit := &models.Habit{
		ID:             uuid.New().String(),
		Name:           in.Name,
		CompletedDates: []time.Time{},
		UserID:         userID,
		Frequency:      in.Frequency,
		StartDate:      in.StartDate,
		Description:    in.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ms.habits[habit.ID] = habit
	ms.habitNames[key] = habit.ID
	return cloneHabit(habit), nil
}

func (ms *MemoryService) ListHabits(ctx context.Context, userID string) ([]*models.Habit, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	habits := []*models.Habit{}
	for _, h := range ms.habits {
		if h.UserID == userID {
			habits = append(habits, cloneHabit(h))
		}
	}
	sort.SliceStable(habits, func(i, j int) bool { return habits[i].Name < habits[j].Name })
	return habits, nil
}

func (ms *MemoryService) GetHabit(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	h, ok := ms.habits[habitID]
	if !ok || h.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneHabit(h), nil
}

func (ms *MemoryService) DeleteHabit(ctx context.Context, userID, habitID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	h, ok := ms.habits[habitID]
	if !ok || h.UserID != userID {
		return ErrNotFound
	}
	delete(ms.habits, habitID)
	delete(ms.habitNames, habitNameKey(userID, h.Name))
	return nil
}

func (ms *MemoryService) ToggleHabitDay(ctx context.Context, userID, habitID string, now time.Time, loc *time.Location) (*models.Habit, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	h, ok := ms.habits[habitID]
	if !ok || h.UserID != userID {
		return nil, ErrNotFound
	}
	h.CompletedDates, _ = models.ToggleDay(h.CompletedDates, now, loc)
	h.UpdatedAt = ms.now()
	return cloneHabit(h), nil
}

func (ms *MemoryService) CreateFocusTime(ctx context.Context, userID string, from, to time.Time) (*models.FocusTime, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	ft := &models.FocusTime{
		ID:        uuid.New().String(),
		TimeFrom:  from,
		TimeTo:    to,
		Duration:  models.DurationMinutes(from, to),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ms.focusTimes[ft.ID] = ft
	cp := *ft
	return &cp, nil
}

func (ms *MemoryService) ListFocusTimes(ctx context.Context, userID string) ([]*models.FocusTime, error) {
	return ms.listFocusTimes(userID, func(*models.FocusTime) bool { return true }), nil
}

func (ms *MemoryService) ListFocusTimesBetween(ctx context.Context, userID string, start, end time.Time) ([]*models.FocusTime, error) {
	return ms.listFocusTimes(userID, func(ft *models.FocusTime) bool {
		return !ft.TimeFrom.Before(start) && !ft.TimeFrom.After(end)
	}), nil
}

func (ms *MemoryService) listFocusTimes(userID string, keep func(*models.FocusTime) bool) []*models.FocusTime {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := []*models.FocusTime{}
	for _, ft := range ms.focusTimes {
		if ft.UserID == userID && keep(ft) {
			cp := *ft
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeFrom.Before(out[j].TimeFrom) })
	return out
}

func cloneHabit(h *models.Habit) *models.Habit {
	cp := *h
	cp.CompletedDates = append([]time.Time{}, h.CompletedDates...)
	return &cp
}
