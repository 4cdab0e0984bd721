package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/text/cases"

	"github.com/ytakahashi/habits-api/internal/models"
)

var (
	// ErrNotFound is returned when a resource does not exist or is owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrHabitExists is returned when the user already has a habit with the same folded name.
	ErrHabitExists = errors.New("habit already exists")
)

// HabitRepository persists habits. Every method is scoped to userID.
type HabitRepository interface {
	CreateHabit(ctx context.Context, userID string, in models.NewHabit) (*models.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]*models.Habit, error)
	GetHabit(ctx context.Context, userID, habitID string) (*models.Habit, error)
	DeleteHabit(ctx context.Context, userID, habitID string) error
	// ToggleHabitDay atomically adds or removes the calendar day of now (in loc).
	ToggleHabitDay(ctx context.Context, userID, habitID string, now time.Time, loc *time.Location) (*models.Habit, error)
}

// FocusTimeRepository persists focus sessions. Every method is scoped to userID.
type FocusTimeRepository interface {
	CreateFocusTime(ctx context.Context, userID string, from, to time.Time) (*models.FocusTime, error)
	// ListFocusTimes returns sessions ordered by TimeFrom ascending.
	ListFocusTimes(ctx context.Context, userID string) ([]*models.FocusTime, error)
	// ListFocusTimesBetween returns sessions with start <= TimeFrom <= end, ordered by TimeFrom.
	ListFocusTimesBetween(ctx context.Context, userID string, start, end time.Time) ([]*models.FocusTime, error)
}

// Store is the full persistence gateway.
type Store interface {
	HabitRepository
	FocusTimeRepository
	Close() error
}

// habitNameKey identifies the (user, case-folded name) pair that must be unique.
// A Caser is stateful, so one is built per call.
func habitNameKey(userID, name string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + cases.Fold().String(name)))
	return hex.EncodeToString(sum[:])
}
