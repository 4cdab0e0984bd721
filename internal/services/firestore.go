package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ytakahashi/habits-api/internal/models"
)

const (
	habitsCollection     = "habits"
	habitNamesCollection = "habitNames"
	focusTimesCollection = "focustimes"
)

// habitRecord mirrors models.Habit but accepts completion values stored as strings.
type habitRecord struct {
	ID             string        `firestore:"id"`
	Name           string        `firestore:"name"`
	CompletedDates []interface{} `firestore:"completedDates"`
	UserID         string        `firestore:"userId"`
	Frequency      string        `firestore:"frequency"`
	StartDate      *time.Time    `firestore:"startDate"`
	Description    string        `firestore:"description"`
	CreatedAt      time.Time     `firestore:"createdAt"`
	UpdatedAt      time.Time     `firestore:"updatedAt"`
}

// habitName reserves a case-folded habit name for one user.
type habitName struct {
	HabitID string `firestore:"habitId"`
	UserID  string `firestore:"userId"`
	Name    string `firestore:"name"`
}

type FirestoreService struct {
	client *firestore.Client
	loc    *time.Location
	now    func() time.Time
	logger *logrus.Logger
}

func NewFirestoreService(ctx context.Context, projectID string, loc *time.Location, logger *logrus.Logger, opts ...option.ClientOption) (*FirestoreService, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return NewFirestoreServiceFromClient(client, loc, logger), nil
}

// NewFirestoreServiceFromClient wraps an existing client, e.g. one obtained from a Firebase app.
func NewFirestoreServiceFromClient(client *firestore.Client, loc *time.Location, logger *logrus.Logger) *FirestoreService {
	return &FirestoreService{
		client: client,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreService) CreateHabit(ctx context.Context, userID string, in models.NewHabit) (*models.Habit, error) {
	now := fs.now()
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

	habitRef := fs.client.Collection(habitsCollection).Doc(habit.ID)
	nameRef := fs.client.Collection(habitNamesCollection).Doc(habitNameKey(userID, in.Name))

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(nameRef, habitName{HabitID: habit.ID, UserID: userID, Name: in.Name}); err != nil {
			return err
		}
		return tx.Create(habitRef, habit)
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil, ErrHabitExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return habit, nil
}

func (fs *FirestoreService) ListHabits(ctx context.Context, userID string) ([]*models.Habit, error) {
	iter := fs.client.Collection(habitsCollection).
		Where("userId", "==", userID).
		OrderBy("name", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	habits := []*models.Habit{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate habits: %w", err)
		}

		habit, err := fs.decodeHabit(doc)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}

	return habits, nil
}

func (fs *FirestoreService) GetHabit(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	docs, err := fs.ownedHabit(userID, habitID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return fs.decodeHabit(docs[0])
}

func (fs *FirestoreService) DeleteHabit(ctx context.Context, userID, habitID string) error {
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(fs.ownedHabit(userID, habitID)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return ErrNotFound
		}
		habit, err := fs.decodeHabit(docs[0])
		if err != nil {
			return err
		}

		if err := tx.Delete(docs[0].Ref); err != nil {
			return err
		}
		return tx.Delete(fs.client.Collection(habitNamesCollection).Doc(habitNameKey(userID, habit.Name)))
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	return nil
}

func (fs *FirestoreService) ToggleHabitDay(ctx context.Context, userID, habitID string, now time.Time, loc *time.Location) (*models.Habit, error) {
	var updated *models.Habit
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(fs.ownedHabit(userID, habitID)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return ErrNotFound
		}
		habit, unreadable, err := fs.decodeHabitRaw(docs[0])
		if err != nil {
			return err
		}

		habit.CompletedDates, _ = models.ToggleDay(habit.CompletedDates, now, loc)
		habit.UpdatedAt = fs.now()
		updated = habit

		return tx.Update(docs[0].Ref, []firestore.Update{
			{Path: "completedDates", Value: storedDates(habit.CompletedDates, unreadable)},
			{Path: "updatedAt", Value: habit.UpdatedAt},
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle habit: %w", err)
	}

	return updated, nil
}

func (fs *FirestoreService) CreateFocusTime(ctx context.Context, userID string, from, to time.Time) (*models.FocusTime, error) {
	now := fs.now()
	ft := &models.FocusTime{
		ID:        uuid.New().String(),
		TimeFrom:  from,
		TimeTo:    to,
		Duration:  models.DurationMinutes(from, to),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := fs.client.Collection(focusTimesCollection).Doc(ft.ID).Set(ctx, ft)
	if err != nil {
		return nil, fmt.Errorf("failed to create focus time: %w", err)
	}

	return ft, nil
}

func (fs *FirestoreService) ListFocusTimes(ctx context.Context, userID string) ([]*models.FocusTime, error) {
	return fs.collectFocusTimes(fs.client.Collection(focusTimesCollection).
		Where("userId", "==", userID).
		OrderBy("timeFrom", firestore.Asc).
		Documents(ctx))
}

func (fs *FirestoreService) ListFocusTimesBetween(ctx context.Context, userID string, start, end time.Time) ([]*models.FocusTime, error) {
	return fs.collectFocusTimes(fs.client.Collection(focusTimesCollection).
		Where("userId", "==", userID).
		Where("timeFrom", ">=", start).
		Where("timeFrom", "<=", end).
		OrderBy("timeFrom", firestore.Asc).
		Documents(ctx))
}

func (fs *FirestoreService) collectFocusTimes(iter *firestore.DocumentIterator) ([]*models.FocusTime, error) {
	defer iter.Stop()

	focusTimes := []*models.FocusTime{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate focus times: %w", err)
		}

		var ft models.FocusTime
		if err := doc.DataTo(&ft); err != nil {
			return nil, fmt.Errorf("failed to unmarshal focus time: %w", err)
		}
		focusTimes = append(focusTimes, &ft)
	}

	return focusTimes, nil
}

// ownedHabit matches habitID only when it belongs to userID.
func (fs *FirestoreService) ownedHabit(userID, habitID string) firestore.Query {
	return fs.client.Collection(habitsCollection).
		Where("id", "==", habitID).
		Where("userId", "==", userID).
		Limit(1)
}

func (fs *FirestoreService) decodeHabit(doc *firestore.DocumentSnapshot) (*models.Habit, error) {
	habit, _, err := fs.decodeHabitRaw(doc)
	return habit, err
}

// decodeHabitRaw also returns the stored completion values that could not be read.
func (fs *FirestoreService) decodeHabitRaw(doc *firestore.DocumentSnapshot) (*models.Habit, []interface{}, error) {
	var rec habitRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal habit: %w", err)
	}

	dates, unreadable := models.NormalizeDates(rec.CompletedDates, fs.loc)
	if len(unreadable) > 0 && fs.logger != nil {
		fs.logger.WithFields(logrus.Fields{
			"habit_id": rec.ID,
			"skipped":  len(unreadable),
		}).Warn("habit has unreadable completion dates")
	}

	return &models.Habit{
		ID:             rec.ID,
		Name:           rec.Name,
		CompletedDates: dates,
		UserID:         rec.UserID,
		Frequency:      rec.Frequency,
		StartDate:      rec.StartDate,
		Description:    rec.Description,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, unreadable, nil
}

// storedDates is the completedDates value to persist: the readable dates
// followed by the unreadable originals, which are kept as they were.
func storedDates(dates []time.Time, unreadable []interface{}) []interface{} {
	out := make([]interface{}, 0, len(dates)+len(unreadable))
	for _, d := range dates {
		out = append(out, d)
	}
	return append(out, unreadable...)
}
