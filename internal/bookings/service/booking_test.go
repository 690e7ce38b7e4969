package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "calbook/internal/bookings/errors"
	"calbook/internal/bookings/validator"
	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/kafka"
	"calbook/pkg/logger"
	"calbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type mockBookingRepository struct {
	roundRobinFunc      func(ctx context.Context, q model.RoundRobinQuery) ([]*model.Booking, error)
	conflictsFunc       func(ctx context.Context, q model.ConflictWindowQuery) ([]*model.Booking, error)
	countTeamFunc       func(ctx context.Context, q model.TeamBookingsQuery) (int64, error)
	findTeamFunc        func(ctx context.Context, q model.TeamBookingsQuery) ([]*model.Booking, error)
	accessFunc          func(ctx context.Context, userID, bookingID string) (bool, error)
	firstRescheduleFunc func(ctx context.Context, originalUID string) (*model.Booking, error)
	originalFunc        func(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error)
	lastRescheduledFunc func(ctx context.Context, uid string) (*model.RescheduleReference, error)
	updateLocationFunc  func(ctx context.Context, id string, update *model.LocationUpdate) error
	findByUIDFunc       func(ctx context.Context, uid string) (*model.Booking, error)
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockBookingRepository) FindAllBookingsForRoundRobin(ctx context.Context, q model.RoundRobinQuery) ([]*model.Booking, error) {
	if m.roundRobinFunc != nil {
		return m.roundRobinFunc(ctx, q)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindAllExistingBookingsForEventTypeBetween(ctx context.Context, q model.ConflictWindowQuery) ([]*model.Booking, error) {
	if m.conflictsFunc != nil {
		return m.conflictsFunc(ctx, q)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) (int64, error) {
	if m.countTeamFunc != nil {
		return m.countTeamFunc(ctx, q)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) ([]*model.Booking, error) {
	if m.findTeamFunc != nil {
		return m.findTeamFunc(ctx, q)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) DoesUserIDHaveAccessToBooking(ctx context.Context, userID, bookingID string) (bool, error) {
	if m.accessFunc != nil {
		return m.accessFunc(ctx, userID, bookingID)
	}
	return false, nil
}

func (m *mockBookingRepository) FindFirstBookingByReschedule(ctx context.Context, originalUID string) (*model.Booking, error) {
	if m.firstRescheduleFunc != nil {
		return m.firstRescheduleFunc(ctx, originalUID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindOriginalRescheduledBooking(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error) {
	if m.originalFunc != nil {
		return m.originalFunc(ctx, uid, seatsEvent)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) GetLastRescheduledBy(ctx context.Context, uid string) (*model.RescheduleReference, error) {
	if m.lastRescheduledFunc != nil {
		return m.lastRescheduledFunc(ctx, uid)
	}
	return nil, nil
}

func (m *mockBookingRepository) UpdateLocationByID(ctx context.Context, id string, update *model.LocationUpdate) error {
	if m.updateLocationFunc != nil {
		return m.updateLocationFunc(ctx, id, update)
	}
	return nil
}

func (m *mockBookingRepository) FindByUID(ctx context.Context, uid string) (*model.Booking, error) {
	if m.findByUIDFunc != nil {
		return m.findByUIDFunc(ctx, uid)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (p *mockPublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

const (
	bookingID   = "64b0000000000000000000c1"
	eventTypeID = "64b0000000000000000000aa"
	teamID      = "64b0000000000000000000bb"
)

var alice = model.UserEmail{ID: "64b000000000000000000001", Email: "alice@example.com"}

func newTestService(repo *mockBookingRepository, publisher kafka.Publisher) *bookingService {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:         log,
		ReadTimeout: 5 * time.Second,
	}
	return &bookingService{
		repo:      repo,
		validator: validator.NewBookingValidator(log),
		publisher: publisher,
		cfg:       cfg,
	}
}

func requireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.StatusCode())
	return appErr
}

func TestActiveRoundRobinBookings(t *testing.T) {
	t.Run("passes the query through", func(t *testing.T) {
		var got model.RoundRobinQuery
		svc := newTestService(&mockBookingRepository{
			roundRobinFunc: func(_ context.Context, q model.RoundRobinQuery) ([]*model.Booking, error) {
				got = q
				return []*model.Booking{{UID: "b1", Status: model.StatusAccepted}}, nil
			},
		}, nil)

		q := &model.RoundRobinQuery{Users: []model.UserEmail{alice}, EventTypeID: eventTypeID, IncludeNoShow: true}
		bookings, err := svc.ActiveRoundRobinBookings(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
		assert.True(t, got.IncludeNoShow)
		assert.Equal(t, eventTypeID, got.EventTypeID)
	})

	t.Run("normalizes users", func(t *testing.T) {
		var got model.RoundRobinQuery
		svc := newTestService(&mockBookingRepository{
			roundRobinFunc: func(_ context.Context, q model.RoundRobinQuery) ([]*model.Booking, error) {
				got = q
				return nil, nil
			},
		}, nil)

		q := &model.RoundRobinQuery{
			Users: []model.UserEmail{
				{ID: alice.ID, Email: "  Alice@Example.com"},
				alice,
			},
			EventTypeID: eventTypeID,
		}
		_, err := svc.ActiveRoundRobinBookings(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []model.UserEmail{alice}, got.Users)
	})

	t.Run("invalid query never reaches the repository", func(t *testing.T) {
		called := false
		svc := newTestService(&mockBookingRepository{
			roundRobinFunc: func(context.Context, model.RoundRobinQuery) ([]*model.Booking, error) {
				called = true
				return nil, nil
			},
		}, nil)

		_, err := svc.ActiveRoundRobinBookings(context.Background(), &model.RoundRobinQuery{EventTypeID: eventTypeID})
		appErr := requireAppError(t, err, http.StatusUnprocessableEntity)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
		assert.False(t, called)
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{
			roundRobinFunc: func(context.Context, model.RoundRobinQuery) ([]*model.Booking, error) {
				return nil, errors.New("connection reset")
			},
		}, nil)

		_, err := svc.ActiveRoundRobinBookings(context.Background(), &model.RoundRobinQuery{Users: []model.UserEmail{alice}, EventTypeID: eventTypeID})
		requireAppError(t, err, http.StatusInternalServerError)
	})
}

func TestConflictingBookings(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&mockBookingRepository{
		conflictsFunc: func(_ context.Context, q model.ConflictWindowQuery) ([]*model.Booking, error) {
			return []*model.Booking{{UID: "own"}, {UID: "other"}}, nil
		},
	}, nil)

	bookings, err := svc.ConflictingBookings(context.Background(), &model.ConflictWindowQuery{
		Users: []model.UserEmail{alice}, StartDate: start, EndDate: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	_, err = svc.ConflictingBookings(context.Background(), &model.ConflictWindowQuery{
		Users: []model.UserEmail{alice}, StartDate: start, EndDate: start,
	})
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestTeamBookings_RunsCountAndListConcurrently(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := &model.TeamBookingsQuery{
		Users: []model.UserEmail{alice}, TeamID: teamID, StartDate: start, EndDate: start.AddDate(0, 1, 0),
	}

	list := []*model.Booking{{UID: "a"}, {UID: "b"}, {UID: "c"}}
	svc := newTestService(&mockBookingRepository{
		countTeamFunc: func(context.Context, model.TeamBookingsQuery) (int64, error) {
			time.Sleep(10 * time.Millisecond)
			return int64(len(list)), nil
		},
		findTeamFunc: func(context.Context, model.TeamBookingsQuery) ([]*model.Booking, error) {
			time.Sleep(10 * time.Millisecond)
			return list, nil
		},
	}, nil)

	for i := 0; i < 20; i++ {
		bookings, count, err := svc.TeamBookings(context.Background(), q)
		require.NoError(t, err, "iteration %d", i)
		assert.Equal(t, int64(len(bookings)), count, "iteration %d", i)
	}

	count, err := svc.CountTeamBookings(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTeamBookings_CountFailure(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&mockBookingRepository{
		countTeamFunc: func(context.Context, model.TeamBookingsQuery) (int64, error) {
			return 0, errors.New("boom")
		},
	}, nil)

	_, _, err := svc.TeamBookings(context.Background(), &model.TeamBookingsQuery{
		Users: []model.UserEmail{alice}, TeamID: teamID, StartDate: start, EndDate: start.Add(time.Hour),
	})
	requireAppError(t, err, http.StatusInternalServerError)
}

func TestHasAccess(t *testing.T) {
	svc := newTestService(&mockBookingRepository{
		accessFunc: func(_ context.Context, userID, id string) (bool, error) {
			if id == "bad" {
				return false, bookingserrors.ErrInvalidID
			}
			return userID == alice.ID, nil
		},
	}, nil)

	ok, err := svc.HasAccess(context.Background(), alice.ID, bookingID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAccess(context.Background(), "someone-else", bookingID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.HasAccess(context.Background(), "", bookingID)
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.HasAccess(context.Background(), alice.ID, "bad")
	requireAppError(t, err, http.StatusBadRequest)
}

func TestRescheduleLookups(t *testing.T) {
	svc := newTestService(&mockBookingRepository{
		firstRescheduleFunc: func(_ context.Context, uid string) (*model.Booking, error) {
			if uid == "orig" {
				return &model.Booking{UID: "new", FromReschedule: "orig"}, nil
			}
			return nil, nil
		},
		originalFunc: func(_ context.Context, uid string, seats bool) (*model.Booking, error) {
			if seats {
				return &model.Booking{UID: uid, Status: model.StatusRejected}, nil
			}
			return nil, bookingserrors.ErrNotFound
		},
		lastRescheduledFunc: func(_ context.Context, uid string) (*model.RescheduleReference, error) {
			return &model.RescheduleReference{UID: "last", RescheduledBy: "host@example.com"}, nil
		},
	}, nil)
	ctx := context.Background()

	first, err := svc.GetFirstReschedule(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, "new", first.UID)

	none, err := svc.GetFirstReschedule(ctx, "never")
	require.NoError(t, err)
	assert.Nil(t, none)

	original, err := svc.GetOriginalRescheduled(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, "u1", original.UID)

	_, err = svc.GetOriginalRescheduled(ctx, "u1", false)
	requireAppError(t, err, http.StatusNotFound)

	ref, err := svc.GetLastRescheduledBy(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, "host@example.com", ref.RescheduledBy)
}

func TestUpdateLocation(t *testing.T) {
	update := &model.LocationUpdate{
		Location:           "https://meet.example.com/abc",
		ReferencesToCreate: []model.BookingReference{{Type: "daily_video", UID: "room-1"}},
	}
	stored := &model.Booking{ID: bookingID, UID: "booking-uid", Location: update.Location, ICalSequence: 2}

	t.Run("updates and publishes", func(t *testing.T) {
		pub := &mockPublisher{}
		svc := newTestService(&mockBookingRepository{
			findByIDFunc: func(context.Context, string) (*model.Booking, error) { return stored, nil },
		}, pub)

		got, err := svc.UpdateLocation(context.Background(), bookingID, update)
		require.NoError(t, err)
		assert.Equal(t, stored, got)

		require.Len(t, pub.messages, 1)
		msg := pub.messages[0]
		assert.Equal(t, "booking-uid", msg.Key)
		assert.Equal(t, EventLocationUpdated, msg.GetEventType())

		var event LocationUpdatedEvent
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, 1, event.ReferencesAdded)
		assert.Equal(t, 2, event.ICalSequence)
	})

	t.Run("publish failure does not fail the update", func(t *testing.T) {
		pub := &mockPublisher{err: errors.New("broker down")}
		svc := newTestService(&mockBookingRepository{
			findByIDFunc: func(context.Context, string) (*model.Booking, error) { return stored, nil },
		}, pub)

		_, err := svc.UpdateLocation(context.Background(), bookingID, update)
		assert.NoError(t, err)
	})

	t.Run("no publisher configured", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{
			findByIDFunc: func(context.Context, string) (*model.Booking, error) { return stored, nil },
		}, nil)

		_, err := svc.UpdateLocation(context.Background(), bookingID, update)
		assert.NoError(t, err)
	})

	t.Run("missing booking", func(t *testing.T) {
		pub := &mockPublisher{}
		svc := newTestService(&mockBookingRepository{
			updateLocationFunc: func(context.Context, string, *model.LocationUpdate) error {
				return bookingserrors.ErrNotFound
			},
		}, pub)

		_, err := svc.UpdateLocation(context.Background(), bookingID, update)
		requireAppError(t, err, http.StatusNotFound)
		assert.Empty(t, pub.messages)
	})

	t.Run("location is normalized before storage", func(t *testing.T) {
		var stored *model.LocationUpdate
		svc := newTestService(&mockBookingRepository{
			updateLocationFunc: func(_ context.Context, _ string, u *model.LocationUpdate) error {
				stored = u
				return nil
			},
			findByIDFunc: func(context.Context, string) (*model.Booking, error) { return &model.Booking{UID: "booking-uid"}, nil },
		}, nil)

		_, err := svc.UpdateLocation(context.Background(), bookingID, &model.LocationUpdate{Location: "  HTTPS://Meet.Example.com/AbC?utm_source=x "})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "https://meet.example.com/AbC", stored.Location)
	})

	t.Run("invalid update", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{}, nil)
		_, err := svc.UpdateLocation(context.Background(), bookingID, &model.LocationUpdate{})
		requireAppError(t, err, http.StatusUnprocessableEntity)
	})
}
