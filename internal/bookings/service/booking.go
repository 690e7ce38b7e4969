package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "calbook/internal/bookings/errors"
	"calbook/internal/bookings/repository"
	"calbook/internal/bookings/validator"
	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/kafka"
	"calbook/pkg/logger"
	"calbook/pkg/middleware"
	"calbook/pkg/model"
	"calbook/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const (
	EventLocationUpdated = "booking.location_updated"
	eventSource          = "bookings"
	eventSchemaVersion   = "1"
)

type BookingService interface {
	ActiveRoundRobinBookings(ctx context.Context, q *model.RoundRobinQuery) ([]*model.Booking, error)
	ConflictingBookings(ctx context.Context, q *model.ConflictWindowQuery) ([]*model.Booking, error)
	TeamBookings(ctx context.Context, q *model.TeamBookingsQuery) ([]*model.Booking, int64, error)
	CountTeamBookings(ctx context.Context, q *model.TeamBookingsQuery) (int64, error)
	HasAccess(ctx context.Context, userID, bookingID string) (bool, error)
	GetByUID(ctx context.Context, uid string) (*model.Booking, error)
	GetFirstReschedule(ctx context.Context, originalUID string) (*model.Booking, error)
	GetOriginalRescheduled(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error)
	GetLastRescheduledBy(ctx context.Context, uid string) (*model.RescheduleReference, error)
	UpdateLocation(ctx context.Context, id string, update *model.LocationUpdate) (*model.Booking, error)
}

// LocationUpdatedEvent is published after a booking's location changed.
type LocationUpdatedEvent struct {
	BookingID       string    `json:"booking_id"`
	UID             string    `json:"uid"`
	Location        string    `json:"location"`
	ICalSequence    int       `json:"ical_sequence"`
	ReferencesAdded int       `json:"references_added"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	publisher kafka.Publisher
	cfg       *config.Config
}

// NewBookingService wires the service. publisher may be nil, in which case no
// events are emitted.
func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	publisher kafka.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *bookingService) ActiveRoundRobinBookings(ctx context.Context, q *model.RoundRobinQuery) ([]*model.Booking, error) {
	if q != nil {
		q.Users = sanitizer.NormalizeUsers(q.Users)
	}
	if err := s.validate(s.validator.ValidateRoundRobin(q)); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindAllBookingsForRoundRobin(ctx, *q)
	if err != nil {
		s.log(ctx).Error("Failed to find round robin bookings", "event_type_id", q.EventTypeID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve round robin bookings", err)
	}

	return bookings, nil
}

func (s *bookingService) ConflictingBookings(ctx context.Context, q *model.ConflictWindowQuery) ([]*model.Booking, error) {
	if q != nil {
		q.Users = sanitizer.NormalizeUsers(q.Users)
	}
	if err := s.validate(s.validator.ValidateConflictWindow(q)); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindAllExistingBookingsForEventTypeBetween(ctx, *q)
	if err != nil {
		s.log(ctx).Error("Failed to find conflicting bookings",
			"start_date", q.StartDate,
			"end_date", q.EndDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve existing bookings", err)
	}

	return bookings, nil
}

func (s *bookingService) TeamBookings(ctx context.Context, q *model.TeamBookingsQuery) ([]*model.Booking, int64, error) {
	if q != nil {
		q.Users = sanitizer.NormalizeUsers(q.Users)
	}
	if err := s.validate(s.validator.ValidateTeamBookings(q)); err != nil {
		return nil, 0, err
	}

	var count int64
	var bookings []*model.Booking
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		count, err = s.repo.CountAcceptedTeamBookingsOfUsers(gctx, *q)
		if err != nil {
			s.log(ctx).Error("Failed to count team bookings", "team_id", q.TeamID, "error", err)
			return apperrors.Internal("Failed to count team bookings", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindAcceptedTeamBookingsOfUsers(gctx, *q)
		if err != nil {
			s.log(ctx).Error("Failed to list team bookings", "team_id", q.TeamID, "error", err)
			return apperrors.Internal("Failed to retrieve team bookings", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return bookings, count, nil
}

func (s *bookingService) CountTeamBookings(ctx context.Context, q *model.TeamBookingsQuery) (int64, error) {
	if q != nil {
		q.Users = sanitizer.NormalizeUsers(q.Users)
	}
	if err := s.validate(s.validator.ValidateTeamBookings(q)); err != nil {
		return 0, err
	}

	count, err := s.repo.CountAcceptedTeamBookingsOfUsers(ctx, *q)
	if err != nil {
		s.log(ctx).Error("Failed to count team bookings", "team_id", q.TeamID, "error", err)
		return 0, apperrors.Internal("Failed to count team bookings", err)
	}

	return count, nil
}

func (s *bookingService) HasAccess(ctx context.Context, userID, bookingID string) (bool, error) {
	if userID == "" {
		return false, apperrors.InvalidInput("user_id is required")
	}
	if bookingID == "" {
		return false, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	ok, err := s.repo.DoesUserIDHaveAccessToBooking(ctx, userID, bookingID)
	if err != nil {
		return false, s.mapError(ctx, err, bookingID, "Failed to check booking access")
	}

	return ok, nil
}

func (s *bookingService) GetByUID(ctx context.Context, uid string) (*model.Booking, error) {
	if uid == "" {
		return nil, apperrors.InvalidInput("Booking UID cannot be empty")
	}

	booking, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, s.mapError(ctx, err, uid, "Failed to retrieve booking")
	}

	return booking, nil
}

// GetFirstReschedule returns nil when the booking was never rescheduled.
func (s *bookingService) GetFirstReschedule(ctx context.Context, originalUID string) (*model.Booking, error) {
	if originalUID == "" {
		return nil, apperrors.InvalidInput("Booking UID cannot be empty")
	}

	booking, err := s.repo.FindFirstBookingByReschedule(ctx, originalUID)
	if err != nil {
		return nil, s.mapError(ctx, err, originalUID, "Failed to retrieve rescheduled booking")
	}

	return booking, nil
}

func (s *bookingService) GetOriginalRescheduled(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error) {
	if uid == "" {
		return nil, apperrors.InvalidInput("Booking UID cannot be empty")
	}

	booking, err := s.repo.FindOriginalRescheduledBooking(ctx, uid, seatsEvent)
	if err != nil {
		return nil, s.mapError(ctx, err, uid, "Failed to retrieve original booking")
	}

	return booking, nil
}

func (s *bookingService) GetLastRescheduledBy(ctx context.Context, uid string) (*model.RescheduleReference, error) {
	if uid == "" {
		return nil, apperrors.InvalidInput("Booking UID cannot be empty")
	}

	ref, err := s.repo.GetLastRescheduledBy(ctx, uid)
	if err != nil {
		return nil, s.mapError(ctx, err, uid, "Failed to follow reschedule chain")
	}

	return ref, nil
}

func (s *bookingService) UpdateLocation(ctx context.Context, id string, update *model.LocationUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	sanitizer.NormalizeLocationUpdate(update)
	if err := s.validate(s.validator.ValidateLocationUpdate(update)); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLocationByID(ctx, id, update); err != nil {
		return nil, s.mapError(ctx, err, id, "Failed to update booking location")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, err, id, "Failed to retrieve booking")
	}

	s.log(ctx).Info("Booking location updated",
		"id", id,
		"uid", booking.UID,
		"references_added", len(update.ReferencesToCreate),
	)

	s.publishLocationUpdated(ctx, booking, len(update.ReferencesToCreate))

	return booking, nil
}

// publishLocationUpdated never fails the caller; the update already happened.
func (s *bookingService) publishLocationUpdated(ctx context.Context, b *model.Booking, referencesAdded int) {
	if s.publisher == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(b.UID).
		WithEventType(EventLocationUpdated).
		WithSource(eventSource).
		WithSchemaVersion(eventSchemaVersion).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithValue(LocationUpdatedEvent{
			BookingID:       b.ID,
			UID:             b.UID,
			Location:        b.Location,
			ICalSequence:    b.ICalSequence,
			ReferencesAdded: referencesAdded,
			UpdatedAt:       time.Now().UTC(),
		}).
		Build()
	if err != nil {
		s.log(ctx).Error("Failed to build booking event", "uid", b.UID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log(ctx).Warn("Failed to publish booking event",
			"event_type", EventLocationUpdated,
			"uid", b.UID,
			"error", err,
		)
	}
}

func (s *bookingService) validate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(verrs.Error(), verrs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}

func (s *bookingService) mapError(ctx context.Context, err error, id, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		s.log(ctx).Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}
