package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "calbook/internal/bookings/errors"
	"calbook/pkg/config"
	mongodb "calbook/pkg/db/mongo"
	"calbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const (
	CollectionName                 = "Bookings"
	EventTypesCollection           = "Event_types"
	TeamsCollection                = "Teams"
	MembershipsCollection          = "Memberships"
	RoutingFormResponsesCollection = "Routing_form_responses"

	// maxRescheduleChain bounds GetLastRescheduledBy on corrupt data.
	maxRescheduleChain = 100
)

type mongoBookingRepository struct {
	cfg         *config.Config
	db          *mongo.Database
	collection  *mongo.Collection
	eventTypes  *mongo.Collection
	teams       *mongo.Collection
	memberships *mongo.Collection
}

type BookingRepository interface {
	FindAllBookingsForRoundRobin(ctx context.Context, q model.RoundRobinQuery) ([]*model.Booking, error)
	FindAllExistingBookingsForEventTypeBetween(ctx context.Context, q model.ConflictWindowQuery) ([]*model.Booking, error)
	CountAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) (int64, error)
	FindAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) ([]*model.Booking, error)
	DoesUserIDHaveAccessToBooking(ctx context.Context, userID, bookingID string) (bool, error)
	FindFirstBookingByReschedule(ctx context.Context, originalUID string) (*model.Booking, error)
	FindOriginalRescheduledBooking(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error)
	GetLastRescheduledBy(ctx context.Context, uid string) (*model.RescheduleReference, error)
	UpdateLocationByID(ctx context.Context, id string, update *model.LocationUpdate) error
	FindByUID(ctx context.Context, uid string) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:         cfg,
		db:          db,
		collection:  db.Collection(CollectionName),
		eventTypes:  db.Collection(EventTypesCollection),
		teams:       db.Collection(TeamsCollection),
		memberships: db.Collection(MembershipsCollection),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return mongodb.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*model.Booking, error) {
	return mongodb.FindAll[model.Booking](ctx, r.collection, filter, opts...)
}

func (r *mongoBookingRepository) FindAllBookingsForRoundRobin(ctx context.Context, q model.RoundRobinQuery) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if q.VirtualQueue == nil {
		opts := options.Find().SetSort(bson.D{{Key: q.BasisField(), Value: 1}})
		bookings, err := r.find(ctx, roundRobinFilter(q), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to find round robin bookings: %w", err)
		}
		return bookings, nil
	}

	cursor, err := r.collection.Aggregate(ctx, roundRobinPipeline(q, RoutingFormResponsesCollection, mongodb.HexToObjectID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate round robin bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode round robin bookings: %w", err)
	}

	return filterByQueueResponse(bookings, q.VirtualQueue.FieldOptionData), nil
}

func (r *mongoBookingRepository) FindAllExistingBookingsForEventTypeBetween(ctx context.Context, q model.ConflictWindowQuery) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var owner, attendee, pending []*model.Booking
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		owner, err = r.find(gctx, ownerConflictFilter(q))
		if err != nil {
			return fmt.Errorf("failed to find owned bookings: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		found, err := r.find(gctx, attendeeConflictFilter(q))
		if err != nil {
			return fmt.Errorf("failed to find attended bookings: %w", err)
		}
		attendee = removeOrganizerDuplicates(found, q.Users)
		return nil
	})

	if q.EventTypeID != "" {
		g.Go(func() error {
			et, err := r.findEventType(gctx, q.EventTypeID)
			if err != nil {
				if errors.Is(err, bookingserrors.ErrEventTypeNotFound) {
					return nil
				}
				return err
			}
			if !et.BlocksSlotWhilePending() {
				return nil
			}
			pending, err = r.find(gctx, pendingConflictFilter(q))
			if err != nil {
				return fmt.Errorf("failed to find pending bookings: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeConflictResults(owner, attendee, pending), nil
}

// teamFilters resolves the team's event types and the managed children of
// those types, then builds the category filters.
func (r *mongoBookingRepository) teamFilters(ctx context.Context, q model.TeamBookingsQuery) ([]bson.M, error) {
	teamTypes, err := r.eventTypeIDs(ctx, bson.M{"team_id": q.TeamID})
	if err != nil {
		return nil, fmt.Errorf("failed to find team event types: %w", err)
	}

	var children []string
	if q.IncludeManagedEvents && len(teamTypes) > 0 {
		children, err = r.eventTypeIDs(ctx, bson.M{
			"parent_id": bson.M{"$in": teamTypes},
			"team_id":   bson.M{"$ne": q.TeamID},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to find managed event types: %w", err)
		}
	}

	return teamBookingFilters(q, teamTypes, children), nil
}

func (r *mongoBookingRepository) CountAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filters, err := r.teamFilters(ctx, q)
	if err != nil {
		return 0, err
	}

	counts := make([]int64, len(filters))
	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		g.Go(func() error {
			n, err := r.collection.CountDocuments(gctx, filter)
			if err != nil {
				return fmt.Errorf("failed to count team bookings: %w", err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (r *mongoBookingRepository) FindAcceptedTeamBookingsOfUsers(ctx context.Context, q model.TeamBookingsQuery) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filters, err := r.teamFilters(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([][]*model.Booking, len(filters))
	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		g.Go(func() error {
			found, err := r.find(gctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
			if err != nil {
				return fmt.Errorf("failed to find team bookings: %w", err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bookings := make([]*model.Booking, 0)
	for _, found := range results {
		bookings = append(bookings, found...)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) DoesUserIDHaveAccessToBooking(ctx context.Context, userID, bookingID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	booking, err := r.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if booking.OrganizerOf(userID) {
		return true, nil
	}
	if booking.EventTypeID == nil {
		return false, nil
	}

	et, err := r.findEventType(ctx, *booking.EventTypeID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrEventTypeNotFound) {
			return false, nil
		}
		return false, err
	}

	var parent *model.EventType
	if et.TeamID == nil && et.ParentID != nil {
		parent, err = r.findEventType(ctx, *et.ParentID)
		if err != nil && !errors.Is(err, bookingserrors.ErrEventTypeNotFound) {
			return false, err
		}
	}

	teamIDs := accessTeamIDs(et, parent, nil)
	if len(teamIDs) == 0 {
		return false, nil
	}
	team, err := r.findTeam(ctx, teamIDs[0])
	if err != nil {
		return false, err
	}
	teamIDs = accessTeamIDs(et, parent, team)

	n, err := r.memberships.CountDocuments(ctx, bson.M{
		"user_id":  userID,
		"team_id":  bson.M{"$in": teamIDs},
		"accepted": true,
		"role":     bson.M{"$in": bson.A{model.RoleAdmin, model.RoleOwner}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}

	return n > 0, nil
}

func (r *mongoBookingRepository) FindFirstBookingByReschedule(ctx context.Context, originalUID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"from_reschedule": originalUID}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find rescheduled booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindOriginalRescheduledBooking(ctx context.Context, uid string, seatsEvent bool) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, originalBookingFilter(uid, seatsEvent))
}

// GetLastRescheduledBy follows the reschedule chain starting at uid and
// reports the booking that ended it.
func (r *mongoBookingRepository) GetLastRescheduledBy(ctx context.Context, uid string) (*model.RescheduleReference, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"uid": 1, "rescheduled_by": 1})

	visited := map[string]struct{}{uid: {}}
	var last *model.RescheduleReference
	current := uid

	for range maxRescheduleChain {
		var next model.Booking
		err := r.collection.FindOne(ctx, bson.M{"from_reschedule": current}, opts).Decode(&next)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to follow reschedule chain: %w", err)
		}
		if _, seen := visited[next.UID]; seen {
			break
		}
		visited[next.UID] = struct{}{}
		last = &model.RescheduleReference{UID: next.UID, RescheduledBy: next.RescheduledBy}
		current = next.UID
	}

	return last, nil
}

func (r *mongoBookingRepository) UpdateLocationByID(ctx context.Context, id string, update *model.LocationUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, locationUpdateDocument(update))
	if err != nil {
		return fmt.Errorf("failed to update booking location: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) FindByUID(ctx context.Context, uid string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"uid": uid})
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) findEventType(ctx context.Context, id string) (*model.EventType, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingserrors.ErrEventTypeNotFound
	}

	var et model.EventType
	err = r.eventTypes.FindOne(ctx, bson.M{"_id": objectID}).Decode(&et)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrEventTypeNotFound
		}
		return nil, fmt.Errorf("failed to find event type: %w", err)
	}

	return &et, nil
}

// findTeam returns nil, nil when the team is gone.
func (r *mongoBookingRepository) findTeam(ctx context.Context, id string) (*model.Team, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var team model.Team
	err = r.teams.FindOne(ctx, bson.M{"_id": objectID}).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return &team, nil
}

func (r *mongoBookingRepository) eventTypeIDs(ctx context.Context, filter bson.M) ([]string, error) {
	types, err := mongodb.FindAll[model.EventType](ctx, r.eventTypes, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(types))
	for _, et := range types {
		ids = append(ids, et.ID)
	}
	return ids, nil
}
