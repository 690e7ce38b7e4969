package repository

import (
	"context"
	"fmt"

	"calbook/pkg/config"
	mongodb "calbook/pkg/db/mongo"
	"calbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingsCollection   = "Bookings"
	EventTypesCollection = "Event_types"
	TeamsCollection      = "Teams"
	UsersCollection      = "Users"
)

type RatingsRepository interface {
	RecentRatings(ctx context.Context, scope model.RatingsScope, limit int) ([]model.RatingRow, error)
}

type mongoRatingsRepository struct {
	cfg        *config.Config
	bookings   *mongo.Collection
	eventTypes *mongo.Collection
	teams      *mongo.Collection
}

func NewMongoRatingsRepository(cfg *config.Config) RatingsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRatingsRepository{
		cfg:        cfg,
		bookings:   db.Collection(BookingsCollection),
		eventTypes: db.Collection(EventTypesCollection),
		teams:      db.Collection(TeamsCollection),
	}
}

func (r *mongoRatingsRepository) RecentRatings(ctx context.Context, scope model.RatingsScope, limit int) ([]model.RatingRow, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	eventTypeIDs, err := r.scopeEventTypeIDs(ctx, scope)
	if err != nil {
		return nil, err
	}

	cursor, err := r.bookings.Aggregate(ctx, recentRatingsPipeline(scope, eventTypeIDs, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recent ratings: %w", err)
	}
	defer cursor.Close(ctx)

	rows := make([]model.RatingRow, 0, limit)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode recent ratings: %w", err)
	}

	return rows, nil
}

// scopeEventTypeIDs resolves which event types a team or event type scope
// covers, managed children included. A nil result means the scope is
// personal and filters on the organizer only.
func (r *mongoRatingsRepository) scopeEventTypeIDs(ctx context.Context, scope model.RatingsScope) ([]string, error) {
	switch {
	case scope.EventTypeID != "":
		children, err := r.eventTypeIDs(ctx, bson.M{"parent_id": scope.EventTypeID})
		if err != nil {
			return nil, err
		}
		return append([]string{scope.EventTypeID}, children...), nil

	case scope.TeamID != "":
		teamIDs := []string{scope.TeamID}
		if scope.IsAll {
			subTeams, err := r.subTeamIDs(ctx, scope.TeamID)
			if err != nil {
				return nil, err
			}
			teamIDs = append(teamIDs, subTeams...)
		}

		teamTypes, err := r.eventTypeIDs(ctx, bson.M{"team_id": bson.M{"$in": teamIDs}})
		if err != nil {
			return nil, err
		}
		if len(teamTypes) == 0 {
			return []string{}, nil
		}
		children, err := r.eventTypeIDs(ctx, bson.M{"parent_id": bson.M{"$in": teamTypes}})
		if err != nil {
			return nil, err
		}
		return append(teamTypes, children...), nil

	default:
		return nil, nil
	}
}

func (r *mongoRatingsRepository) subTeamIDs(ctx context.Context, orgID string) ([]string, error) {
	teams, err := mongodb.FindAll[model.Team](ctx, r.teams, bson.M{"parent_id": orgID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find sub-teams: %w", err)
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (r *mongoRatingsRepository) eventTypeIDs(ctx context.Context, filter bson.M) ([]string, error) {
	types, err := mongodb.FindAll[model.EventType](ctx, r.eventTypes, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find event types: %w", err)
	}

	ids := make([]string, 0, len(types))
	for _, et := range types {
		ids = append(ids, et.ID)
	}
	return ids, nil
}

// ratingsMatch selects rated bookings that ended inside the window. With
// eventTypeIDs set the scope is those event types, narrowed to the user when
// one is given; otherwise it is the user's own bookings.
func ratingsMatch(scope model.RatingsScope, eventTypeIDs []string) bson.M {
	match := bson.M{
		"rating":   bson.M{"$type": "number"},
		"end_time": bson.M{"$gte": scope.StartDate, "$lte": scope.EndDate},
	}
	if eventTypeIDs != nil {
		match["event_type_id"] = bson.M{"$in": eventTypeIDs}
	}
	if scope.UserID != "" {
		match["user_id"] = scope.UserID
	}
	return match
}

func recentRatingsPipeline(scope model.RatingsScope, eventTypeIDs []string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ratingsMatch(scope, eventTypeIDs)}},
		{{Key: "$sort", Value: bson.D{{Key: "end_time", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.M{
			"from": UsersCollection,
			"let":  bson.M{"uid": mongodb.HexToObjectID("$user_id")},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$uid"}}}},
				bson.M{"$project": bson.M{"name": 1, "email": 1, "username": 1, "avatar_url": 1}},
			},
			"as": "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"uid":             1,
			"user_id":         1,
			"rating":          1,
			"rating_feedback": 1,
			"end_time":        1,
			"name":            "$user.name",
			"email":           "$user.email",
			"username":        "$user.username",
			"avatar_url":      "$user.avatar_url",
		}}},
	}
}
