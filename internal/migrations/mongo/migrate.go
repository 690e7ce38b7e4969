package mongo

import (
	"context"
	"fmt"
	"sort"

	"calbook/internal/migrations/mongo/validators"
	"calbook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingsCollection             = "Bookings"
	EventTypesCollection           = "Event_types"
	TeamsCollection                = "Teams"
	MembershipsCollection          = "Memberships"
	UsersCollection                = "Users"
	RoutingFormResponsesCollection = "Routing_form_responses"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		// round robin and team queries
		{Keys: bson.D{
			{Key: "event_type_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "attendees.email", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "from_reschedule", Value: 1}, {Key: "created_at", Value: 1}}},
		// recent ratings
		{
			Keys:    bson.D{{Key: "event_type_id", Value: 1}, {Key: "end_time", Value: -1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"rating": bson.M{"$type": "number"}}),
		},
	}

	EventTypesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "team_id", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "slug", Value: 1}}},
	}

	TeamsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}, {Key: "parent_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	MembershipsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "team_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "role", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	RoutingFormResponsesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "form_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "chosen_route_id", Value: 1}}},
	}
)

type CollectionDefinition struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every managed collection, sorted by name.
func Collections() []CollectionDefinition {
	defs := []CollectionDefinition{
		{Name: BookingsCollection, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: EventTypesCollection, Indexes: EventTypesIndexes, Validator: validators.EventTypeValidator},
		{Name: TeamsCollection, Indexes: TeamsIndexes, Validator: validators.TeamValidator},
		{Name: MembershipsCollection, Indexes: MembershipsIndexes, Validator: validators.MembershipValidator},
		{Name: UsersCollection, Indexes: UsersIndexes, Validator: validators.UserValidator},
		{Name: RoutingFormResponsesCollection, Indexes: RoutingFormResponsesIndexes, Validator: validators.RoutingFormResponseValidator},
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	created, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", len(created))
	return nil
}
