package mongo

import (
	"testing"

	bookingsrepo "calbook/internal/bookings/repository"
	insightsrepo "calbook/internal/insights/repository"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections(t *testing.T) {
	defs := Collections()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Indexes, def.Name)
		assert.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}

	assert.Equal(t, []string{
		"Bookings", "Event_types", "Memberships", "Routing_form_responses", "Teams", "Users",
	}, names)
}

// Repositories name collections independently; they must agree with the schema.
func TestCollectionNamesMatchRepositories(t *testing.T) {
	assert.Equal(t, BookingsCollection, bookingsrepo.CollectionName)
	assert.Equal(t, EventTypesCollection, bookingsrepo.EventTypesCollection)
	assert.Equal(t, TeamsCollection, bookingsrepo.TeamsCollection)
	assert.Equal(t, MembershipsCollection, bookingsrepo.MembershipsCollection)
	assert.Equal(t, RoutingFormResponsesCollection, bookingsrepo.RoutingFormResponsesCollection)
	assert.Equal(t, UsersCollection, insightsrepo.UsersCollection)
	assert.Equal(t, BookingsCollection, insightsrepo.BookingsCollection)
}

func TestBookingUIDIsUnique(t *testing.T) {
	first := BookingsIndexes[0]
	assert.Equal(t, bson.D{{Key: "uid", Value: 1}}, first.Keys)
	if assert.NotNil(t, first.Options) && assert.NotNil(t, first.Options.Unique) {
		assert.True(t, *first.Options.Unique)
	}
}
