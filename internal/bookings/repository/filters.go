package repository

import (
	"reflect"
	"time"

	"calbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// overlapping matches bookings that intersect [start, end].
func overlapping(start, end time.Time) bson.M {
	return bson.M{
		"start_time": bson.M{"$lte": end},
		"end_time":   bson.M{"$gte": start},
	}
}

// roundRobinFilter selects accepted bookings of an event type where one of the
// users organizes or attends.
func roundRobinFilter(q model.RoundRobinQuery) bson.M {
	organizer := bson.M{"user_id": bson.M{"$in": model.UserIDs(q.Users)}}
	attendee := bson.M{"email": bson.M{"$in": model.UserEmails(q.Users)}}
	if !q.IncludeNoShow {
		organizer["no_show_host"] = bson.M{"$ne": true}
		attendee["no_show"] = bson.M{"$ne": true}
	}

	filter := bson.M{
		"event_type_id": q.EventTypeID,
		"status":        model.StatusAccepted,
		"$or": bson.A{
			organizer,
			bson.M{"attendees": bson.M{"$elemMatch": attendee}},
		},
	}

	window := bson.M{}
	if q.StartDate != nil {
		window["$gte"] = *q.StartDate
	}
	if q.EndDate != nil {
		window["$lte"] = *q.EndDate
	}
	if len(window) > 0 {
		filter[q.BasisField()] = window
	}

	return filter
}

// roundRobinPipeline joins the routing form response that produced each
// booking and keeps the ones routed through the queue's route.
func roundRobinPipeline(q model.RoundRobinQuery, responseCollection string, toObjectID func(any) bson.M) bson.A {
	return bson.A{
		bson.M{"$match": roundRobinFilter(q)},
		bson.M{"$match": bson.M{"routing_form_response_id": bson.M{"$type": "string"}}},
		bson.M{"$lookup": bson.M{
			"from": responseCollection,
			"let":  bson.M{"rid": toObjectID("$routing_form_response_id")},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$rid"}}}},
			},
			"as": "routed_from",
		}},
		bson.M{"$unwind": "$routed_from"},
		bson.M{"$match": bson.M{"routed_from.chosen_route_id": q.VirtualQueue.ChosenRouteID}},
		bson.M{"$sort": bson.D{{Key: q.BasisField(), Value: 1}}},
	}
}

// matchesQueueResponse compares the stored answer for the queue's field with
// the selected options. A string selection needs an equal scalar answer; a
// list selection needs the same options in the same order.
func matchesQueueResponse(response *model.RoutingFormResponse, data model.FieldOptionData) bool {
	if response == nil {
		return false
	}
	field, ok := response.Response[data.FieldID]
	if !ok {
		return false
	}

	if want, ok := data.SelectedOptionIDs.(string); ok {
		got, ok := field.Value.(string)
		return ok && got == want
	}

	want, ok := stringSlice(data.SelectedOptionIDs)
	if !ok {
		return false
	}
	got, ok := stringSlice(field.Value)
	if !ok {
		return false
	}
	return reflect.DeepEqual(got, want)
}

func stringSlice(v any) ([]string, bool) {
	var items []any
	switch s := v.(type) {
	case []string:
		return s, true
	case primitive.A:
		items = s
	case []any:
		items = s
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, str)
	}
	return out, true
}

func filterByQueueResponse(bookings []*model.Booking, data model.FieldOptionData) []*model.Booking {
	out := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if matchesQueueResponse(b.RoutedFrom, data) {
			out = append(out, b)
		}
	}
	return out
}

func ownerConflictFilter(q model.ConflictWindowQuery) bson.M {
	filter := overlapping(q.StartDate, q.EndDate)
	filter["status"] = model.StatusAccepted
	filter["user_id"] = bson.M{"$in": model.UserIDs(q.Users)}
	return filter
}

func attendeeConflictFilter(q model.ConflictWindowQuery) bson.M {
	filter := overlapping(q.StartDate, q.EndDate)
	filter["status"] = model.StatusAccepted
	filter["attendees.email"] = bson.M{"$in": model.UserEmails(q.Users)}
	return filter
}

func pendingConflictFilter(q model.ConflictWindowQuery) bson.M {
	filter := overlapping(q.StartDate, q.EndDate)
	filter["status"] = model.StatusPending
	filter["event_type_id"] = q.EventTypeID
	return filter
}

// removeOrganizerDuplicates drops attendee matches already returned by the
// organizer read, i.e. bookings organized by one of the queried users.
func removeOrganizerDuplicates(attendeeBookings []*model.Booking, users []model.UserEmail) []*model.Booking {
	organizers := make(map[string]struct{}, len(users))
	for _, u := range users {
		organizers[u.ID] = struct{}{}
	}

	out := make([]*model.Booking, 0, len(attendeeBookings))
	for _, b := range attendeeBookings {
		if b.UserID != nil {
			if _, dup := organizers[*b.UserID]; dup {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func mergeConflictResults(owner, attendee, pending []*model.Booking) []*model.Booking {
	out := make([]*model.Booking, 0, len(owner)+len(attendee)+len(pending))
	out = append(out, owner...)
	out = append(out, attendee...)
	return append(out, pending...)
}

// teamBookingFilters returns one filter per disjoint team booking category:
// owned by the users, attended by the users but organized by someone else,
// and optionally owned by the users under managed child event types.
func teamBookingFilters(q model.TeamBookingsQuery, teamEventTypeIDs, managedChildIDs []string) []bson.M {
	userIDs := model.UserIDs(q.Users)

	base := func() bson.M {
		f := bson.M{
			"status":     model.StatusAccepted,
			"start_time": bson.M{"$gte": q.StartDate},
			"end_time":   bson.M{"$lte": q.EndDate},
		}
		if q.ExcludedUID != "" {
			f["uid"] = bson.M{"$ne": q.ExcludedUID}
		}
		return f
	}

	owned := base()
	owned["event_type_id"] = bson.M{"$in": teamEventTypeIDs}
	owned["user_id"] = bson.M{"$in": userIDs}

	attended := base()
	attended["event_type_id"] = bson.M{"$in": teamEventTypeIDs}
	attended["attendees.email"] = bson.M{"$in": model.UserEmails(q.Users)}
	attended["user_id"] = bson.M{"$nin": userIDs}

	filters := []bson.M{owned, attended}

	if q.IncludeManagedEvents && len(managedChildIDs) > 0 {
		managed := base()
		managed["event_type_id"] = bson.M{"$in": managedChildIDs}
		managed["user_id"] = bson.M{"$in": userIDs}
		filters = append(filters, managed)
	}

	return filters
}

// accessTeamIDs lists the teams whose admins may see a booking of et: the
// event type's team, else its parent template's team, plus that team's
// organization.
func accessTeamIDs(et, parent *model.EventType, team *model.Team) []string {
	var teamID *string
	switch {
	case et != nil && et.TeamID != nil:
		teamID = et.TeamID
	case parent != nil && parent.TeamID != nil:
		teamID = parent.TeamID
	}
	if teamID == nil {
		return nil
	}

	ids := []string{*teamID}
	if team != nil && team.ParentID != nil {
		ids = append(ids, *team.ParentID)
	}
	return ids
}

var reschedulableStatuses = bson.A{model.StatusAccepted, model.StatusCancelled, model.StatusPending}

// originalBookingFilter matches the booking being rescheduled. Seated events
// keep one booking per slot whatever its status, so the status check only
// applies to regular events.
func originalBookingFilter(uid string, seatsEvent bool) bson.M {
	filter := bson.M{"uid": uid}
	if !seatsEvent {
		filter["status"] = bson.M{"$in": reschedulableStatuses}
	}
	return filter
}

func locationUpdateDocument(update *model.LocationUpdate) bson.M {
	set := bson.M{"location": update.Location}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}
	if update.Responses != nil {
		set["responses"] = update.Responses
	}
	if update.ICalSequence != nil {
		set["ical_sequence"] = *update.ICalSequence
	}

	doc := bson.M{"$set": set}
	if len(update.ReferencesToCreate) > 0 {
		doc["$push"] = bson.M{"references": bson.M{"$each": update.ReferencesToCreate}}
	}
	return doc
}
