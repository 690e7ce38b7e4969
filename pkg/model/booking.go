package model

import (
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusCancelled = "CANCELLED"
	StatusRejected  = "REJECTED"
)

type Booking struct {
	ID                    string             `json:"id,omitempty" bson:"_id,omitempty"`
	UID                   string             `json:"uid" bson:"uid"`
	UserID                *string            `json:"user_id,omitempty" bson:"user_id,omitempty"`
	EventTypeID           *string            `json:"event_type_id,omitempty" bson:"event_type_id,omitempty"`
	Title                 string             `json:"title" bson:"title"`
	Status                string             `json:"status" bson:"status"`
	StartTime             time.Time          `json:"start_time" bson:"start_time"`
	EndTime               time.Time          `json:"end_time" bson:"end_time"`
	CreatedAt             time.Time          `json:"created_at" bson:"created_at"`
	Location              string             `json:"location,omitempty" bson:"location,omitempty"`
	Metadata              map[string]any     `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Responses             map[string]any     `json:"responses,omitempty" bson:"responses,omitempty"`
	ICalSequence          int                `json:"ical_sequence" bson:"ical_sequence"`
	Attendees             []Attendee         `json:"attendees" bson:"attendees"`
	NoShowHost            bool               `json:"no_show_host" bson:"no_show_host"`
	FromReschedule        string             `json:"from_reschedule,omitempty" bson:"from_reschedule,omitempty"`
	Rescheduled           bool               `json:"rescheduled" bson:"rescheduled"`
	RescheduledBy         string             `json:"rescheduled_by,omitempty" bson:"rescheduled_by,omitempty"`
	RoutingFormResponseID *string            `json:"routing_form_response_id,omitempty" bson:"routing_form_response_id,omitempty"`
	References            []BookingReference `json:"references,omitempty" bson:"references,omitempty"`
	Rating                *int               `json:"rating,omitempty" bson:"rating,omitempty"`
	RatingFeedback        string             `json:"rating_feedback,omitempty" bson:"rating_feedback,omitempty"`

	// RoutedFrom is only populated by queue-routing queries.
	RoutedFrom *RoutingFormResponse `json:"routed_from,omitempty" bson:"routed_from,omitempty"`
}

type Attendee struct {
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	PhoneNumber string `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	NoShow      bool   `json:"no_show" bson:"no_show"`
}

type BookingReference struct {
	Type               string `json:"type" bson:"type" validate:"required,max=64"`
	UID                string `json:"uid" bson:"uid" validate:"required,max=255"`
	MeetingID          string `json:"meeting_id,omitempty" bson:"meeting_id,omitempty"`
	MeetingURL         string `json:"meeting_url,omitempty" bson:"meeting_url,omitempty" validate:"omitempty,url"`
	ExternalCalendarID string `json:"external_calendar_id,omitempty" bson:"external_calendar_id,omitempty"`
	CredentialID       string `json:"credential_id,omitempty" bson:"credential_id,omitempty"`
}

// LocationUpdate is the narrow write applied when a booking's meeting location changes.
type LocationUpdate struct {
	Location           string             `json:"location" validate:"required,max=2048"`
	Metadata           map[string]any     `json:"metadata,omitempty"`
	Responses          map[string]any     `json:"responses,omitempty"`
	ICalSequence       *int               `json:"ical_sequence,omitempty" validate:"omitempty,min=0"`
	ReferencesToCreate []BookingReference `json:"references_to_create,omitempty" validate:"omitempty,max=50,dive"`
}

// OrganizerOf reports whether userID organizes the booking.
func (b *Booking) OrganizerOf(userID string) bool {
	return b.UserID != nil && *b.UserID == userID
}

func (b *Booking) HasAttendee(email string) bool {
	for _, a := range b.Attendees {
		if a.Email == email {
			return true
		}
	}
	return false
}
