package model

import (
	"net/url"
	"time"
)

// RatingRow is one line of the recent ratings table.
type RatingRow struct {
	BookingUID string    `json:"booking_uid" bson:"uid"`
	UserID     string    `json:"user_id" bson:"user_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Username   string    `json:"username,omitempty" bson:"username,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Rating     int       `json:"rating" bson:"rating"`
	Feedback   string    `json:"feedback" bson:"rating_feedback"`
	EndedAt    time.Time `json:"ended_at" bson:"end_time"`
}

// RatingsScope selects the bookings whose ratings are reported. EventTypeID
// narrows TeamID; UserID alone selects personal bookings. IsAll widens a team
// to every sub-team of an organization.
type RatingsScope struct {
	TeamID      string    `json:"team_id,omitempty" validate:"omitempty,mongodb"`
	UserID      string    `json:"user_id,omitempty" validate:"omitempty,mongodb"`
	EventTypeID string    `json:"event_type_id,omitempty" validate:"omitempty,mongodb"`
	IsAll       bool      `json:"is_all"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// Query encodes the scope as URL query parameters. Encoding is canonical, so
// it doubles as a cache key.
func (s RatingsScope) Query() url.Values {
	q := url.Values{}
	if s.TeamID != "" {
		q.Set("team_id", s.TeamID)
	}
	if s.UserID != "" {
		q.Set("user_id", s.UserID)
	}
	if s.EventTypeID != "" {
		q.Set("event_type_id", s.EventTypeID)
	}
	if s.IsAll {
		q.Set("is_all", "true")
	}
	q.Set("start_date", s.StartDate.UTC().Format(time.RFC3339))
	q.Set("end_date", s.EndDate.UTC().Format(time.RFC3339))
	return q
}

func (s RatingsScope) CacheKey() string {
	return s.Query().Encode()
}
