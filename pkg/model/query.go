package model

import "time"

const (
	BasisCreatedAt = "CREATED_AT"
	BasisStartTime = "START_TIME"
)

// FieldOptionData is the answer a virtual queue routes on. SelectedOptionIDs
// holds a string for single-select fields and a []string for multi-select.
type FieldOptionData struct {
	FieldID           string `json:"field_id" validate:"required"`
	SelectedOptionIDs any    `json:"selected_option_ids" validate:"required,option_ids"`
}

type VirtualQueueData struct {
	ChosenRouteID   string          `json:"chosen_route_id" validate:"required"`
	FieldOptionData FieldOptionData `json:"field_option_data"`
}

type RoundRobinQuery struct {
	Users          []UserEmail       `json:"users" validate:"required,min=1,max=500,dive"`
	EventTypeID    string            `json:"event_type_id" validate:"required,mongodb"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	VirtualQueue   *VirtualQueueData `json:"virtual_queue,omitempty"`
	IncludeNoShow  bool              `json:"include_no_show"`
	TimestampBasis string            `json:"timestamp_basis,omitempty" validate:"omitempty,oneof=CREATED_AT START_TIME"`
}

// BasisField returns the document field the time window applies to.
func (q *RoundRobinQuery) BasisField() string {
	if q.TimestampBasis == BasisStartTime {
		return "start_time"
	}
	return "created_at"
}

type ConflictWindowQuery struct {
	Users       []UserEmail `json:"users" validate:"required,min=1,max=500,dive"`
	StartDate   time.Time   `json:"start_date" validate:"required"`
	EndDate     time.Time   `json:"end_date" validate:"required,gtfield=StartDate"`
	EventTypeID string      `json:"event_type_id,omitempty" validate:"omitempty,mongodb"`
}

type TeamBookingsQuery struct {
	Users                []UserEmail `json:"users" validate:"required,min=1,max=500,dive"`
	TeamID               string      `json:"team_id" validate:"required,mongodb"`
	StartDate            time.Time   `json:"start_date" validate:"required"`
	EndDate              time.Time   `json:"end_date" validate:"required,gtfield=StartDate"`
	ExcludedUID          string      `json:"excluded_uid,omitempty"`
	IncludeManagedEvents bool        `json:"include_managed_events"`
}

// RescheduleReference points at the booking that ended a reschedule chain.
type RescheduleReference struct {
	UID           string `json:"uid"`
	RescheduledBy string `json:"rescheduled_by,omitempty"`
}

func UserIDs(users []UserEmail) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func UserEmails(users []UserEmail) []string {
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return emails
}
