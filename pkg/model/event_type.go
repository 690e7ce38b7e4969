package model

const (
	SchedulingRoundRobin = "ROUND_ROBIN"
	SchedulingCollective = "COLLECTIVE"
	SchedulingManaged    = "MANAGED"
)

type EventType struct {
	ID                                string  `json:"id,omitempty" bson:"_id,omitempty"`
	Title                             string  `json:"title" bson:"title"`
	Slug                              string  `json:"slug" bson:"slug"`
	UserID                            *string `json:"user_id,omitempty" bson:"user_id,omitempty"`
	TeamID                            *string `json:"team_id,omitempty" bson:"team_id,omitempty"`
	ParentID                          *string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	SchedulingType                    string  `json:"scheduling_type,omitempty" bson:"scheduling_type,omitempty"`
	RequiresConfirmation              bool    `json:"requires_confirmation" bson:"requires_confirmation"`
	RequiresConfirmationWillBlockSlot bool    `json:"requires_confirmation_will_block_slot" bson:"requires_confirmation_will_block_slot"`
	BeforeEventBuffer                 int     `json:"before_event_buffer" bson:"before_event_buffer"`
	AfterEventBuffer                  int     `json:"after_event_buffer" bson:"after_event_buffer"`
	SeatsPerTimeSlot                  *int    `json:"seats_per_time_slot,omitempty" bson:"seats_per_time_slot,omitempty"`
}

// BlocksSlotWhilePending reports whether unconfirmed bookings of this event type
// must be treated as busy time.
func (e *EventType) BlocksSlotWhilePending() bool {
	return e.RequiresConfirmation && e.RequiresConfirmationWillBlockSlot
}
