package model

import "time"

type RoutingFormResponse struct {
	ID            string                   `json:"id,omitempty" bson:"_id,omitempty"`
	FormID        string                   `json:"form_id" bson:"form_id"`
	ChosenRouteID string                   `json:"chosen_route_id" bson:"chosen_route_id"`
	Response      map[string]FieldResponse `json:"response" bson:"response"`
	CreatedAt     time.Time                `json:"created_at" bson:"created_at"`
}

// FieldResponse holds one answered form field. Value is a string for
// single-select fields and an ordered list of option ids for multi-select.
type FieldResponse struct {
	Label string `json:"label" bson:"label"`
	Value any    `json:"value" bson:"value"`
}
