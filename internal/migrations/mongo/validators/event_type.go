package validators

import "go.mongodb.org/mongo-driver/bson"

var EventTypeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title", "slug"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":   bson.M{"bsonType": "objectId"},
			"title": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 255},
			"slug":  bson.M{"bsonType": "string", "minLength": 1, "maxLength": 255},

			"user_id":   nullableObjectIDHex,
			"team_id":   nullableObjectIDHex,
			"parent_id": nullableObjectIDHex,

			"scheduling_type": bson.M{
				"enum": []any{"ROUND_ROBIN", "COLLECTIVE", "MANAGED", nil},
			},

			"requires_confirmation":                 bson.M{"bsonType": "bool"},
			"requires_confirmation_will_block_slot": bson.M{"bsonType": "bool"},
			"before_event_buffer":                   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			"after_event_buffer":                    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			"seats_per_time_slot":                   bson.M{"bsonType": bson.A{"int", "long", "null"}, "minimum": 1},
		},
	},
}

var RoutingFormResponseValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"form_id", "response", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":             bson.M{"bsonType": "objectId"},
			"form_id":         bson.M{"bsonType": "string"},
			"chosen_route_id": bson.M{"bsonType": "string"},
			"response": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"label": bson.M{"bsonType": "string"},
						"value": bson.M{"bsonType": bson.A{"string", "array", "null"}},
					},
				},
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
