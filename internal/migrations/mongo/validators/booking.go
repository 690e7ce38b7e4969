package validators

import "go.mongodb.org/mongo-driver/bson"

var objectIDHex = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var nullableObjectIDHex = bson.M{
	"bsonType":  bson.A{"string", "null"},
	"minLength": 24,
	"maxLength": 24,
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"uid",
			"title",
			"status",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"uid": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 255,
			},

			"user_id":       nullableObjectIDHex,
			"event_type_id": nullableObjectIDHex,

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"enum": []string{"PENDING", "ACCEPTED", "CANCELLED", "REJECTED"},
			},

			"start_time": bson.M{"bsonType": "date"},
			"end_time":   bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 2048,
			},

			"ical_sequence": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  0,
			},

			"attendees": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"email"},
					"properties": bson.M{
						"name":         bson.M{"bsonType": "string"},
						"email":        bson.M{"bsonType": "string"},
						"phone_number": bson.M{"bsonType": "string"},
						"no_show":      bson.M{"bsonType": "bool"},
					},
				},
			},

			"no_show_host":             bson.M{"bsonType": "bool"},
			"from_reschedule":          bson.M{"bsonType": "string"},
			"rescheduled":              bson.M{"bsonType": "bool"},
			"rescheduled_by":           bson.M{"bsonType": "string"},
			"routing_form_response_id": nullableObjectIDHex,

			"references": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"type", "uid"},
				},
			},

			"rating": bson.M{
				"bsonType": bson.A{"int", "long", "null"},
				"minimum":  1,
				"maximum":  5,
			},

			"rating_feedback": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},
		},
	},
}
