package validators

import "go.mongodb.org/mongo-driver/bson"

var TeamValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "slug"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":       bson.M{"bsonType": "objectId"},
			"name":      bson.M{"bsonType": "string", "minLength": 1, "maxLength": 255},
			"slug":      bson.M{"bsonType": "string", "minLength": 1, "maxLength": 255},
			"parent_id": nullableObjectIDHex,
		},
	},
}

var MembershipValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"team_id", "user_id", "role", "accepted"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"team_id":  objectIDHex,
			"user_id":  objectIDHex,
			"role":     bson.M{"enum": []string{"MEMBER", "ADMIN", "OWNER"}},
			"accepted": bson.M{"bsonType": "bool"},
		},
	},
}

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"email"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"name":       bson.M{"bsonType": "string", "maxLength": 255},
			"email":      bson.M{"bsonType": "string", "minLength": 3, "maxLength": 320},
			"username":   bson.M{"bsonType": "string", "maxLength": 255},
			"avatar_url": bson.M{"bsonType": "string"},
		},
	},
}
