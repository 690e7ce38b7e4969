package model

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
	RoleOwner  = "OWNER"
)

type Team struct {
	ID       string  `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string  `json:"name" bson:"name"`
	Slug     string  `json:"slug" bson:"slug"`
	ParentID *string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
}

type Membership struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	TeamID   string `json:"team_id" bson:"team_id"`
	UserID   string `json:"user_id" bson:"user_id"`
	Role     string `json:"role" bson:"role"`
	Accepted bool   `json:"accepted" bson:"accepted"`
}

type User struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string `json:"name" bson:"name"`
	Email     string `json:"email" bson:"email"`
	Username  string `json:"username,omitempty" bson:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
}

// UserEmail pairs a user id with the email they attend bookings under.
type UserEmail struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}
