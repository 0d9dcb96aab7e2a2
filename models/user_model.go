package models

import "time"

// ProfilePics is the set of avatar assets the mobile client can render.
// Signup picks one at random; unknown values fall back to blue on the client.
var ProfilePics = []string{
	"profile_blue.png",
	"profile_green.png",
	"profile_orange.png",
	"profile_purple.png",
}

type User struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	PublicID       string    `json:"public_id" bson:"public_id"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password_hash"`
	ProfilePic     string    `json:"profile_pic" bson:"profile_pic"`
	Friends        []string  `json:"friends" bson:"friends"`
	FriendRequests []string  `json:"friend_requests" bson:"friend_requests"`
	SentRequests   []string  `json:"sent_requests" bson:"sent_requests"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// UserSummary is the public projection returned by search and friend listings.
type UserSummary struct {
	PublicID   string `json:"public_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		PublicID:   u.PublicID,
		Name:       u.Name,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
	}
}
