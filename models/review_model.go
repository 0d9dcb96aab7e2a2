package models

import "time"

type Review struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	CafeID    string    `json:"cafe_id" bson:"cafe_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Username  string    `json:"username" bson:"username"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
