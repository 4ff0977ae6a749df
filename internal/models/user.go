package models

import "time"

// User represents a user account.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
