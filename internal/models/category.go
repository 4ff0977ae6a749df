package models

// Category is a label owned by exactly one user.
type Category struct {
	ID     string `json:"id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	UserID string `json:"user" bson:"user"`
}
