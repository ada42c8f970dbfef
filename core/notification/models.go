package notification

import "time"

type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// Notification is an admin-facing event record (new order, question, review).
type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Status    Status    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"` // UTC
}
