package notification

import "time"

type Type string

const (
	TypeJourney     Type = "journey"
	TypeAppointment Type = "appointment"
	TypeSystem      Type = "system"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Notification is a message delivered to a patient or staff member. The
// journey engine treats delivery as best-effort; nothing downstream depends
// on a notification having been stored.
type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Type      Type      `json:"type" bson:"type"`
	Priority  Priority  `json:"priority" bson:"priority"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
