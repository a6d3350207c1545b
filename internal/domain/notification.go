package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationKindWarning = "warning"
	NotificationKindSuccess = "success"
	NotificationKindInfo    = "info"
)

// Notification is an in-app feed entry persisted alongside push dispatch.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Kind      string    `json:"kind" db:"kind"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PushMessage is the payload handed to the external push-messaging collaborator.
// LoanID travels as correlation metadata, not as part of the notification body.
type PushMessage struct {
	Title  string
	Body   string
	Token  string
	LoanID uuid.UUID
}
