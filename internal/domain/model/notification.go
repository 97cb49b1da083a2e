//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// NotificationKind identifies the event a notification reports.
type NotificationKind string

const (
	NotificationComplaintSubmitted NotificationKind = "complaint_submitted"
	NotificationStatusChanged      NotificationKind = "status_changed"
	NotificationResponseAdded      NotificationKind = "response_added"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID          string           `json:"id"                     db:"id"`
	UserID      string           `json:"user_id"                db:"user_id"`
	ComplaintID *string          `json:"complaint_id,omitempty" db:"complaint_id"`
	Kind        NotificationKind `json:"kind"                   db:"kind"`
	Message     string           `json:"message"                db:"message"`
	ReadAt      *time.Time       `json:"read_at,omitempty"      db:"read_at"`
	CreatedAt   time.Time        `json:"created_at"             db:"created_at"`
}

// CreateNotificationRequest represents parameters to create a Notification.
type CreateNotificationRequest struct {
	UserID      string
	ComplaintID *string
	Kind        NotificationKind
	Message     string
}

// NotificationListOptions controls paging and filtering for a user's notifications.
type NotificationListOptions struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
