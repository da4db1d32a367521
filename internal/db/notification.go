package db

import "time"

const (
	NotificationTypeTask        = "task"
	NotificationTypeAppointment = "appointment"
	NotificationTypeSystem      = "system"
)

// IsValidNotificationType reports whether value is a known notification type.
func IsValidNotificationType(value string) bool {
	return contains([]string{NotificationTypeTask, NotificationTypeAppointment, NotificationTypeSystem}, value)
}

// Notification 站内通知
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string    `gorm:"index;not null" bson:"user_id" json:"user_id"`
	Message   string    `gorm:"not null" bson:"message" json:"message"`
	Type      string    `bson:"type" json:"type"`
	Read      bool      `gorm:"index" bson:"read" json:"read"`
	CreatedAt time.Time `gorm:"index" bson:"created_at" json:"created_at"`
}
