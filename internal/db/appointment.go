package db

import "time"

// Appointment 约会/日程，Reminder 仅作标记
type Appointment struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string    `gorm:"index;not null" bson:"user_id" json:"user_id"`
	Title     string    `gorm:"not null" bson:"title" json:"title"`
	Location  string    `bson:"location" json:"location"`
	Date      time.Time `gorm:"index" bson:"date" json:"date"`
	Reminder  bool      `bson:"reminder" json:"reminder"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
