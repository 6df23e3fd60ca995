package models

import "time"

// ReminderMark records the last reminder sent for an application. Interval counts reminder
// intervals since ActivityAt; a new action gives the application a new ActivityAt and
// restarts the count.
type ReminderMark struct {
	ApplicationID int       `gorm:"primaryKey;autoIncrement:false;column:application_id" json:"application_id"`
	ActivityAt    time.Time `gorm:"column:activity_at;not null" json:"activity_at"`
	Interval      int       `gorm:"column:interval_no;not null" json:"interval"`
	SentAt        time.Time `gorm:"column:sent_at;not null" json:"sent_at"`
}

// TableName specifies the table for ReminderMark.
func (ReminderMark) TableName() string {
	return "dar_reminder_marks"
}

// Covers reports whether the mark already accounts for the given interval of the same activity.
func (m ReminderMark) Covers(activityAt time.Time, interval int) bool {
	return m.ActivityAt.Equal(activityAt) && m.Interval >= interval
}
