package models

import (
	"time"
)

// Reminder is a follow-up note tied to a learner. Lifecycle is three-state:
// open (neither flag), sent (delivered to the operator's Telegram chat) and
// completed. LearnerName is denormalized and resynced on learner rename.
type Reminder struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	LearnerID   uint       `gorm:"column:learner_id;not null;index" json:"learner_id"`
	LearnerName string     `gorm:"column:learner_name;size:100" json:"learner_name"`
	RemindAt    time.Time  `gorm:"column:remind_at;not null;index" json:"remind_at"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	Sent        bool       `gorm:"column:sent;not null;default:false" json:"sent"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Reminder) TableName() string {
	return "reminders"
}
