package models

import (
	"time"
)

// LearnerStatus represents the follow-up status of a learner.
type LearnerStatus string

const (
	LearnerStatusActive     LearnerStatus = "ACTIVE"
	LearnerStatusAboutToBuy LearnerStatus = "ABOUT_TO_BUY"
	LearnerStatusInactive   LearnerStatus = "INACTIVE"
)

// Learner represents one language learner, owned by exactly one operator
// account. The plan fields (StartDate, TotalAmount, InstallmentCount,
// InstallmentAmount) are only meaningful when HasInstallment is true.
// TotalAmount is in minor currency units; InstallmentAmount is the
// denormalized floor(TotalAmount / InstallmentCount).
type Learner struct {
	ID                uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            uint          `gorm:"column:user_id;not null;index" json:"user_id"`
	User              User          `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Name              string        `gorm:"column:name;not null;size:100;index:idx_learners_user_name,unique,composite:user_id" json:"name"`
	Phone             string        `gorm:"column:phone;size:11" json:"phone"`
	Age               string        `gorm:"column:age;size:20" json:"age"`
	Level             string        `gorm:"column:level;size:50" json:"level"`
	Goal              string        `gorm:"column:goal;size:255" json:"goal"`
	Occupation        string        `gorm:"column:occupation;size:100" json:"occupation"`
	Notes             string        `gorm:"column:notes;type:text" json:"notes"`
	Status            LearnerStatus `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	HasInstallment    bool          `gorm:"column:has_installment;not null;default:false" json:"has_installment"`
	StartDate         *time.Time    `gorm:"column:start_date" json:"start_date,omitempty"`
	TotalAmount       int64         `gorm:"column:total_amount;not null;default:0" json:"total_amount"`
	InstallmentCount  int           `gorm:"column:installment_count;not null;default:0" json:"installment_count"`
	InstallmentAmount int64         `gorm:"column:installment_amount;not null;default:0" json:"installment_amount"`
	Installments      []Installment `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE" json:"-"`
	Reminders         []Reminder    `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE" json:"-"`
	PlanChanges       []PlanChange  `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time     `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Learner) TableName() string {
	return "learners"
}
