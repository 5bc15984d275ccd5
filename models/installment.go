package models

import (
	"time"
)

// InstallmentStatus represents the payment state of one installment.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING" // not yet paid
	InstallmentStatusPaid    InstallmentStatus = "PAID"    // payment recorded
)

// Installment is one row of a learner's payment schedule. Numbers are
// 1-based and contiguous within a learner. LearnerName and Phone are
// denormalized for history views and resynced when the learner is renamed.
// Amount is in minor currency units; DueDate follows a fixed 30-day cadence
// from the plan start date.
type Installment struct {
	ID                uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            uint              `gorm:"column:user_id;not null;index" json:"user_id"`
	LearnerID         uint              `gorm:"column:learner_id;not null;index" json:"learner_id"`
	LearnerName       string            `gorm:"column:learner_name;size:100" json:"learner_name"`
	Phone             string            `gorm:"column:phone;size:11" json:"phone"`
	InstallmentNumber int               `gorm:"column:installment_number;not null" json:"installment_number"`
	TotalInstallments int               `gorm:"column:total_installments;not null" json:"total_installments"`
	Amount            int64             `gorm:"column:amount;not null" json:"amount"`
	DueDate           time.Time         `gorm:"column:due_date;not null;index" json:"due_date"`
	Status            InstallmentStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentDate       *time.Time        `gorm:"column:payment_date" json:"payment_date,omitempty"`
	PaymentNote       string            `gorm:"column:payment_note;type:text" json:"payment_note"`
	InstallmentNote   string            `gorm:"column:installment_note;type:text" json:"installment_note"`
	CreatedAt         time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Installment) TableName() string {
	return "installments"
}

// IsPaid reports whether a payment has been recorded for this installment.
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}
