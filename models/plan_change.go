package models

import (
	"time"
)

// PlanChangeKind classifies one plan adjustment history entry.
type PlanChangeKind string

const (
	// PlanChangeAmounts records a change of installment count and/or
	// per-installment amount together with the computed adjustment.
	PlanChangeAmounts PlanChangeKind = "AMOUNTS"
	// PlanChangeStartDate records a change of the plan start date.
	PlanChangeStartDate PlanChangeKind = "START_DATE"
)

// PlanChange is one structured, append-only entry of a learner's plan
// adjustment history. Entries carry the raw numbers; prose is rendered
// from them only at the presentation boundary.
type PlanChange struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID    uint           `gorm:"column:learner_id;not null;index" json:"learner_id"`
	Kind         PlanChangeKind `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	OldCount     int            `gorm:"column:old_count" json:"old_count"`
	NewCount     int            `gorm:"column:new_count" json:"new_count"`
	OldPerAmount int64          `gorm:"column:old_per_amount" json:"old_per_amount"`
	NewPerAmount int64          `gorm:"column:new_per_amount" json:"new_per_amount"`
	// Adjustment is the signed difference between what the new plan expects
	// for the already-paid count and what was actually collected. Positive
	// means a shortfall spread over the remaining installments, negative a
	// surplus refunded through them.
	Adjustment   int64      `gorm:"column:adjustment" json:"adjustment"`
	PaidCount    int        `gorm:"column:paid_count" json:"paid_count"`
	OldStartDate *time.Time `gorm:"column:old_start_date" json:"old_start_date,omitempty"`
	NewStartDate *time.Time `gorm:"column:new_start_date" json:"new_start_date,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PlanChange) TableName() string {
	return "plan_changes"
}
