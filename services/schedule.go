package services

import (
	"sort"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/models"
)

// The installment schedule engine. Everything in this file is pure: it
// computes over in-memory snapshots and never touches the database. Amounts
// are integer minor currency units throughout.

// dueDateCadenceDays is the fixed spacing between installments. Due dates
// are day offsets from the plan start date, not calendar months.
const dueDateCadenceDays = 30

// PlanShape describes a plan's parameters.
type PlanShape struct {
	Principal int64
	Count     int
	PerAmount int64
	StartDate time.Time
}

// ScheduleEntry is one generated installment before persistence.
type ScheduleEntry struct {
	Number  int
	Amount  int64
	DueDate time.Time
}

// DueDate returns the due date of installment number n under the fixed
// cadence.
func DueDate(start time.Time, n int) time.Time {
	return start.AddDate(0, 0, dueDateCadenceDays*(n-1))
}

// floorDiv divides a by b rounding toward negative infinity, so that the
// remainder a-floorDiv(a,b)*b is always in [0, b).
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// GenerateSchedule produces a fresh amortized schedule: count installments,
// each floor(principal/count), due every 30 days from start.
//
// The integer-division remainder is deliberately not distributed here: a
// fresh schedule can total up to count-1 minor units below the principal.
// The reconciler's adjustment math is written against this baseline, so the
// two must change together or not at all.
func GenerateSchedule(principal int64, count int, start time.Time) ([]ScheduleEntry, error) {
	if principal <= 0 {
		return nil, invalidInput("total amount must be greater than zero")
	}
	if count <= 0 {
		return nil, invalidInput("installment count must be greater than zero")
	}
	if start.IsZero() {
		return nil, invalidInput("start date is required")
	}

	amount := principal / int64(count)
	entries := make([]ScheduleEntry, count)
	for i := 1; i <= count; i++ {
		entries[i-1] = ScheduleEntry{
			Number:  i,
			Amount:  amount,
			DueDate: DueDate(start, i),
		}
	}
	return entries, nil
}

// partitionByStatus splits a schedule into paid and unpaid entries, each
// sorted by ascending installment number.
func partitionByStatus(existing []models.Installment) (paid, unpaid []models.Installment) {
	for _, inst := range existing {
		if inst.IsPaid() {
			paid = append(paid, inst)
		} else {
			unpaid = append(unpaid, inst)
		}
	}
	byNumber := func(s []models.Installment) {
		sort.Slice(s, func(i, j int) bool { return s[i].InstallmentNumber < s[j].InstallmentNumber })
	}
	byNumber(paid)
	byNumber(unpaid)
	return paid, unpaid
}

func sumAmounts(installments []models.Installment) int64 {
	var sum int64
	for _, inst := range installments {
		sum += inst.Amount
	}
	return sum
}

// ValidatePlanChange guards a plan mutation while installments already
// exist. hasPlanAfter is false when the edit removes the plan entirely.
// Each rejection is a distinct ErrPlanLocked reason; nothing may be
// mutated once one is returned. All-or-nothing: the first failing guard
// short-circuits.
func ValidatePlanChange(oldPlan, newPlan PlanShape, hasPlanAfter bool, existing []models.Installment) error {
	paid, _ := partitionByStatus(existing)
	paidCount := len(paid)
	paidSum := sumAmounts(paid)

	if !hasPlanAfter {
		if paidCount > 0 {
			return planLocked("cannot remove a plan that already has paid installments")
		}
		return nil
	}

	if newPlan.Principal <= 0 || newPlan.Count <= 0 {
		return invalidInput("total amount and installment count must be greater than zero")
	}

	newPer := newPlan.Principal / int64(newPlan.Count)
	newTotal := int64(newPlan.Count) * newPer

	if paidCount > 0 && newPlan.Principal != oldPlan.Principal && newTotal < paidSum {
		return planLocked("new total amount does not cover the payments already collected")
	}
	if newPlan.Principal < paidSum {
		return planLocked("total amount cannot be less than the sum of paid installments")
	}
	if (newPlan.Count != oldPlan.Count || newPer != oldPlan.PerAmount) && newTotal < paidSum {
		return planLocked("new schedule total is less than the sum of paid installments")
	}
	if newPlan.Count < paidCount {
		return planLocked(noteCountBelowPaid)
	}
	if newPlan.Count == paidCount && paidSum < newPlan.Principal {
		return planLocked(notePaidCountReached)
	}
	if paidCount >= oldPlan.Count && newPlan.Count != oldPlan.Count {
		return planLocked(noteFullyPaidNoResize)
	}

	return nil
}

// ReconcileResult is the outcome of re-amortizing an existing schedule
// under new plan parameters.
type ReconcileResult struct {
	// Retained holds every kept installment (paid and unpaid) with updated
	// amount, due date and total count. Paid amounts are never altered.
	Retained []models.Installment
	// Added holds brand-new installments appended beyond the old maximum
	// number. IDs are zero.
	Added []ScheduleEntry
	// RemovedIDs are unpaid installments whose number exceeds the new count.
	RemovedIDs []uint
	// Changes holds zero, one or two structured history entries (amounts
	// change and/or start-date change), in that order.
	Changes []models.PlanChange
}

// ReconcileSchedule re-amortizes existing installments under newPlan.
// Validation must have passed already (callers run ValidatePlanChange
// first); this function assumes the change is admissible.
//
// The adjustment is the difference between what the new plan expects for
// the already-paid count and what was actually collected. It is spread
// evenly over the remaining installments, with the division remainder
// assigned in full to the first remaining installment by ascending number.
func ReconcileSchedule(existing []models.Installment, oldPlan, newPlan PlanShape) *ReconcileResult {
	if PlanParamsUnchanged(oldPlan, newPlan) {
		// Nothing to re-amortize: every installment keeps its current amount,
		// manually overridden ones included.
		result := &ReconcileResult{}
		result.Retained = append(result.Retained, existing...)
		return result
	}

	paid, unpaid := partitionByStatus(existing)
	paidCount := len(paid)
	paidSum := sumAmounts(paid)

	newPer := newPlan.Principal / int64(newPlan.Count)
	adjustment := int64(paidCount)*newPer - paidSum
	remainingCount := newPlan.Count - paidCount
	if remainingCount < 0 {
		remainingCount = 0
	}

	var perExtra, remainder int64
	if remainingCount > 0 {
		perExtra = floorDiv(adjustment, int64(remainingCount))
		remainder = adjustment - perExtra*int64(remainingCount)
	}

	oldMax := 0
	for _, inst := range existing {
		if inst.InstallmentNumber > oldMax {
			oldMax = inst.InstallmentNumber
		}
	}

	result := &ReconcileResult{}

	// Paid installments keep their amount; only due date and the
	// denormalized count move with the new plan.
	for _, inst := range paid {
		inst.DueDate = DueDate(newPlan.StartDate, inst.InstallmentNumber)
		inst.TotalInstallments = newPlan.Count
		result.Retained = append(result.Retained, inst)
	}

	firstRemaining := true
	for _, inst := range unpaid {
		if inst.InstallmentNumber > newPlan.Count {
			result.RemovedIDs = append(result.RemovedIDs, inst.ID)
			continue
		}
		inst.Amount = newPer + perExtra
		if firstRemaining {
			inst.Amount += remainder
			firstRemaining = false
		}
		inst.DueDate = DueDate(newPlan.StartDate, inst.InstallmentNumber)
		inst.TotalInstallments = newPlan.Count
		result.Retained = append(result.Retained, inst)
	}

	for n := oldMax + 1; n <= newPlan.Count; n++ {
		amount := newPer + perExtra
		if firstRemaining {
			amount += remainder
			firstRemaining = false
		}
		result.Added = append(result.Added, ScheduleEntry{
			Number:  n,
			Amount:  amount,
			DueDate: DueDate(newPlan.StartDate, n),
		})
	}

	now := time.Now()
	if newPlan.Count != oldPlan.Count || newPer != oldPlan.PerAmount {
		oldStart := oldPlan.StartDate
		newStart := newPlan.StartDate
		result.Changes = append(result.Changes, models.PlanChange{
			Kind:         models.PlanChangeAmounts,
			OldCount:     oldPlan.Count,
			NewCount:     newPlan.Count,
			OldPerAmount: oldPlan.PerAmount,
			NewPerAmount: newPer,
			Adjustment:   adjustment,
			PaidCount:    paidCount,
			OldStartDate: &oldStart,
			NewStartDate: &newStart,
			CreatedAt:    now,
		})
	}
	if !sameDay(oldPlan.StartDate, newPlan.StartDate) {
		oldStart := oldPlan.StartDate
		newStart := newPlan.StartDate
		result.Changes = append(result.Changes, models.PlanChange{
			Kind:         models.PlanChangeStartDate,
			OldCount:     oldPlan.Count,
			NewCount:     newPlan.Count,
			OldPerAmount: oldPlan.PerAmount,
			NewPerAmount: newPer,
			PaidCount:    paidCount,
			OldStartDate: &oldStart,
			NewStartDate: &newStart,
			CreatedAt:    now,
		})
	}

	return result
}

// PlanParamsUnchanged reports whether a plan edit leaves the installment
// count, the per-installment amount and the start day all as they were.
// Such an edit must not touch the schedule: it would otherwise flatten
// manually overridden amounts back to the even split.
func PlanParamsUnchanged(oldPlan, newPlan PlanShape) bool {
	newPer := newPlan.Principal / int64(newPlan.Count)
	return newPlan.Count == oldPlan.Count &&
		newPer == oldPlan.PerAmount &&
		sameDay(oldPlan.StartDate, newPlan.StartDate)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
