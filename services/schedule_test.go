package services

import (
	"errors"
	"testing"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/models"
)

var testStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// makeSchedule builds an in-memory schedule with the first paidCount
// installments marked paid.
func makeSchedule(principal int64, count, paidCount int) []models.Installment {
	per := principal / int64(count)
	installments := make([]models.Installment, count)
	for i := 1; i <= count; i++ {
		inst := models.Installment{
			ID:                uint(i),
			InstallmentNumber: i,
			TotalInstallments: count,
			Amount:            per,
			DueDate:           DueDate(testStart, i),
			Status:            models.InstallmentStatusPending,
		}
		if i <= paidCount {
			inst.Status = models.InstallmentStatusPaid
			paymentDate := inst.DueDate
			inst.PaymentDate = &paymentDate
		}
		installments[i-1] = inst
	}
	return installments
}

func sumSchedule(retained []models.Installment, added []ScheduleEntry) int64 {
	var sum int64
	for _, inst := range retained {
		sum += inst.Amount
	}
	for _, entry := range added {
		sum += entry.Amount
	}
	return sum
}

func TestGenerateSchedule(t *testing.T) {
	entries, err := GenerateSchedule(1_000_000, 10, testStart)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Number != i+1 {
			t.Errorf("entry %d has number %d, want %d", i, entry.Number, i+1)
		}
		if entry.Amount != 100_000 {
			t.Errorf("entry %d has amount %d, want 100000", i, entry.Amount)
		}
		wantDue := testStart.AddDate(0, 0, 30*i)
		if !entry.DueDate.Equal(wantDue) {
			t.Errorf("entry %d due %v, want %v", i, entry.DueDate, wantDue)
		}
	}
}

func TestGenerateScheduleKeepsDivisionRemainder(t *testing.T) {
	// 1000 over 3 gives 333 each; the 1-unit remainder stays undistributed.
	entries, err := GenerateSchedule(1000, 3, testStart)
	if err != nil {
		t.Fatal(err)
	}

	var total int64
	for _, entry := range entries {
		if entry.Amount != 333 {
			t.Errorf("amount %d, want 333", entry.Amount)
		}
		total += entry.Amount
	}
	if total != 999 {
		t.Errorf("schedule total %d, want 999", total)
	}
}

func TestGenerateScheduleRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name      string
		principal int64
		count     int
		start     time.Time
	}{
		{"zero principal", 0, 5, testStart},
		{"negative principal", -100, 5, testStart},
		{"zero count", 1000, 0, testStart},
		{"negative count", 1000, -1, testStart},
		{"zero start", 1000, 5, time.Time{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := GenerateSchedule(tc.principal, tc.count, tc.start); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{60_000, 7, 8571},
		{6, 3, 2},
		{7, 2, 3},
		{-7, 2, -4},
		{-6, 3, -2},
		{-1, 7, -1},
		{0, 5, 0},
	}

	for _, tc := range cases {
		if got := floorDiv(tc.a, tc.b); got != tc.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}

	for _, tc := range cases {
		// The matching remainder must fall in [0, b).
		r := tc.a - floorDiv(tc.a, tc.b)*tc.b
		if r < 0 || r >= tc.b {
			t.Errorf("remainder of %d/%d is %d, out of [0, %d)", tc.a, tc.b, r, tc.b)
		}
	}
}

func TestReconcileScheduleShortfallSpread(t *testing.T) {
	// 10 installments of 100,000, three paid. The principal grows to
	// 1,200,000, so the 60,000 shortfall on the paid portion spreads over the
	// seven remaining: 8,571 each plus a 3-unit remainder on the first.
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 1_200_000, Count: 10, PerAmount: 120_000, StartDate: testStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)

	if len(result.Retained) != 10 || len(result.Added) != 0 || len(result.RemovedIDs) != 0 {
		t.Fatalf("retained %d, added %d, removed %d; want 10/0/0",
			len(result.Retained), len(result.Added), len(result.RemovedIDs))
	}

	for _, inst := range result.Retained {
		switch {
		case inst.InstallmentNumber <= 3:
			if inst.Amount != 100_000 {
				t.Errorf("paid #%d amount %d, want 100000 (paid amounts are immutable)",
					inst.InstallmentNumber, inst.Amount)
			}
		case inst.InstallmentNumber == 4:
			if inst.Amount != 128_574 {
				t.Errorf("first unpaid amount %d, want 128574", inst.Amount)
			}
		default:
			if inst.Amount != 128_571 {
				t.Errorf("unpaid #%d amount %d, want 128571", inst.InstallmentNumber, inst.Amount)
			}
		}
	}

	if total := sumSchedule(result.Retained, result.Added); total != 1_200_000 {
		t.Errorf("schedule total %d, want 1200000 exactly", total)
	}

	if len(result.Changes) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(result.Changes))
	}
	change := result.Changes[0]
	if change.Kind != models.PlanChangeAmounts {
		t.Errorf("change kind %q, want %q", change.Kind, models.PlanChangeAmounts)
	}
	if change.Adjustment != 60_000 {
		t.Errorf("adjustment %d, want 60000", change.Adjustment)
	}
	if change.PaidCount != 3 {
		t.Errorf("paid count %d, want 3", change.PaidCount)
	}
}

func TestReconcileScheduleSurplusRefund(t *testing.T) {
	// Principal shrinks; the paid installments now exceed the new plan, and
	// the negative adjustment is floored toward minus infinity so the
	// remainder on the first remaining installment stays non-negative.
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 900_000, Count: 10, PerAmount: 90_000, StartDate: testStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)

	// adjustment = 3*90,000 - 300,000 = -30,000 over 7 remaining:
	// floor(-30000/7) = -4286, remainder 2.
	for _, inst := range result.Retained {
		switch {
		case inst.InstallmentNumber <= 3:
			if inst.Amount != 100_000 {
				t.Errorf("paid #%d amount %d, want 100000", inst.InstallmentNumber, inst.Amount)
			}
		case inst.InstallmentNumber == 4:
			if inst.Amount != 85_716 {
				t.Errorf("first unpaid amount %d, want 85716", inst.Amount)
			}
		default:
			if inst.Amount != 85_714 {
				t.Errorf("unpaid #%d amount %d, want 85714", inst.InstallmentNumber, inst.Amount)
			}
		}
	}

	if total := sumSchedule(result.Retained, result.Added); total != 900_000 {
		t.Errorf("schedule total %d, want 900000 exactly", total)
	}
	if len(result.Changes) != 1 || result.Changes[0].Adjustment != -30_000 {
		t.Fatalf("expected one change with adjustment -30000, got %+v", result.Changes)
	}
}

func TestReconcileScheduleZeroPaidMatchesFreshGeneration(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 0)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 700_000, Count: 10, PerAmount: 70_000, StartDate: testStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)
	fresh, err := GenerateSchedule(newPlan.Principal, newPlan.Count, newPlan.StartDate)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Retained) != len(fresh) {
		t.Fatalf("retained %d entries, fresh generation has %d", len(result.Retained), len(fresh))
	}
	for i, inst := range result.Retained {
		if inst.Amount != fresh[i].Amount {
			t.Errorf("#%d amount %d, fresh generation gives %d", inst.InstallmentNumber, inst.Amount, fresh[i].Amount)
		}
		if !inst.DueDate.Equal(fresh[i].DueDate) {
			t.Errorf("#%d due %v, fresh generation gives %v", inst.InstallmentNumber, inst.DueDate, fresh[i].DueDate)
		}
	}
}

func TestReconcileScheduleNoChangeIsSilent(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 3)
	plan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}

	result := ReconcileSchedule(existing, plan, plan)

	if len(result.Changes) != 0 {
		t.Errorf("expected no history entries, got %d", len(result.Changes))
	}
	for i, inst := range result.Retained {
		if inst.Amount != existing[i].Amount {
			t.Errorf("#%d amount changed from %d to %d", inst.InstallmentNumber, existing[i].Amount, inst.Amount)
		}
	}
}

func TestReconcileScheduleNoChangeKeepsManualAmounts(t *testing.T) {
	// Two paid of 100,000 and three unpaid amounts typed through a manual
	// override session: 150,000 / 75,000 / 75,000 (total exactly 500,000).
	// An edit that leaves count, per-amount and start date alone must not
	// re-amortize them back to the even split.
	existing := makeSchedule(500_000, 5, 2)
	existing[2].Amount = 150_000
	existing[3].Amount = 75_000
	existing[4].Amount = 75_000
	plan := PlanShape{Principal: 500_000, Count: 5, PerAmount: 100_000, StartDate: testStart}

	result := ReconcileSchedule(existing, plan, plan)

	if len(result.Added) != 0 || len(result.RemovedIDs) != 0 || len(result.Changes) != 0 {
		t.Fatalf("no-op reconcile produced added %d, removed %d, changes %d",
			len(result.Added), len(result.RemovedIDs), len(result.Changes))
	}
	if len(result.Retained) != len(existing) {
		t.Fatalf("retained %d installments, want %d", len(result.Retained), len(existing))
	}
	for i, inst := range result.Retained {
		if inst.Amount != existing[i].Amount {
			t.Errorf("installment #%d amount changed from %d to %d",
				inst.InstallmentNumber, existing[i].Amount, inst.Amount)
		}
	}
}

func TestPlanParamsUnchanged(t *testing.T) {
	plan := PlanShape{Principal: 500_000, Count: 5, PerAmount: 100_000, StartDate: testStart}

	if !PlanParamsUnchanged(plan, plan) {
		t.Error("identical plans should count as unchanged")
	}
	if PlanParamsUnchanged(plan, PlanShape{Principal: 600_000, Count: 5, PerAmount: 120_000, StartDate: testStart}) {
		t.Error("per-amount change should count as changed")
	}
	if PlanParamsUnchanged(plan, PlanShape{Principal: 500_000, Count: 10, PerAmount: 50_000, StartDate: testStart}) {
		t.Error("count change should count as changed")
	}
	if PlanParamsUnchanged(plan, PlanShape{Principal: 500_000, Count: 5, PerAmount: 100_000, StartDate: testStart.AddDate(0, 0, 1)}) {
		t.Error("start-date change should count as changed")
	}
}

func TestReconcileScheduleCountShrinkRemovesTrailing(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 1_000_000, Count: 8, PerAmount: 125_000, StartDate: testStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)

	if len(result.RemovedIDs) != 2 {
		t.Fatalf("removed %d installments, want 2", len(result.RemovedIDs))
	}
	// Installments 9 and 10 carry IDs 9 and 10 in the fixture.
	if result.RemovedIDs[0] != 9 || result.RemovedIDs[1] != 10 {
		t.Errorf("removed IDs %v, want [9 10]", result.RemovedIDs)
	}
	if len(result.Retained) != 8 {
		t.Errorf("retained %d installments, want 8", len(result.Retained))
	}
	if total := sumSchedule(result.Retained, result.Added); total != 1_000_000 {
		t.Errorf("schedule total %d, want 1000000", total)
	}
}

func TestReconcileScheduleCountGrowthAppends(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 1_200_000, Count: 12, PerAmount: 100_000, StartDate: testStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)

	if len(result.Added) != 2 {
		t.Fatalf("added %d installments, want 2", len(result.Added))
	}
	if result.Added[0].Number != 11 || result.Added[1].Number != 12 {
		t.Errorf("added numbers %d and %d, want 11 and 12", result.Added[0].Number, result.Added[1].Number)
	}
	wantDue := testStart.AddDate(0, 0, 30*10)
	if !result.Added[0].DueDate.Equal(wantDue) {
		t.Errorf("added #11 due %v, want %v", result.Added[0].DueDate, wantDue)
	}
	if total := sumSchedule(result.Retained, result.Added); total != 1_200_000 {
		t.Errorf("schedule total %d, want 1200000", total)
	}
}

func TestReconcileScheduleStartDateChange(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newStart := testStart.AddDate(0, 0, 15)
	newPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: newStart}

	result := ReconcileSchedule(existing, oldPlan, newPlan)

	if len(result.Changes) != 1 || result.Changes[0].Kind != models.PlanChangeStartDate {
		t.Fatalf("expected a single start-date history entry, got %+v", result.Changes)
	}
	for _, inst := range result.Retained {
		wantDue := newStart.AddDate(0, 0, 30*(inst.InstallmentNumber-1))
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("#%d due %v, want %v", inst.InstallmentNumber, inst.DueDate, wantDue)
		}
	}
}

func TestValidatePlanChangeRejections(t *testing.T) {
	cases := []struct {
		name         string
		existing     []models.Installment
		oldPlan      PlanShape
		newPlan      PlanShape
		hasPlanAfter bool
		wantKind     error
	}{
		{
			name:         "remove plan with paid installments",
			existing:     makeSchedule(1_000_000, 10, 3),
			oldPlan:      PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{},
			hasPlanAfter: false,
			wantKind:     ErrPlanLocked,
		},
		{
			name:         "non-positive new principal",
			existing:     makeSchedule(1_000_000, 10, 3),
			oldPlan:      PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{Principal: 0, Count: 10, StartDate: testStart},
			hasPlanAfter: true,
			wantKind:     ErrInvalidInput,
		},
		{
			name:         "principal below paid sum",
			existing:     makeSchedule(1_000_000, 10, 3),
			oldPlan:      PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{Principal: 200_000, Count: 10, PerAmount: 20_000, StartDate: testStart},
			hasPlanAfter: true,
			wantKind:     ErrPlanLocked,
		},
		{
			name:         "count below paid count",
			existing:     makeSchedule(1_000_000, 10, 3),
			oldPlan:      PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{Principal: 1_000_000, Count: 2, PerAmount: 500_000, StartDate: testStart},
			hasPlanAfter: true,
			wantKind:     ErrPlanLocked,
		},
		{
			name:         "count equals paid count with balance left",
			existing:     makeSchedule(1_000_000, 10, 3),
			oldPlan:      PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{Principal: 1_000_000, Count: 3, PerAmount: 333_333, StartDate: testStart},
			hasPlanAfter: true,
			wantKind:     ErrPlanLocked,
		},
		{
			name:         "fully paid plan resized",
			existing:     makeSchedule(300_000, 3, 3),
			oldPlan:      PlanShape{Principal: 300_000, Count: 3, PerAmount: 100_000, StartDate: testStart},
			newPlan:      PlanShape{Principal: 400_000, Count: 4, PerAmount: 100_000, StartDate: testStart},
			hasPlanAfter: true,
			wantKind:     ErrPlanLocked,
		},
	}

	seen := make(map[string]string)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := make([]int64, len(tc.existing))
			for i, inst := range tc.existing {
				before[i] = inst.Amount
			}

			err := ValidatePlanChange(tc.oldPlan, tc.newPlan, tc.hasPlanAfter, tc.existing)
			if !errors.Is(err, tc.wantKind) {
				t.Fatalf("got %v, want kind %v", err, tc.wantKind)
			}

			// Each rejection carries a distinct message.
			if prev, dup := seen[err.Error()]; dup {
				t.Errorf("message %q already produced by case %q", err.Error(), prev)
			}
			seen[err.Error()] = tc.name

			// A rejection mutates nothing.
			for i, inst := range tc.existing {
				if inst.Amount != before[i] {
					t.Errorf("installment #%d amount changed during validation", inst.InstallmentNumber)
				}
			}
		})
	}
}

func TestValidatePlanChangeAccepts(t *testing.T) {
	existing := makeSchedule(1_000_000, 10, 3)
	oldPlan := PlanShape{Principal: 1_000_000, Count: 10, PerAmount: 100_000, StartDate: testStart}
	newPlan := PlanShape{Principal: 1_200_000, Count: 10, PerAmount: 120_000, StartDate: testStart}

	if err := ValidatePlanChange(oldPlan, newPlan, true, existing); err != nil {
		t.Errorf("admissible change rejected: %v", err)
	}

	// Removing a plan with no payments is allowed.
	if err := ValidatePlanChange(oldPlan, PlanShape{}, false, makeSchedule(1_000_000, 10, 0)); err != nil {
		t.Errorf("plan removal without payments rejected: %v", err)
	}
}
