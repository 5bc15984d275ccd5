package services

import (
	"fmt"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/SaeedKolahi/language-learners-manager/utils"
)

// History narration. Plan changes are stored as structured rows; these
// templates turn them into prose at the presentation boundary. Template
// selection mirrors the conditions the reconciler and validator already
// evaluate; there is no other branching here.

// NarratePlanChange renders one history entry.
func NarratePlanChange(pc models.PlanChange) string {
	switch pc.Kind {
	case models.PlanChangeStartDate:
		return fmt.Sprintf("Plan start date changed from %s to %s; due dates recalculated.",
			narrateDate(pc.OldStartDate), narrateDate(pc.NewStartDate))
	case models.PlanChangeAmounts:
		return narrateAmounts(pc)
	default:
		return ""
	}
}

func narrateAmounts(pc models.PlanChange) string {
	head := fmt.Sprintf("Plan changed from %d installments of %s to %d installments of %s.",
		pc.OldCount, utils.FormatAmount(pc.OldPerAmount),
		pc.NewCount, utils.FormatAmount(pc.NewPerAmount))

	switch {
	case pc.Adjustment > 0:
		return head + fmt.Sprintf(" The %d paid installments fall short of the new plan by %s; the shortfall was spread over the remaining installments.",
			pc.PaidCount, utils.FormatAmount(pc.Adjustment))
	case pc.Adjustment < 0:
		return head + fmt.Sprintf(" The %d paid installments exceed the new plan by %s; the surplus was refunded through reduced remaining installments.",
			pc.PaidCount, utils.FormatAmount(-pc.Adjustment))
	default:
		return head + fmt.Sprintf(" The %d paid installments match the new plan exactly; remaining installments were left at the new amount.",
			pc.PaidCount)
	}
}

// Guard-rail notes for the validator rejections that have fixed templates.
// ValidatePlanChange wraps these verbatim so the rejection a caller sees is
// the same prose a history reader would.
const (
	noteCountBelowPaid    = "the installment count cannot drop below the number of installments already paid"
	noteFullyPaidNoResize = "a fully paid plan cannot be resized"
	notePaidCountReached  = "all installment slots are consumed by paid installments while a balance remains uncollectable"
)

func narrateDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return utils.FormatDatePersian(*t)
}
