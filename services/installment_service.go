package services

import (
	"errors"
	"strings"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/SaeedKolahi/language-learners-manager/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Listing filters for the upcoming-installments view.
const (
	InstallmentFilterAll      = "all"
	InstallmentFilterPending  = "pending"
	InstallmentFilterOverdue  = "overdue"
	InstallmentFilterWithNote = "with-note"
)

// upcomingWindowDays limits the upcoming view to installments due within
// this many days; overdue ones always show.
const upcomingWindowDays = 30

// RecordPaymentDTO carries one payment record. An empty PaymentDate resets
// the installment to pending.
type RecordPaymentDTO struct {
	PaymentDate string `json:"payment_date"`
	PaymentNote string `json:"payment_note" validate:"omitempty,max=2000"`
}

// ManualTouch is one operator-typed amount, in the order it was typed.
// Amount is not range-checked here: a typed zero is a legal session edit,
// and the session's save-time validation reports non-positive results.
type ManualTouch struct {
	Number int   `json:"number" validate:"required,gt=0"`
	Amount int64 `json:"amount"`
}

// ManualAmountsDTO carries a manual-override save for one learner's unpaid
// installments.
type ManualAmountsDTO struct {
	Touches []ManualTouch `json:"touches" validate:"required,min=1,dive"`
}

// InstallmentRowDTO is a listing row with derived display fields.
type InstallmentRowDTO struct {
	Installment models.Installment `json:"installment"`
	DaysUntil   int                `json:"days_until_due"`
	Overdue     bool               `json:"overdue"`
	DueDisplay  string             `json:"due_display"`
}

// InstallmentService provides payment recording, notes and the manual
// amount override flow.
type InstallmentService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewInstallmentService creates a new InstallmentService.
func NewInstallmentService(db *gorm.DB) *InstallmentService {
	return &InstallmentService{
		db:        db,
		validator: validator.New(),
	}
}

func (s *InstallmentService) getOwned(installmentID, userID uint) (*models.Installment, error) {
	var installment models.Installment
	if err := s.db.First(&installment, installmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("failed to load installment")
	}
	if installment.UserID != userID {
		return nil, ErrForbidden
	}
	return &installment, nil
}

// RecordPayment stores a payment against an installment. The date arrives
// as a Jalali display string; an empty date clears the payment and resets
// the installment to pending.
func (s *InstallmentService) RecordPayment(installmentID, userID uint, dto RecordPaymentDTO) (*models.Installment, error) {
	opStart := time.Now()
	var err error
	defer func() { utils.LogOperation("payment_record", opStart, err) }()

	if err = s.validator.Struct(dto); err != nil {
		return nil, invalidInput("%v", err)
	}

	installment, err := s.getOwned(installmentID, userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(dto.PaymentDate) == "" {
		installment.Status = models.InstallmentStatusPending
		installment.PaymentDate = nil
	} else {
		var paymentDate time.Time
		paymentDate, err = utils.ParseDate(dto.PaymentDate)
		if err != nil {
			return nil, invalidInput("payment date: %v", err)
		}
		installment.Status = models.InstallmentStatusPaid
		installment.PaymentDate = &paymentDate
	}
	installment.PaymentNote = strings.TrimSpace(dto.PaymentNote)

	if err = s.db.Save(installment).Error; err != nil {
		return nil, errors.New("failed to save payment")
	}

	utils.GetMetrics().RecordDomainOp("payment_record", nil)
	return installment, nil
}

// RemovePayment resets a paid installment to pending and clears its
// payment fields. The amount is kept; a later reconciliation may resize it
// again like any other unpaid installment.
func (s *InstallmentService) RemovePayment(installmentID, userID uint) (*models.Installment, error) {
	installment, err := s.getOwned(installmentID, userID)
	if err != nil {
		return nil, err
	}

	installment.Status = models.InstallmentStatusPending
	installment.PaymentDate = nil
	installment.PaymentNote = ""

	if err := s.db.Save(installment).Error; err != nil {
		return nil, errors.New("failed to remove payment")
	}

	utils.GetMetrics().RecordDomainOp("payment_remove", nil)
	return installment, nil
}

// SaveNote stores the free-text note of an installment.
func (s *InstallmentService) SaveNote(installmentID, userID uint, note string) (*models.Installment, error) {
	installment, err := s.getOwned(installmentID, userID)
	if err != nil {
		return nil, err
	}

	installment.InstallmentNote = strings.TrimSpace(note)
	if err := s.db.Save(installment).Error; err != nil {
		return nil, errors.New("failed to save note")
	}
	return installment, nil
}

// SaveManualAmounts replays the operator's typed amounts through an
// override session over the learner's unpaid installments, validates the
// result and writes it row by row.
//
// The writes are independent per-row updates, not a transaction: a partial
// failure leaves the written rows in place and is reported with the
// attempted IDs so the caller can reconcile. On full success the learner's
// summary fields are refreshed from the amounts actually saved.
func (s *InstallmentService) SaveManualAmounts(learnerID, userID uint, dto ManualAmountsDTO) error {
	opStart := time.Now()
	var err error
	defer func() { utils.LogOperation("manual_amounts_save", opStart, err) }()

	if err = s.validator.Struct(dto); err != nil {
		return invalidInput("%v", err)
	}

	var learner models.Learner
	if err = s.db.First(&learner, learnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.New("failed to load learner")
	}
	if learner.UserID != userID {
		return ErrForbidden
	}
	if !learner.HasInstallment {
		return invalidInput("learner has no installment plan")
	}

	var installments []models.Installment
	if err = s.db.Where("learner_id = ?", learnerID).
		Order("installment_number ASC").
		Find(&installments).Error; err != nil {
		return errors.New("failed to load installments")
	}

	var paidSum int64
	var unpaid []models.Installment
	for _, inst := range installments {
		if inst.IsPaid() {
			paidSum += inst.Amount
		} else {
			unpaid = append(unpaid, inst)
		}
	}

	session := NewOverrideSession(learner.TotalAmount, paidSum, unpaid)
	for _, touch := range dto.Touches {
		if err = session.Touch(touch.Number, touch.Amount); err != nil {
			return err
		}
	}
	if err = session.Validate(); err != nil {
		return err
	}

	amounts := session.Amounts()
	attempted := make([]uint, 0, len(amounts))
	var failed []uint
	var firstErr error
	var savedSum int64
	for _, row := range amounts {
		attempted = append(attempted, row.ID)
		updateErr := s.db.Model(&models.Installment{}).
			Where("id = ?", row.ID).
			Update("amount", row.Amount).Error
		if updateErr != nil {
			failed = append(failed, row.ID)
			if firstErr == nil {
				firstErr = updateErr
			}
			continue
		}
		savedSum += row.Amount
	}
	if len(failed) > 0 {
		err = &PartialWriteError{AttemptedIDs: attempted, FailedIDs: failed, First: firstErr}
		return err
	}

	// Refresh the denormalized summary from what was actually written.
	newTotal := paidSum + savedSum
	learner.TotalAmount = newTotal
	if learner.InstallmentCount > 0 {
		learner.InstallmentAmount = newTotal / int64(learner.InstallmentCount)
	}
	if err = s.db.Save(&learner).Error; err != nil {
		return errors.New("failed to refresh learner summary")
	}

	return nil
}

// ListUpcoming returns unpaid installments that are overdue or due within
// the next 30 days, filtered and searched like the back-office view.
func (s *InstallmentService) ListUpcoming(userID uint, filter, search string) ([]InstallmentRowDTO, error) {
	var installments []models.Installment
	if err := s.db.Where("user_id = ? AND status <> ?", userID, models.InstallmentStatusPaid).
		Order("due_date ASC").
		Find(&installments).Error; err != nil {
		return nil, errors.New("failed to load installments")
	}

	now := time.Now()
	search = strings.ToLower(strings.TrimSpace(search))
	var out []InstallmentRowDTO
	for _, inst := range installments {
		days := utils.DaysUntilDue(inst.DueDate, now)
		if days > upcomingWindowDays {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(inst.LearnerName), search) {
			continue
		}

		overdue := days < 0
		switch filter {
		case "", InstallmentFilterAll:
		case InstallmentFilterPending:
			if overdue {
				continue
			}
		case InstallmentFilterOverdue:
			if !overdue {
				continue
			}
		case InstallmentFilterWithNote:
			if inst.InstallmentNote == "" {
				continue
			}
		default:
			return nil, invalidInput("unknown filter %q", filter)
		}

		out = append(out, InstallmentRowDTO{
			Installment: inst,
			DaysUntil:   days,
			Overdue:     overdue,
			DueDisplay:  utils.FormatDatePersian(inst.DueDate),
		})
	}
	return out, nil
}

// ListPaid returns recorded payments, newest payment first.
func (s *InstallmentService) ListPaid(userID uint, search string) ([]InstallmentRowDTO, error) {
	var installments []models.Installment
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.InstallmentStatusPaid).
		Order("payment_date DESC").
		Find(&installments).Error; err != nil {
		return nil, errors.New("failed to load payments")
	}

	search = strings.ToLower(strings.TrimSpace(search))
	var out []InstallmentRowDTO
	for _, inst := range installments {
		if search != "" && !strings.Contains(strings.ToLower(inst.LearnerName), search) {
			continue
		}
		out = append(out, InstallmentRowDTO{
			Installment: inst,
			DueDisplay:  utils.FormatDatePersian(inst.DueDate),
		})
	}
	return out, nil
}
