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

// SaveLearnerDTO carries the fields of a learner create or update. Dates
// cross this boundary as Jalali display strings; amounts are minor units.
type SaveLearnerDTO struct {
	UserID           uint   `json:"-" validate:"required"`
	Name             string `json:"name" validate:"required,min=1,max=100"`
	Phone            string `json:"phone" validate:"omitempty,len=11,numeric"`
	Age              string `json:"age" validate:"omitempty,max=20"`
	Level            string `json:"level" validate:"omitempty,max=50"`
	Goal             string `json:"goal" validate:"omitempty,max=255"`
	Occupation       string `json:"occupation" validate:"omitempty,max=100"`
	Notes            string `json:"notes"`
	Status           string `json:"status" validate:"omitempty,oneof=ACTIVE ABOUT_TO_BUY INACTIVE"`
	HasInstallment   bool   `json:"has_installment"`
	StartDate        string `json:"start_date"`
	TotalAmount      int64  `json:"total_amount"`
	InstallmentCount int    `json:"installment_count"`
}

// LearnerStatsDTO is a listing row with per-plan counters.
type LearnerStatsDTO struct {
	Learner      models.Learner `json:"learner"`
	PaidCount    int            `json:"paid_count"`
	PendingCount int            `json:"pending_count"`
	OverdueCount int            `json:"overdue_count"`
}

// HistoryEntryDTO is one narrated plan adjustment.
type HistoryEntryDTO struct {
	Change models.PlanChange `json:"change"`
	Text   string            `json:"text"`
}

// LearnerService provides learner CRUD and the plan edit flow.
type LearnerService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewLearnerService creates a new LearnerService.
func NewLearnerService(db *gorm.DB) *LearnerService {
	return &LearnerService{
		db:        db,
		validator: validator.New(),
	}
}

// parsePlan validates and parses the plan fields of a DTO.
func (s *LearnerService) parsePlan(dto SaveLearnerDTO) (PlanShape, error) {
	start, err := utils.ParseDate(dto.StartDate)
	if err != nil {
		return PlanShape{}, invalidInput("start date: %v", err)
	}
	if dto.TotalAmount <= 0 {
		return PlanShape{}, invalidInput("total amount must be greater than zero")
	}
	if dto.InstallmentCount <= 0 {
		return PlanShape{}, invalidInput("installment count must be greater than zero")
	}
	return PlanShape{
		Principal: dto.TotalAmount,
		Count:     dto.InstallmentCount,
		PerAmount: dto.TotalAmount / int64(dto.InstallmentCount),
		StartDate: start,
	}, nil
}

func (s *LearnerService) validateDTO(dto SaveLearnerDTO) error {
	if err := s.validator.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, e := range validationErrors {
				switch e.Tag() {
				case "required":
					messages = append(messages, "field "+e.Field()+" is required")
				case "len":
					messages = append(messages, "field "+e.Field()+" must be exactly "+e.Param()+" characters")
				case "numeric":
					messages = append(messages, "field "+e.Field()+" must contain digits only")
				default:
					messages = append(messages, "field "+e.Field()+" is invalid")
				}
			}
			return invalidInput("%s", strings.Join(messages, "; "))
		}
		return invalidInput("%v", err)
	}
	return nil
}

// Create inserts a new learner and, when a plan is declared, generates its
// installment schedule in the same transaction.
func (s *LearnerService) Create(dto SaveLearnerDTO) (*models.Learner, error) {
	start := time.Now()
	var err error
	defer func() { utils.LogOperation("learner_create", start, err) }()

	if err = s.validateDTO(dto); err != nil {
		return nil, err
	}

	learner := &models.Learner{
		UserID:         dto.UserID,
		Name:           dto.Name,
		Phone:          dto.Phone,
		Age:            dto.Age,
		Level:          dto.Level,
		Goal:           dto.Goal,
		Occupation:     dto.Occupation,
		Notes:          dto.Notes,
		Status:         models.LearnerStatus(dto.Status),
		HasInstallment: dto.HasInstallment,
	}
	if learner.Status == "" {
		learner.Status = models.LearnerStatusActive
	}

	var entries []ScheduleEntry
	if dto.HasInstallment {
		var plan PlanShape
		plan, err = s.parsePlan(dto)
		if err != nil {
			return nil, err
		}
		entries, err = GenerateSchedule(plan.Principal, plan.Count, plan.StartDate)
		if err != nil {
			return nil, err
		}
		startDate := plan.StartDate
		learner.StartDate = &startDate
		learner.TotalAmount = plan.Principal
		learner.InstallmentCount = plan.Count
		learner.InstallmentAmount = plan.PerAmount
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		err = errors.New("failed to begin transaction")
		return nil, err
	}

	if err = tx.Create(learner).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("failed to create learner")
	}

	for _, entry := range entries {
		installment := models.Installment{
			UserID:            dto.UserID,
			LearnerID:         learner.ID,
			LearnerName:       learner.Name,
			Phone:             learner.Phone,
			InstallmentNumber: entry.Number,
			TotalInstallments: len(entries),
			Amount:            entry.Amount,
			DueDate:           entry.DueDate,
			Status:            models.InstallmentStatusPending,
		}
		if err = tx.Create(&installment).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("failed to create installment")
		}
	}

	if err = tx.Commit().Error; err != nil {
		return nil, errors.New("failed to commit transaction")
	}

	utils.GetMetrics().RecordDomainOp("learner_create", nil)
	return learner, nil
}

// Update edits a learner. A plan parameter change runs the full edit flow:
// validator, schedule reconciliation, structured history entries and the
// installment batch, all inside one transaction. Paid installment amounts
// are never altered here.
func (s *LearnerService) Update(learnerID, userID uint, dto SaveLearnerDTO) (*models.Learner, error) {
	opStart := time.Now()
	var err error
	defer func() { utils.LogOperation("learner_update", opStart, err) }()

	if err = s.validateDTO(dto); err != nil {
		return nil, err
	}

	var newPlan PlanShape
	if dto.HasInstallment {
		newPlan, err = s.parsePlan(dto)
		if err != nil {
			return nil, err
		}
	}

	learner, err := s.getOwned(s.db, learnerID, userID)
	if err != nil {
		return nil, err
	}

	var existing []models.Installment
	if err = s.db.Where("learner_id = ?", learnerID).
		Order("installment_number ASC").
		Find(&existing).Error; err != nil {
		return nil, errors.New("failed to load installments")
	}

	oldPlan := PlanShape{
		Principal: learner.TotalAmount,
		Count:     learner.InstallmentCount,
		PerAmount: learner.InstallmentAmount,
	}
	if learner.StartDate != nil {
		oldPlan.StartDate = *learner.StartDate
	}

	// Guards run before anything is written; a rejection mutates nothing.
	if len(existing) > 0 {
		if err = ValidatePlanChange(oldPlan, newPlan, dto.HasInstallment, existing); err != nil {
			return nil, err
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		err = errors.New("failed to begin transaction")
		return nil, err
	}

	renamed := learner.Name != dto.Name || learner.Phone != dto.Phone

	learner.Name = dto.Name
	learner.Phone = dto.Phone
	learner.Age = dto.Age
	learner.Level = dto.Level
	learner.Goal = dto.Goal
	learner.Occupation = dto.Occupation
	learner.Notes = dto.Notes
	if dto.Status != "" {
		learner.Status = models.LearnerStatus(dto.Status)
	}
	learner.HasInstallment = dto.HasInstallment

	switch {
	case !dto.HasInstallment:
		// Plan removed. The validator already rejected this when anything
		// was paid, so every installment left is pending.
		if len(existing) > 0 {
			if err = tx.Where("learner_id = ?", learnerID).Delete(&models.Installment{}).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to delete installments")
			}
		}
		learner.StartDate = nil
		learner.TotalAmount = 0
		learner.InstallmentCount = 0
		learner.InstallmentAmount = 0

	case len(existing) == 0:
		// Plan declared on a learner without installments: fresh schedule.
		var entries []ScheduleEntry
		entries, err = GenerateSchedule(newPlan.Principal, newPlan.Count, newPlan.StartDate)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, entry := range entries {
			installment := models.Installment{
				UserID:            userID,
				LearnerID:         learner.ID,
				LearnerName:       dto.Name,
				Phone:             dto.Phone,
				InstallmentNumber: entry.Number,
				TotalInstallments: newPlan.Count,
				Amount:            entry.Amount,
				DueDate:           entry.DueDate,
				Status:            models.InstallmentStatusPending,
			}
			if err = tx.Create(&installment).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to create installment")
			}
		}
		s.applyPlan(learner, newPlan)

	case PlanParamsUnchanged(oldPlan, newPlan):
		// Profile-only edit: count, per-amount and start day are all as they
		// were, so the schedule (manual overrides included) stays untouched.
		s.applyPlan(learner, newPlan)

	default:
		result := ReconcileSchedule(existing, oldPlan, newPlan)

		for i := range result.Retained {
			if err = tx.Save(&result.Retained[i]).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to update installment")
			}
		}
		for _, entry := range result.Added {
			installment := models.Installment{
				UserID:            userID,
				LearnerID:         learner.ID,
				LearnerName:       dto.Name,
				Phone:             dto.Phone,
				InstallmentNumber: entry.Number,
				TotalInstallments: newPlan.Count,
				Amount:            entry.Amount,
				DueDate:           entry.DueDate,
				Status:            models.InstallmentStatusPending,
			}
			if err = tx.Create(&installment).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to create installment")
			}
		}
		if len(result.RemovedIDs) > 0 {
			if err = tx.Where("id IN ?", result.RemovedIDs).Delete(&models.Installment{}).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to delete trimmed installments")
			}
		}
		// History is append-only, newest last.
		for i := range result.Changes {
			result.Changes[i].LearnerID = learner.ID
			if err = tx.Create(&result.Changes[i]).Error; err != nil {
				tx.Rollback()
				return nil, errors.New("failed to record plan change")
			}
		}
		s.applyPlan(learner, newPlan)
		utils.GetMetrics().RecordDomainOp("plan_reconcile", nil)
	}

	if renamed {
		if err = s.resyncDenormalized(tx, learner); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err = tx.Save(learner).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("failed to update learner")
	}

	if err = tx.Commit().Error; err != nil {
		return nil, errors.New("failed to commit transaction")
	}

	return learner, nil
}

func (s *LearnerService) applyPlan(learner *models.Learner, plan PlanShape) {
	startDate := plan.StartDate
	learner.StartDate = &startDate
	learner.TotalAmount = plan.Principal
	learner.InstallmentCount = plan.Count
	learner.InstallmentAmount = plan.PerAmount
}

// resyncDenormalized pushes a renamed learner's name and phone to the
// installment and reminder copies.
func (s *LearnerService) resyncDenormalized(tx *gorm.DB, learner *models.Learner) error {
	if err := tx.Model(&models.Installment{}).
		Where("learner_id = ?", learner.ID).
		Updates(map[string]interface{}{"learner_name": learner.Name, "phone": learner.Phone}).Error; err != nil {
		return errors.New("failed to resync installment names")
	}
	if err := tx.Model(&models.Reminder{}).
		Where("learner_id = ?", learner.ID).
		Update("learner_name", learner.Name).Error; err != nil {
		return errors.New("failed to resync reminder names")
	}
	return nil
}

// Delete removes a learner and cascades to its installments, reminders and
// plan history.
func (s *LearnerService) Delete(learnerID, userID uint) error {
	learner, err := s.getOwned(s.db, learnerID, userID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("failed to begin transaction")
	}

	for _, model := range []interface{}{&models.Installment{}, &models.Reminder{}, &models.PlanChange{}} {
		if err := tx.Where("learner_id = ?", learner.ID).Delete(model).Error; err != nil {
			tx.Rollback()
			return errors.New("failed to delete learner records")
		}
	}
	if err := tx.Delete(learner).Error; err != nil {
		tx.Rollback()
		return errors.New("failed to delete learner")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New("failed to commit transaction")
	}

	utils.GetMetrics().RecordDomainOp("learner_delete", nil)
	return nil
}

// GetByID returns one learner owned by userID.
func (s *LearnerService) GetByID(learnerID, userID uint) (*models.Learner, error) {
	return s.getOwned(s.db, learnerID, userID)
}

func (s *LearnerService) getOwned(db *gorm.DB, learnerID, userID uint) (*models.Learner, error) {
	var learner models.Learner
	if err := db.First(&learner, learnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("failed to load learner")
	}
	if learner.UserID != userID {
		return nil, ErrForbidden
	}
	return &learner, nil
}

// List returns the user's learners, newest first, with per-plan payment
// counters. search filters by name, case-insensitively.
func (s *LearnerService) List(userID uint, search string) ([]LearnerStatsDTO, error) {
	var learners []models.Learner
	query := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := query.Find(&learners).Error; err != nil {
		return nil, errors.New("failed to load learners")
	}

	var installments []models.Installment
	if err := s.db.Where("user_id = ?", userID).Find(&installments).Error; err != nil {
		return nil, errors.New("failed to load installments")
	}

	byLearner := make(map[uint][]models.Installment)
	for _, inst := range installments {
		byLearner[inst.LearnerID] = append(byLearner[inst.LearnerID], inst)
	}

	now := time.Now()
	out := make([]LearnerStatsDTO, 0, len(learners))
	for _, learner := range learners {
		row := LearnerStatsDTO{Learner: learner}
		if learner.HasInstallment {
			for _, inst := range byLearner[learner.ID] {
				switch {
				case inst.IsPaid():
					row.PaidCount++
				case utils.DaysUntilDue(inst.DueDate, now) < 0:
					row.OverdueCount++
				default:
					row.PendingCount++
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// History returns the learner's plan adjustment history, oldest first,
// with narrated text alongside the structured entries.
func (s *LearnerService) History(learnerID, userID uint) ([]HistoryEntryDTO, error) {
	if _, err := s.getOwned(s.db, learnerID, userID); err != nil {
		return nil, err
	}

	var changes []models.PlanChange
	if err := s.db.Where("learner_id = ?", learnerID).
		Order("created_at ASC, id ASC").
		Find(&changes).Error; err != nil {
		return nil, errors.New("failed to load plan history")
	}

	out := make([]HistoryEntryDTO, len(changes))
	for i, change := range changes {
		out[i] = HistoryEntryDTO{Change: change, Text: NarratePlanChange(change)}
	}
	return out, nil
}
