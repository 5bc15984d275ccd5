package services

import (
	"errors"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/SaeedKolahi/language-learners-manager/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Listing filters for the reminders view.
const (
	ReminderFilterAll       = "all"
	ReminderFilterToday     = "today"
	ReminderFilterCompleted = "completed"
)

// SaveReminderDTO carries a reminder create or reschedule.
type SaveReminderDTO struct {
	LearnerID   uint   `json:"learner_id" validate:"required"`
	RemindAt    string `json:"remind_at" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// ReminderService provides follow-up reminder CRUD. Reminders are
// independent of the installment plan.
type ReminderService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewReminderService creates a new ReminderService.
func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{
		db:        db,
		validator: validator.New(),
	}
}

// Create stores a reminder for a learner owned by userID.
func (s *ReminderService) Create(userID uint, dto SaveReminderDTO) (*models.Reminder, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, invalidInput("%v", err)
	}

	remindAt, err := utils.ParseDate(dto.RemindAt)
	if err != nil {
		return nil, invalidInput("reminder date: %v", err)
	}

	var learner models.Learner
	if err := s.db.First(&learner, dto.LearnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("failed to load learner")
	}
	if learner.UserID != userID {
		return nil, ErrForbidden
	}

	reminder := &models.Reminder{
		UserID:      userID,
		LearnerID:   learner.ID,
		LearnerName: learner.Name,
		RemindAt:    remindAt,
		Description: dto.Description,
	}
	if err := s.db.Create(reminder).Error; err != nil {
		return nil, errors.New("failed to create reminder")
	}
	return reminder, nil
}

// List returns the user's reminders by ascending target time. The default
// view hides completed ones; "today" shows only today's open reminders.
func (s *ReminderService) List(userID uint, filter string) ([]models.Reminder, error) {
	query := s.db.Where("user_id = ?", userID).Order("remind_at ASC")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	switch filter {
	case "", ReminderFilterAll:
		query = query.Where("completed = ?", false)
	case ReminderFilterToday:
		query = query.Where("completed = ? AND remind_at >= ? AND remind_at < ?", false, today, tomorrow)
	case ReminderFilterCompleted:
		query = query.Where("completed = ?", true)
	default:
		return nil, invalidInput("unknown filter %q", filter)
	}

	var reminders []models.Reminder
	if err := query.Find(&reminders).Error; err != nil {
		return nil, errors.New("failed to load reminders")
	}
	return reminders, nil
}

// MarkCompleted closes a reminder.
func (s *ReminderService) MarkCompleted(reminderID, userID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.First(&reminder, reminderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("failed to load reminder")
	}
	if reminder.UserID != userID {
		return nil, ErrForbidden
	}

	now := time.Now()
	reminder.Completed = true
	reminder.CompletedAt = &now
	if err := s.db.Save(&reminder).Error; err != nil {
		return nil, errors.New("failed to update reminder")
	}
	return &reminder, nil
}
