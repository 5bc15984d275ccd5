package services

import (
	"sync/atomic"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/config"
	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/SaeedKolahi/language-learners-manager/utils"
	"gorm.io/gorm"
)

// ReminderSchedulerService periodically delivers due reminders to each
// operator's Telegram chat and sends the daily installment digest.
type ReminderSchedulerService struct {
	db       *gorm.DB
	telegram *TelegramService
	email    *EmailService
	cfg      *config.Config

	// inFlight guards against overlapping delivery passes; a tick that
	// fires while one pass is still running is a no-op.
	inFlight atomic.Bool

	lastDigestDay string
}

// NewReminderSchedulerService creates a new ReminderSchedulerService.
func NewReminderSchedulerService(db *gorm.DB, telegram *TelegramService, email *EmailService, cfg *config.Config) *ReminderSchedulerService {
	return &ReminderSchedulerService{
		db:       db,
		telegram: telegram,
		email:    email,
		cfg:      cfg,
	}
}

// Start launches the polling loop.
func (s *ReminderSchedulerService) Start() {
	interval := time.Duration(s.cfg.Scheduler.ReminderPollMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			s.RunOnce(time.Now())
		}
	}()
}

// RunOnce executes a single delivery pass. Reentrancy is rejected: while
// one pass is in flight, further calls return immediately.
func (s *ReminderSchedulerService) RunOnce(now time.Time) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	if err := s.deliverDueReminders(now); err != nil {
		utils.LogError("reminder delivery pass failed: %v", err)
	}
	if now.Hour() >= s.cfg.Scheduler.DigestHour {
		if err := s.sendDailyDigests(now); err != nil {
			utils.LogError("digest pass failed: %v", err)
		}
	}
}

// deliverDueReminders pushes every due, unsent, uncompleted reminder to
// its owner's chat. A reminder is marked sent only when Telegram confirms
// delivery; failures are retried on the next pass.
func (s *ReminderSchedulerService) deliverDueReminders(now time.Time) error {
	var reminders []models.Reminder
	if err := s.db.Where("remind_at <= ? AND sent = ? AND completed = ?", now, false, false).
		Order("remind_at ASC").
		Find(&reminders).Error; err != nil {
		return err
	}
	if len(reminders) == 0 {
		return nil
	}

	users, err := s.loadUsers(reminders)
	if err != nil {
		return err
	}

	for _, reminder := range reminders {
		user, ok := users[reminder.UserID]
		if !ok {
			continue
		}

		text := "Follow-up: " + reminder.LearnerName
		if reminder.Description != "" {
			text += " — " + reminder.Description
		}
		text += " (" + utils.FormatDatePersian(reminder.RemindAt) + ")"

		if err := s.telegram.SendMessage(user.TelegramToken, user.ChatID, text); err != nil {
			utils.LogError("failed to deliver reminder %d: %v", reminder.ID, err)
			continue
		}

		if err := s.db.Model(&models.Reminder{}).
			Where("id = ?", reminder.ID).
			Update("sent", true).Error; err != nil {
			utils.LogError("failed to mark reminder %d sent: %v", reminder.ID, err)
			continue
		}
		utils.GetMetrics().RecordDomainOp("reminder_deliver", nil)
	}
	return nil
}

func (s *ReminderSchedulerService) loadUsers(reminders []models.Reminder) (map[uint]models.User, error) {
	ids := make([]uint, 0, len(reminders))
	seen := make(map[uint]bool)
	for _, reminder := range reminders {
		if !seen[reminder.UserID] {
			seen[reminder.UserID] = true
			ids = append(ids, reminder.UserID)
		}
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}

// sendDailyDigests emails each operator a summary of overdue and soon-due
// installments, at most once per day.
func (s *ReminderSchedulerService) sendDailyDigests(now time.Time) error {
	day := now.Format("2006-01-02")
	if s.lastDigestDay == day {
		return nil
	}

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return err
	}

	horizon := now.AddDate(0, 0, upcomingWindowDays)
	for _, user := range users {
		if user.Email == "" {
			continue
		}

		var installments []models.Installment
		if err := s.db.Where("user_id = ? AND status <> ? AND due_date <= ?",
			user.ID, models.InstallmentStatusPaid, horizon).
			Order("due_date ASC").
			Find(&installments).Error; err != nil {
			return err
		}
		if len(installments) == 0 {
			continue
		}

		rows := make([]DigestRow, len(installments))
		for i, inst := range installments {
			rows[i] = DigestRow{
				LearnerName: inst.LearnerName,
				Amount:      inst.Amount,
				DueDate:     inst.DueDate,
				DaysUntil:   utils.DaysUntilDue(inst.DueDate, now),
			}
		}
		if err := s.email.SendInstallmentDigest(user.Email, rows); err != nil {
			utils.LogError("failed to send digest to user %d: %v", user.ID, err)
		}
	}

	s.lastDigestDay = day
	return nil
}
