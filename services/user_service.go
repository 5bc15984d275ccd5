package services

import (
	"errors"

	"github.com/SaeedKolahi/language-learners-manager/models"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserRequest carries the fields of an admin-created operator
// account.
type CreateUserRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	ChatID        string `json:"chat_id" validate:"omitempty,max=50"`
	TelegramToken string `json:"telegram_token" validate:"omitempty,max=100"`
}

// UserDTO is the safe representation of an operator account.
type UserDTO struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// UserService provides operator account management. Accounts are created
// by the admin only.
type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:        db,
		validator: validator.New(),
	}
}

// CreateUser creates a new operator account with a bcrypt-hashed password.
func (s *UserService) CreateUser(req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput("%v", err)
	}

	var existing models.User
	err := s.db.Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
	if err == nil {
		return nil, invalidInput("a user with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:          req.Name,
		Email:         req.Email,
		Password:      string(hashed),
		ChatID:        req.ChatID,
		TelegramToken: req.TelegramToken,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail looks a user up by email, ignoring case and surrounding
// whitespace.
func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID looks a user up by id.
func (s *UserService) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *UserService) ChangePassword(userID uint, current, newPassword string) error {
	if len(newPassword) < 6 {
		return invalidInput("new password must be at least 6 characters")
	}

	user, err := s.FindByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return invalidInput("current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", string(hashed)).Error
}
