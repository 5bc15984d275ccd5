package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// User is an operator account. Accounts are created by the admin; there is
// no self-service signup.
type User struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"column:name;not null;size:100" json:"name"`
	Email         string    `gorm:"column:email;unique;not null;size:100;index" json:"email"`
	Password      string    `gorm:"column:password;not null;size:100" json:"-"`
	ChatID        string    `gorm:"column:chat_id;size:50" json:"chat_id"`
	TelegramToken string    `gorm:"column:telegram_token;size:100" json:"-"`
	IsAdmin       bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt     time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate validates field lengths before insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Name) < 2 || len(u.Name) > 100 {
		return errors.New("name must be between 2 and 100 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	return nil
}
