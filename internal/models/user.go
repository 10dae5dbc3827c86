package models

import (
	"time"

	"ireporter/internal/domain"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:100;not null" json:"first_name"`
	LastName     string    `gorm:"size:100;not null" json:"last_name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Bio          string    `gorm:"type:text" json:"bio"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	Role         string    `gorm:"size:20;not null;default:'user';index" json:"role"` // user | admin
	GoogleID     *string   `gorm:"uniqueIndex;size:255" json:"-"`                     // nil for email signups
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
