package models

import (
	"strings"
	"time"
)

// User is the subset of the shared users table this service reads: identity and contact
// details used for reminder mail.
type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname string     `gorm:"column:user_lname" json:"user_lname"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	RoleID    int        `gorm:"column:role_id" json:"role_id"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName specifies the table for User.
func (User) TableName() string {
	return "users"
}

// DisplayName joins first and last name, falling back to the e-mail address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.UserFname) + " " + strings.TrimSpace(u.UserLname))
	if name == "" {
		return u.Email
	}
	return name
}
