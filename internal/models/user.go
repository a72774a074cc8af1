package models

import (
	"time"
)

// User represents a pet owner identified by email.
// Login is passwordless: a one-time code is mailed and its bcrypt hash
// kept until verified or expired.
type User struct {
	BaseModel
	Username   string     `json:"username"`
	Email      string     `gorm:"uniqueIndex" json:"email"`
	Mobile     string     `gorm:"uniqueIndex" json:"mobile"`
	Whatsapp   string     `gorm:"uniqueIndex" json:"whatsapp"`
	OTPHash    string     `json:"-"`
	OTPExpires *time.Time `json:"-"`
	IsVerified bool       `json:"is_verified"`
	Pets       []Pet      `json:"pets,omitempty"`
	Orders     []Order    `json:"orders,omitempty"`
}
