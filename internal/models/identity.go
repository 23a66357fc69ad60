package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Identity is a signed-in principal known only by email. The id is stable per address and is
// reused as the profile id once a profile exists.
type Identity struct {
	BaseModel

	Email       string     `gorm:"size:320;uniqueIndex;not null" json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// BeforeSave normalises the email address.
func (i *Identity) BeforeSave(tx *gorm.DB) error {
	i.Email = NormalizeEmail(i.Email)
	if i.Email == "" {
		return errors.New("identity: email is required")
	}
	return nil
}

// MagicLinkToken is a single-use passwordless sign-in token. Only the hash is stored.
type MagicLinkToken struct {
	BaseModel

	Email     string     `gorm:"size:320;not null;index" json:"email"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
