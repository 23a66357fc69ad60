package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Child is a participant whose movements are assessed.
type Child struct {
	BaseModel

	OwnerProfileID string         `gorm:"size:36;not null;index" json:"owner_profile_id"`
	FirstName      string         `gorm:"size:100;not null" json:"first_name"`
	LastName       string         `gorm:"size:100;not null" json:"last_name"`
	Birthdate      datatypes.Date `gorm:"not null" json:"-"`
	Grade          *string        `gorm:"size:50" json:"grade,omitempty"`
	Notes          *string        `gorm:"type:text" json:"notes,omitempty"`

	Owner *Profile `gorm:"foreignKey:OwnerProfileID" json:"-"`
}

// BeforeSave trims names.
func (c *Child) BeforeSave(tx *gorm.DB) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	if c.FirstName == "" || c.LastName == "" {
		return errors.New("child: first and last name are required")
	}
	return nil
}

// DisplayName renders the family name first, e.g. "山田 太郎".
func (c Child) DisplayName() string {
	return strings.TrimSpace(c.LastName + " " + c.FirstName)
}

// BirthdateTime returns the birthdate as a UTC midnight time.
func (c Child) BirthdateTime() time.Time {
	t := time.Time(c.Birthdate)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
