package models

import (
	"time"

	"gorm.io/gorm"
)

// InvitationStatus enumerates the invitation states.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation asks a parent, by email, to link an account to one child.
type Invitation struct {
	BaseModel

	Email      string           `gorm:"size:320;not null;index:idx_invitation_email_child" json:"email"`
	ChildID    string           `gorm:"size:36;not null;index:idx_invitation_email_child" json:"child_id"`
	InvitedBy  string           `gorm:"size:36;not null" json:"invited_by"`
	Token      string           `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Status     InvitationStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ExpiresAt  time.Time        `gorm:"not null;index" json:"expires_at"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty"`

	Child   *Child   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Inviter *Profile `gorm:"foreignKey:InvitedBy" json:"-"`
}

// BeforeSave normalises the target email.
func (i *Invitation) BeforeSave(tx *gorm.DB) error {
	i.Email = NormalizeEmail(i.Email)
	if i.Status == "" {
		i.Status = InvitationPending
	}
	return nil
}

// Terminal reports whether no further transition is possible.
func (i Invitation) Terminal() bool {
	return i.Status == InvitationAccepted || i.Status == InvitationExpired
}

// SharedLink exposes one assessment report to anonymous viewers.
type SharedLink struct {
	BaseModel

	AssessmentID string     `gorm:"size:36;not null;index" json:"assessment_id"`
	Token        string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	OneTime      bool       `gorm:"not null;default:false" json:"one_time"`
	AccessedAt   *time.Time `json:"accessed_at,omitempty"`

	Assessment *Assessment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
