package models

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Role enumerates the account roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleParent Role = "parent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleParent:
		return true
	}
	return false
}

// Elevated reports whether the role may manage children, assessments and invitations.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleCoach
}

// Profile is the account record of an identity. Its ID equals the identity ID.
type Profile struct {
	BaseModel

	Role     Role   `gorm:"size:16;not null;index" json:"role"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:320;uniqueIndex;not null" json:"email"`
}

// BeforeSave validates the role and normalises contact fields.
func (p *Profile) BeforeSave(tx *gorm.DB) error {
	if !p.Role.Valid() {
		return fmt.Errorf("profile: invalid role %q", p.Role)
	}
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" {
		return errors.New("profile: email is required")
	}
	p.FullName = strings.TrimSpace(p.FullName)
	return nil
}

// ParentChildRelationship links a parent profile to a child it may view.
type ParentChildRelationship struct {
	BaseModel

	ParentProfileID string `gorm:"size:36;not null;uniqueIndex:idx_parent_child" json:"parent_profile_id"`
	ChildID         string `gorm:"size:36;not null;uniqueIndex:idx_parent_child;index" json:"child_id"`

	Parent *Profile `gorm:"foreignKey:ParentProfileID;constraint:OnDelete:CASCADE" json:"-"`
	Child  *Child   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
