package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
)

// Identity is the authenticated caller of an operation. A nil *Identity means anonymous.
type Identity struct {
	ID    string
	Email string
}

// emailPattern is the address shape accepted for invitations and profiles.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func validUUID(value string) bool {
	_, err := uuid.Parse(strings.TrimSpace(value))
	return err == nil
}

func requireIdentity(id *Identity) error {
	if id == nil || strings.TrimSpace(id.ID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// callerProfile loads the profile of an authenticated identity.
func callerProfile(ctx context.Context, db *gorm.DB, id *Identity) (*models.Profile, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var profile models.Profile
	err := db.WithContext(ctx).First(&profile, "id = ?", id.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

// requireElevated loads the caller profile and checks it is a coach or admin. A caller without
// a profile is forbidden rather than not found.
func requireElevated(ctx context.Context, db *gorm.DB, id *Identity) (*models.Profile, error) {
	profile, err := callerProfile(ctx, db, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrElevatedRoleRequired
	}
	if err != nil {
		return nil, err
	}
	if !profile.Role.Elevated() {
		return nil, ErrElevatedRoleRequired
	}
	return profile, nil
}

// visibleChildren scopes a children query to what profile may read. Coaches and admins see all
// children; parents see children linked to them.
func visibleChildren(tx *gorm.DB, profile *models.Profile) *gorm.DB {
	if profile.Role.Elevated() {
		return tx
	}
	return tx.Where("children.id IN (?)",
		tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.ParentChildRelationship{}).
			Select("child_id").
			Where("parent_profile_id = ?", profile.ID))
}

func canViewChild(ctx context.Context, db *gorm.DB, profile *models.Profile, childID string) (bool, error) {
	if profile.Role.Elevated() {
		return true, nil
	}
	var count int64
	err := db.WithContext(ctx).Model(&models.ParentChildRelationship{}).
		Where("parent_profile_id = ? AND child_id = ?", profile.ID, childID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check child access: %w", err)
	}
	return count > 0, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
