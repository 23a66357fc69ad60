package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
)

// ProfileOption customises ProfileService behaviour.
type ProfileOption func(*ProfileService)

// WithBootstrapAdmins lists emails that receive an admin profile on first sign-in.
func WithBootstrapAdmins(emails ...string) ProfileOption {
	return func(s *ProfileService) {
		for _, email := range emails {
			if email = models.NormalizeEmail(email); email != "" {
				s.bootstrapAdmins[email] = struct{}{}
			}
		}
	}
}

// ProfileService manages account profiles.
type ProfileService struct {
	db              *gorm.DB
	bootstrapAdmins map[string]struct{}
}

// CreateProfileInput describes a profile provisioned by an admin.
type CreateProfileInput struct {
	Email    string
	FullName string
	Role     models.Role
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, opts ...ProfileOption) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	s := &ProfileService{db: db, bootstrapAdmins: map[string]struct{}{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Me returns the caller's profile.
func (s *ProfileService) Me(ctx context.Context, id *Identity) (*models.Profile, error) {
	return callerProfile(ctx, s.db, id)
}

// Create provisions a profile (typically a coach) for an email. Admin only. The identity row is
// created when missing so the profile id is stable once that person signs in.
func (s *ProfileService) Create(ctx context.Context, id *Identity, in CreateProfileInput) (*models.Profile, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrAdminRequired
	}
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrAdminRequired
	}

	email := models.NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, invalid("email", "a valid email address is required")
	}
	if !in.Role.Valid() {
		return nil, invalid("role", "role must be admin, coach or parent")
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, invalid("full_name", "full name is required")
	}

	var profile *models.Profile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := findOrCreateIdentity(tx, email)
		if err != nil {
			return err
		}
		profile = &models.Profile{
			BaseModel: models.BaseModel{ID: identity.ID},
			Role:      in.Role,
			FullName:  fullName,
			Email:     email,
		}
		if err := tx.Create(profile).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrProfileExists
			}
			return fmt.Errorf("profile service: create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// EnsureBootstrap creates an admin profile for a configured bootstrap email that signs in
// without one. It is a no-op for every other identity.
func (s *ProfileService) EnsureBootstrap(ctx context.Context, id *Identity) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	email := models.NormalizeEmail(id.Email)
	if _, ok := s.bootstrapAdmins[email]; !ok {
		return nil
	}

	profile := models.Profile{
		BaseModel: models.BaseModel{ID: id.ID},
		Role:      models.RoleAdmin,
		FullName:  localPart(email),
		Email:     email,
	}
	err := s.db.WithContext(ctx).
		Where(models.Profile{BaseModel: models.BaseModel{ID: id.ID}}).
		Attrs(profile).
		FirstOrCreate(&models.Profile{}).Error
	if err != nil && !isUniqueConstraintError(err) {
		return fmt.Errorf("profile service: bootstrap admin: %w", err)
	}
	return nil
}

// SignIn resolves the identity of a verified email, stamps its last login time and applies the
// bootstrap admin rule. It is called once a sign-in credential has been checked.
func (s *ProfileService) SignIn(ctx context.Context, email string, at time.Time) (*Identity, error) {
	email = models.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, invalid("email", "a valid email address is required")
	}

	var identity *models.Identity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findOrCreateIdentity(tx, email)
		if err != nil {
			return err
		}
		stamp := at.UTC()
		if err := tx.Model(found).Update("last_login_at", stamp).Error; err != nil {
			return fmt.Errorf("stamp last login: %w", err)
		}
		found.LastLoginAt = &stamp
		identity = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("profile service: sign in: %w", err)
	}

	id := &Identity{ID: identity.ID, Email: identity.Email}
	if err := s.EnsureBootstrap(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

// findOrCreateIdentity returns the identity bound to email, creating it when missing.
func findOrCreateIdentity(tx *gorm.DB, email string) (*models.Identity, error) {
	email = models.NormalizeEmail(email)

	var identity models.Identity
	err := tx.Where("email = ?", email).First(&identity).Error
	if err == nil {
		return &identity, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	identity = models.Identity{Email: email}
	if err := tx.Create(&identity).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		// Lost a race with a concurrent sign-in; the row exists now.
		if err := tx.Where("email = ?", email).First(&identity).Error; err != nil {
			return nil, fmt.Errorf("find identity: %w", err)
		}
	}
	return &identity, nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
