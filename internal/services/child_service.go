package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/pkg/age"
)

// ChildOption customises ChildService behaviour.
type ChildOption func(*ChildService)

// WithChildClock injects a custom clock used for age computation.
func WithChildClock(clock func() time.Time) ChildOption {
	return func(s *ChildService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ChildService manages children records.
type ChildService struct {
	db  *gorm.DB
	now func() time.Time
}

// ChildInput carries the fields of a new child.
type ChildInput struct {
	FirstName string
	LastName  string
	Birthdate string // YYYY-MM-DD
	Grade     *string
	Notes     *string
}

// ChildUpdate carries a partial update; nil fields are left untouched.
type ChildUpdate struct {
	FirstName *string
	LastName  *string
	Birthdate *string
	Grade     *string
	Notes     *string
}

// ChildView is a child enriched with its current age.
type ChildView struct {
	ID             string    `json:"id"`
	OwnerProfileID string    `json:"owner_profile_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DisplayName    string    `json:"display_name"`
	Birthdate      string    `json:"birthdate"`
	Grade          *string   `json:"grade,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	Age            age.Age   `json:"age"`
	AgeLabel       string    `json:"age_label"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewChildService constructs a ChildService.
func NewChildService(db *gorm.DB, opts ...ChildOption) (*ChildService, error) {
	if db == nil {
		return nil, errors.New("child service: db is required")
	}
	s := &ChildService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a child owned by the calling coach or admin.
func (s *ChildService) Create(ctx context.Context, id *Identity, in ChildInput) (*ChildView, error) {
	caller, err := requireElevated(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	birthdate, err := parseBirthdate(in.Birthdate)
	if err != nil {
		return nil, err
	}
	child := models.Child{
		OwnerProfileID: caller.ID,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Birthdate:      datatypes.Date(birthdate),
		Grade:          optionalString(in.Grade),
		Notes:          optionalString(in.Notes),
	}
	if child.FirstName == "" {
		return nil, invalid("first_name", "first name is required")
	}
	if child.LastName == "" {
		return nil, invalid("last_name", "last name is required")
	}

	if err := s.db.WithContext(ctx).Create(&child).Error; err != nil {
		return nil, fmt.Errorf("child service: create: %w", err)
	}
	return s.view(child), nil
}

// List returns the children visible to the caller, newest first.
func (s *ChildService) List(ctx context.Context, id *Identity) ([]ChildView, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var children []models.Child
	query := visibleChildren(s.db.WithContext(ctx).Model(&models.Child{}), caller)
	if err := query.Order("children.created_at DESC").Find(&children).Error; err != nil {
		return nil, fmt.Errorf("child service: list: %w", err)
	}

	views := make([]ChildView, 0, len(children))
	for _, child := range children {
		views = append(views, *s.view(child))
	}
	return views, nil
}

// Get returns one visible child.
func (s *ChildService) Get(ctx context.Context, id *Identity, childID string) (*ChildView, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	child, err := s.load(ctx, caller, childID)
	if err != nil {
		return nil, err
	}
	return s.view(*child), nil
}

// Update applies a partial update. Coach or admin only.
func (s *ChildService) Update(ctx context.Context, id *Identity, childID string, in ChildUpdate) (*ChildView, error) {
	caller, err := requireElevated(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	child, err := s.load(ctx, caller, childID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		child.FirstName = strings.TrimSpace(*in.FirstName)
		if child.FirstName == "" {
			return nil, invalid("first_name", "first name is required")
		}
	}
	if in.LastName != nil {
		child.LastName = strings.TrimSpace(*in.LastName)
		if child.LastName == "" {
			return nil, invalid("last_name", "last name is required")
		}
	}
	if in.Birthdate != nil {
		birthdate, err := parseBirthdate(*in.Birthdate)
		if err != nil {
			return nil, err
		}
		child.Birthdate = datatypes.Date(birthdate)
	}
	if in.Grade != nil {
		child.Grade = optionalString(in.Grade)
	}
	if in.Notes != nil {
		child.Notes = optionalString(in.Notes)
	}

	if err := s.db.WithContext(ctx).Save(child).Error; err != nil {
		return nil, fmt.Errorf("child service: update: %w", err)
	}
	return s.view(*child), nil
}

// Delete removes a child together with its assessments, links and invitations.
func (s *ChildService) Delete(ctx context.Context, id *Identity, childID string) error {
	caller, err := requireElevated(ctx, s.db, id)
	if err != nil {
		return err
	}
	child, err := s.load(ctx, caller, childID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assessmentIDs := tx.Model(&models.Assessment{}).Select("id").Where("child_id = ?", child.ID)
		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&models.SharedLink{}, "assessment_id IN (?)", assessmentIDs},
			{&models.FMSScore{}, "assessment_id IN (?)", assessmentIDs},
			{&models.SMCScore{}, "assessment_id IN (?)", assessmentIDs},
			{&models.Assessment{}, "child_id = ?", child.ID},
			{&models.Invitation{}, "child_id = ?", child.ID},
			{&models.ParentChildRelationship{}, "child_id = ?", child.ID},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return fmt.Errorf("child service: delete dependents: %w", err)
			}
		}
		if err := tx.Delete(child).Error; err != nil {
			return fmt.Errorf("child service: delete: %w", err)
		}
		return nil
	})
}

func (s *ChildService) load(ctx context.Context, caller *models.Profile, childID string) (*models.Child, error) {
	if !validUUID(childID) {
		return nil, ErrChildNotFound
	}
	var child models.Child
	err := visibleChildren(s.db.WithContext(ctx).Model(&models.Child{}), caller).
		Where("children.id = ?", strings.TrimSpace(childID)).
		First(&child).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("child service: load: %w", err)
	}
	return &child, nil
}

func (s *ChildService) view(child models.Child) *ChildView {
	return newChildView(child, s.now())
}

func newChildView(child models.Child, now time.Time) *ChildView {
	born := child.BirthdateTime()
	a := age.Calculate(born, now)
	return &ChildView{
		ID:             child.ID,
		OwnerProfileID: child.OwnerProfileID,
		FirstName:      child.FirstName,
		LastName:       child.LastName,
		DisplayName:    child.DisplayName(),
		Birthdate:      born.Format(age.DateLayout),
		Grade:          child.Grade,
		Notes:          child.Notes,
		Age:            a,
		AgeLabel:       a.String(),
		CreatedAt:      child.CreatedAt,
	}
}

func parseBirthdate(value string) (time.Time, error) {
	born, err := age.Parse(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid("birthdate", "birthdate must be formatted as YYYY-MM-DD")
	}
	return born, nil
}
