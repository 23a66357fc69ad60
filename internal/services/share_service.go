package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/pkg/metrics"
	"github.com/kidslab/kidsmove/pkg/token"
)

const defaultShareExpiryDays = 7

var (
	// ErrShareNotFound indicates no shared link matches the token.
	ErrShareNotFound = fmt.Errorf("shared link %w", ErrNotFound)
	// ErrShareExpired indicates the shared link is past its expiry.
	ErrShareExpired = fmt.Errorf("shared link %w", ErrExpired)
	// ErrShareAlreadyUsed indicates a one-time link was already viewed.
	ErrShareAlreadyUsed = fmt.Errorf("shared link %w", ErrAlreadyUsed)
)

// ShareOption customises ShareService behaviour.
type ShareOption func(*ShareService)

// WithShareBaseURL configures the base URL used to build viewer links.
func WithShareBaseURL(url string) ShareOption {
	return func(s *ShareService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithShareDefaultExpiryDays overrides the horizon used when the caller supplies none.
func WithShareDefaultExpiryDays(days int) ShareOption {
	return func(s *ShareService) {
		if days != 0 {
			s.defaultDays = days
		}
	}
}

// WithShareClock injects a custom clock primarily for testing.
func WithShareClock(clock func() time.Time) ShareOption {
	return func(s *ShareService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ShareService runs the shared report link lifecycle.
type ShareService struct {
	db          *gorm.DB
	baseURL     string
	defaultDays int
	now         func() time.Time
}

// CreateShareInput describes a new link. ExpiresInDays nil means the default horizon.
type CreateShareInput struct {
	AssessmentID  string
	ExpiresInDays *int
	OneTime       bool
}

// SharedLinkView is a stored link decorated with its viewer URL.
type SharedLinkView struct {
	ID           string     `json:"id"`
	AssessmentID string     `json:"assessment_id"`
	Token        string     `json:"token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	OneTime      bool       `json:"one_time"`
	AccessedAt   *time.Time `json:"accessed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ShareURL     string     `json:"share_url"`
}

// NewShareService constructs a ShareService.
func NewShareService(db *gorm.DB, opts ...ShareOption) (*ShareService, error) {
	if db == nil {
		return nil, errors.New("share service: db is required")
	}
	s := &ShareService{db: db, defaultDays: defaultShareExpiryDays, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create issues a link to an assessment the caller can see.
func (s *ShareService) Create(ctx context.Context, id *Identity, in CreateShareInput) (*SharedLinkView, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, err
	}

	assessmentID := strings.TrimSpace(in.AssessmentID)
	if !validUUID(assessmentID) {
		return nil, invalid("assessment_id", "assessment_id must be a UUID")
	}
	if err := s.checkAssessment(ctx, caller, assessmentID); err != nil {
		return nil, err
	}

	days := s.defaultDays
	if in.ExpiresInDays != nil {
		days = *in.ExpiresInDays
	}

	link := models.SharedLink{
		AssessmentID: assessmentID,
		Token:        token.Generate(),
		ExpiresAt:    token.ExpiresAt(s.now(), days),
		OneTime:      in.OneTime,
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, fmt.Errorf("share service: create link: %w", err)
	}
	return s.view(link), nil
}

// List returns every link of an assessment newest first, expired and used ones included.
func (s *ShareService) List(ctx context.Context, id *Identity, assessmentID string) ([]SharedLinkView, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, err
	}

	assessmentID = strings.TrimSpace(assessmentID)
	if !validUUID(assessmentID) {
		return nil, invalid("assessment_id", "assessment_id must be a UUID")
	}
	if err := s.checkAssessment(ctx, caller, assessmentID); err != nil {
		return nil, err
	}

	var links []models.SharedLink
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("share service: list links: %w", err)
	}

	views := make([]SharedLinkView, 0, len(links))
	for _, link := range links {
		views = append(views, *s.view(link))
	}
	return views, nil
}

// Resolve opens a link anonymously and returns the report it exposes. A one-time link is
// consumed by its first successful resolve.
func (s *ShareService) Resolve(ctx context.Context, rawToken string) (*Report, error) {
	link, err := s.resolve(ctx, rawToken)
	if err != nil {
		metrics.ShareResolutions.WithLabelValues(resolutionLabel(err)).Inc()
		return nil, err
	}

	report, err := loadReport(ctx, s.db, link.AssessmentID)
	if err != nil {
		return nil, err
	}
	metrics.ShareResolutions.WithLabelValues("ok").Inc()
	return report, nil
}

func (s *ShareService) resolve(ctx context.Context, rawToken string) (*models.SharedLink, error) {
	rawToken = token.Normalize(rawToken)
	if rawToken == "" {
		return nil, ErrShareNotFound
	}

	var link models.SharedLink
	err := s.db.WithContext(ctx).Where("token = ?", rawToken).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("share service: find link: %w", err)
	}

	now := s.now().UTC()
	if token.IsExpired(link.ExpiresAt, now) {
		return nil, ErrShareExpired
	}
	if token.IsUsed(link.OneTime, link.AccessedAt) {
		return nil, ErrShareAlreadyUsed
	}

	if link.OneTime {
		// Conditional stamp: only the first concurrent resolver updates the row.
		result := s.db.WithContext(ctx).Model(&models.SharedLink{}).
			Where("id = ? AND accessed_at IS NULL", link.ID).
			Update("accessed_at", now)
		if result.Error != nil {
			return nil, fmt.Errorf("share service: stamp access: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrShareAlreadyUsed
		}
		link.AccessedAt = &now
	}
	return &link, nil
}

func (s *ShareService) checkAssessment(ctx context.Context, caller *models.Profile, assessmentID string) error {
	var assessment models.Assessment
	err := s.db.WithContext(ctx).Select("id", "child_id").First(&assessment, "id = ?", assessmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssessmentNotFound
	}
	if err != nil {
		return fmt.Errorf("share service: load assessment: %w", err)
	}

	ok, err := canViewChild(ctx, s.db, caller, assessment.ChildID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssessmentNotFound
	}
	return nil
}

func (s *ShareService) view(link models.SharedLink) *SharedLinkView {
	return &SharedLinkView{
		ID:           link.ID,
		AssessmentID: link.AssessmentID,
		Token:        link.Token,
		ExpiresAt:    link.ExpiresAt,
		OneTime:      link.OneTime,
		AccessedAt:   link.AccessedAt,
		CreatedAt:    link.CreatedAt,
		ShareURL:     joinURL(s.baseURL, "/share/"+link.Token),
	}
}

func resolutionLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyUsed):
		return "used"
	default:
		return "error"
	}
}
