package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/pkg/logger"
	"github.com/kidslab/kidsmove/pkg/mail"
	"github.com/kidslab/kidsmove/pkg/metrics"
	"github.com/kidslab/kidsmove/pkg/token"
)

const defaultInvitationExpiryDays = 7

var (
	// ErrInvitationNotFound indicates no invitation matches the token or id.
	ErrInvitationNotFound = fmt.Errorf("invitation %w", ErrNotFound)
	// ErrInvitationExpired indicates the invitation is past its expiry or was revoked.
	ErrInvitationExpired = fmt.Errorf("invitation %w", ErrExpired)
	// ErrInvitationAlreadyUsed signals that the invitation has already been accepted.
	ErrInvitationAlreadyUsed = fmt.Errorf("invitation %w", ErrAlreadyUsed)
	// ErrInvitationPending indicates a pending invitation already exists for the email and child.
	ErrInvitationPending = fmt.Errorf("%w: a pending invitation already exists for this email and child", ErrConflict)
	// ErrInvitationEmailMismatch indicates the signed-in email differs from the invitation email.
	ErrInvitationEmailMismatch = fmt.Errorf("%w: signed-in email does not match the invitation", ErrForbidden)
	// ErrInvitationRoleConflict indicates the identity already holds a non-parent profile.
	ErrInvitationRoleConflict = fmt.Errorf("%w: account is already registered with a different role", ErrConflict)
)

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationBaseURL configures the base URL used to build redemption links.
func WithInvitationBaseURL(url string) InvitationOption {
	return func(s *InvitationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInvitationExpiryDays overrides the invitation lifetime in days.
func WithInvitationExpiryDays(days int) InvitationOption {
	return func(s *InvitationService) {
		if days > 0 {
			s.expiryDays = days
		}
	}
}

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InvitationService runs the parent invitation lifecycle.
type InvitationService struct {
	db         *gorm.DB
	mailer     mail.Mailer
	baseURL    string
	expiryDays int
	now        func() time.Time
}

// CreatedInvitation is the result of Create.
type CreatedInvitation struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	InvitationURL string    `json:"invitation_url"`
}

// InvitationDetails are the public fields returned by Validate.
type InvitationDetails struct {
	Email     string                  `json:"email"`
	ChildName string                  `json:"child_name"`
	InvitedBy string                  `json:"invited_by"`
	ExpiresAt time.Time               `json:"expires_at"`
	Status    models.InvitationStatus `json:"status"`
}

// InvitationListItem is one row of the invitation list.
type InvitationListItem struct {
	ID            string                  `json:"id"`
	Email         string                  `json:"email"`
	ChildID       string                  `json:"child_id"`
	ChildName     string                  `json:"child_name"`
	InvitedBy     string                  `json:"invited_by"`
	Status        models.InvitationStatus `json:"status"`
	ExpiresAt     time.Time               `json:"expires_at"`
	CreatedAt     time.Time               `json:"created_at"`
	AcceptedAt    *time.Time              `json:"accepted_at,omitempty"`
	InvitationURL string                  `json:"invitation_url,omitempty"`
}

// NewInvitationService constructs an InvitationService. mailer may be nil.
func NewInvitationService(db *gorm.DB, mailer mail.Mailer, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}

	service := &InvitationService{
		db:         db,
		mailer:     mailer,
		expiryDays: defaultInvitationExpiryDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create invites email to link a parent account to childID.
func (s *InvitationService) Create(ctx context.Context, id *Identity, email, childID string) (*CreatedInvitation, error) {
	inviter, err := requireElevated(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	email = models.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, invalid("email", "a valid email address is required")
	}
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, invalid("child_id", "child_id is required")
	}

	var child models.Child
	if err := s.db.WithContext(ctx).First(&child, "id = ?", childID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("invitation service: load child: %w", err)
	}

	// Lapsed invitations for the pair no longer block a new one.
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("email = ? AND child_id = ? AND status = ? AND expires_at < ?",
			email, child.ID, models.InvitationPending, s.now().UTC()).
		UpdateColumn("status", models.InvitationExpired).Error; err != nil {
		return nil, fmt.Errorf("invitation service: expire lapsed: %w", err)
	}

	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("email = ? AND child_id = ? AND status = ?", email, child.ID, models.InvitationPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("invitation service: check pending: %w", err)
	}
	if pending > 0 {
		metrics.InvitationEvents.WithLabelValues("rejected").Inc()
		return nil, ErrInvitationPending
	}

	invitation := models.Invitation{
		Email:     email,
		ChildID:   child.ID,
		InvitedBy: inviter.ID,
		Token:     token.Generate(),
		Status:    models.InvitationPending,
		ExpiresAt: token.ExpiresAt(s.now(), s.expiryDays),
	}
	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.InvitationEvents.WithLabelValues("rejected").Inc()
			return nil, ErrInvitationPending
		}
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}
	metrics.InvitationEvents.WithLabelValues("created").Inc()

	created := &CreatedInvitation{
		ID:            invitation.ID,
		Email:         invitation.Email,
		Token:         invitation.Token,
		ExpiresAt:     invitation.ExpiresAt,
		InvitationURL: s.invitationURL(invitation.Token),
	}
	s.notify(ctx, created, child, inviter)
	return created, nil
}

// Validate reports the public details of a redeemable invitation.
func (s *InvitationService) Validate(ctx context.Context, rawToken string) (*InvitationDetails, error) {
	invitation, err := s.findByToken(ctx, rawToken, "Child", "Inviter")
	if err != nil {
		return nil, err
	}
	if err := s.checkRedeemable(ctx, invitation); err != nil {
		return nil, err
	}

	details := &InvitationDetails{
		Email:     invitation.Email,
		ExpiresAt: invitation.ExpiresAt,
		Status:    invitation.Status,
	}
	if invitation.Child != nil {
		details.ChildName = invitation.Child.DisplayName()
	}
	if invitation.Inviter != nil {
		details.InvitedBy = invitation.Inviter.FullName
	}
	return details, nil
}

// Accept redeems an invitation for the signed-in identity, creating a parent profile when
// needed and linking it to the child. fullName defaults to the email local part.
func (s *InvitationService) Accept(ctx context.Context, id *Identity, rawToken, fullName string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	invitation, err := s.findByToken(ctx, rawToken)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(id.Email), invitation.Email) {
		return ErrInvitationEmailMismatch
	}
	if err := s.checkRedeemable(ctx, invitation); err != nil {
		return err
	}

	if err := s.ensureParentProfile(ctx, id, invitation.Email, fullName); err != nil {
		return err
	}

	link := models.ParentChildRelationship{ParentProfileID: id.ID, ChildID: invitation.ChildID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil && !isUniqueConstraintError(err) {
		return fmt.Errorf("invitation service: link parent: %w", err)
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Updates(map[string]any{"status": models.InvitationAccepted, "accepted_at": now}).Error; err != nil {
		logger.WithModule("invitations").Error("failed to mark invitation accepted",
			zap.String("invitation_id", invitation.ID),
			zap.Error(err),
		)
	}
	metrics.InvitationEvents.WithLabelValues("accepted").Inc()
	return nil
}

// List returns every invitation newest first. Coach or admin only.
func (s *InvitationService) List(ctx context.Context, id *Identity, childID string) ([]InvitationListItem, error) {
	if _, err := requireElevated(ctx, s.db, id); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Preload("Child").Preload("Inviter").Order("created_at DESC")
	if childID = strings.TrimSpace(childID); childID != "" {
		query = query.Where("child_id = ?", childID)
	}

	var invitations []models.Invitation
	if err := query.Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list: %w", err)
	}

	items := make([]InvitationListItem, 0, len(invitations))
	for _, inv := range invitations {
		item := InvitationListItem{
			ID:         inv.ID,
			Email:      inv.Email,
			ChildID:    inv.ChildID,
			Status:     inv.Status,
			ExpiresAt:  inv.ExpiresAt,
			CreatedAt:  inv.CreatedAt,
			AcceptedAt: inv.AcceptedAt,
		}
		if inv.Child != nil {
			item.ChildName = inv.Child.DisplayName()
		}
		if inv.Inviter != nil {
			item.InvitedBy = inv.Inviter.FullName
		}
		if inv.Status == models.InvitationPending {
			item.InvitationURL = s.invitationURL(inv.Token)
		}
		items = append(items, item)
	}
	return items, nil
}

// Revoke supersedes a pending invitation by marking it expired. Coach or admin only.
func (s *InvitationService) Revoke(ctx context.Context, id *Identity, invitationID string) error {
	if _, err := requireElevated(ctx, s.db, id); err != nil {
		return err
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).First(&invitation, "id = ?", strings.TrimSpace(invitationID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("invitation service: load invitation: %w", err)
	}

	switch invitation.Status {
	case models.InvitationAccepted:
		return ErrInvitationAlreadyUsed
	case models.InvitationExpired:
		return nil
	}

	if err := s.markExpired(ctx, invitation.ID); err != nil {
		return err
	}
	metrics.InvitationEvents.WithLabelValues("revoked").Inc()
	return nil
}

// ExpireStale marks every pending invitation past its expiry as expired and returns how many
// rows changed.
func (s *InvitationService) ExpireStale(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, s.now().UTC()).
		Update("status", models.InvitationExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("invitation service: expire stale: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.InvitationEvents.WithLabelValues("expired").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *InvitationService) findByToken(ctx context.Context, rawToken string, preloads ...string) (*models.Invitation, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, invalid("token", "token is required")
	}

	query := s.db.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	var invitation models.Invitation
	err := query.Where("token = ?", rawToken).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}
	return &invitation, nil
}

// checkRedeemable applies the status and expiry guards shared by Validate and Accept. An
// invitation observed past its expiry is persisted as expired so list views agree.
func (s *InvitationService) checkRedeemable(ctx context.Context, invitation *models.Invitation) error {
	if invitation.Status == models.InvitationAccepted {
		return ErrInvitationAlreadyUsed
	}
	if invitation.Status == models.InvitationExpired {
		return ErrInvitationExpired
	}
	if token.IsExpired(invitation.ExpiresAt, s.now()) {
		if err := s.markExpired(ctx, invitation.ID); err != nil {
			logger.WithModule("invitations").Warn("failed to persist invitation expiry",
				zap.String("invitation_id", invitation.ID),
				zap.Error(err),
			)
		} else {
			invitation.Status = models.InvitationExpired
			metrics.InvitationEvents.WithLabelValues("expired").Inc()
		}
		return ErrInvitationExpired
	}
	return nil
}

func (s *InvitationService) markExpired(ctx context.Context, invitationID string) error {
	err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND status = ?", invitationID, models.InvitationPending).
		Update("status", models.InvitationExpired).Error
	if err != nil {
		return fmt.Errorf("invitation service: mark expired: %w", err)
	}
	return nil
}

func (s *InvitationService) ensureParentProfile(ctx context.Context, id *Identity, email, fullName string) error {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id.ID).Error
	if err == nil {
		if profile.Role != models.RoleParent {
			return ErrInvitationRoleConflict
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("invitation service: load profile: %w", err)
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = localPart(email)
	}
	profile = models.Profile{
		BaseModel: models.BaseModel{ID: id.ID},
		Role:      models.RoleParent,
		FullName:  fullName,
		Email:     email,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return fmt.Errorf("invitation service: create profile: %w", err)
		}
		// A concurrent accept may have created the same profile first.
		var existing models.Profile
		if err := s.db.WithContext(ctx).First(&existing, "id = ?", id.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationRoleConflict
			}
			return fmt.Errorf("invitation service: reload profile: %w", err)
		}
		if existing.Role != models.RoleParent {
			return ErrInvitationRoleConflict
		}
	}
	return nil
}

func (s *InvitationService) invitationURL(rawToken string) string {
	return joinURL(s.baseURL, "/invitations/accept/"+rawToken)
}

// notify emails the invitation link. Delivery failures are logged, never returned.
func (s *InvitationService) notify(ctx context.Context, inv *CreatedInvitation, child models.Child, inviter *models.Profile) {
	if s.mailer == nil {
		return
	}
	message := mail.Message{
		To:      []string{inv.Email},
		Subject: "保護者アカウントへの招待 / You're invited to KidsMove",
		Body: fmt.Sprintf(
			"%s さんから %s さんの運動評価レポートを閲覧するための招待が届きました。\n\n"+
				"以下のリンクから招待を受け入れてください（有効期限: %s）。\n%s\n\n"+
				"%s invited you to view the movement assessments of %s.\nAccept the invitation here: %s\n",
			inviter.FullName, child.DisplayName(), inv.ExpiresAt.Format("2006-01-02"), inv.InvitationURL,
			inviter.FullName, child.DisplayName(), inv.InvitationURL,
		),
	}
	if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrDisabled) {
		logger.WithModule("invitations").Warn("failed to send invitation email",
			zap.String("invitation_id", inv.ID),
			zap.Error(err),
		)
	}
}
