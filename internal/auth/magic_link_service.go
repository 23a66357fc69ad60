package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/logger"
	"github.com/kidslab/kidsmove/pkg/mail"
	"github.com/kidslab/kidsmove/pkg/metrics"
	"github.com/kidslab/kidsmove/pkg/token"
	"github.com/kidslab/kidsmove/pkg/validator"
)

// DefaultMagicLinkTTL is the fallback lifetime of a sign-in link.
const DefaultMagicLinkTTL = 15 * time.Minute

var (
	// ErrMagicLinkInvalid is returned for unknown or already consumed sign-in tokens.
	ErrMagicLinkInvalid = fmt.Errorf("%w: sign-in link is invalid or has already been used", services.ErrUnauthenticated)
	// ErrMagicLinkExpired is returned when the sign-in token is past its expiry.
	ErrMagicLinkExpired = fmt.Errorf("sign-in link %w", services.ErrExpired)
)

// MagicLinkConfig describes tunable behaviour for the MagicLinkService.
type MagicLinkConfig struct {
	BaseURL string
	TTL     time.Duration
	Clock   func() time.Time
}

// SignInResult is returned by a successful Verify.
type SignInResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
}

// MagicLinkService implements passwordless email sign-in.
type MagicLinkService struct {
	db       *gorm.DB
	jwt      *JWTService
	profiles *services.ProfileService
	mailer   mail.Mailer
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

// NewMagicLinkService constructs a MagicLinkService. mailer may be nil.
func NewMagicLinkService(db *gorm.DB, jwtService *JWTService, profiles *services.ProfileService, mailer mail.Mailer, cfg MagicLinkConfig) (*MagicLinkService, error) {
	if db == nil {
		return nil, errors.New("magic link: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("magic link: jwt service is required")
	}
	if profiles == nil {
		return nil, errors.New("magic link: profile service is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultMagicLinkTTL
	}
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &MagicLinkService{
		db:       db,
		jwt:      jwtService,
		profiles: profiles,
		mailer:   mailer,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		ttl:      ttl,
		now:      now,
	}, nil
}

// Request stores a hashed sign-in token for email and mails the link. It succeeds for any
// well-formed address so callers cannot probe which emails have accounts.
func (s *MagicLinkService) Request(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := validator.ValidateVar(email, "required,email"); err != nil {
		return &services.ValidationError{Field: "email", Message: "a valid email address is required"}
	}

	raw := token.Generate()
	record := models.MagicLinkToken{
		Email:     email,
		TokenHash: token.Hash(raw),
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("magic link: store token: %w", err)
	}
	metrics.AuthAttempts.WithLabelValues("request", "success").Inc()

	s.send(ctx, email, raw, record.ExpiresAt)
	return nil
}

// Verify consumes a sign-in token and issues an access token for its email.
func (s *MagicLinkService) Verify(ctx context.Context, rawToken string) (*SignInResult, error) {
	result, err := s.verify(ctx, rawToken)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("verify", "failure").Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("verify", "success").Inc()
	return result, nil
}

func (s *MagicLinkService) verify(ctx context.Context, rawToken string) (*SignInResult, error) {
	if token.Normalize(rawToken) == "" {
		return nil, ErrMagicLinkInvalid
	}

	var record models.MagicLinkToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", token.Hash(rawToken)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMagicLinkInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("magic link: find token: %w", err)
	}

	now := s.now().UTC()
	if record.UsedAt != nil {
		return nil, ErrMagicLinkInvalid
	}
	if token.IsExpired(record.ExpiresAt, now) {
		return nil, ErrMagicLinkExpired
	}

	consumed := s.db.WithContext(ctx).Model(&models.MagicLinkToken{}).
		Where("id = ? AND used_at IS NULL", record.ID).
		Update("used_at", now)
	if consumed.Error != nil {
		return nil, fmt.Errorf("magic link: consume token: %w", consumed.Error)
	}
	if consumed.RowsAffected == 0 {
		return nil, ErrMagicLinkInvalid
	}

	identity, err := s.profiles.SignIn(ctx, record.Email, now)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: identity.ID, Email: identity.Email})
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwt.TTL()),
		UserID:      identity.ID,
		Email:       identity.Email,
	}, nil
}

// PurgeExpired deletes consumed and expired sign-in tokens.
func (s *MagicLinkService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("used_at IS NOT NULL OR expires_at < ?", s.now().UTC()).
		Delete(&models.MagicLinkToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("magic link: purge tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *MagicLinkService) send(ctx context.Context, email, raw string, expiresAt time.Time) {
	if s.mailer == nil {
		return
	}
	link := s.baseURL + "/auth/verify?token=" + raw
	message := mail.Message{
		To:      []string{email},
		Subject: "ログインリンク / Your KidsMove sign-in link",
		Body: fmt.Sprintf(
			"以下のリンクからログインしてください（%s まで有効）。\n%s\n\n"+
				"Use this link to sign in. It expires at %s.\n%s\n",
			expiresAt.Format("2006-01-02 15:04 MST"), link,
			expiresAt.Format(time.RFC3339), link,
		),
	}
	if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrDisabled) {
		logger.WithModule("auth").Warn("failed to send sign-in email", zap.Error(err))
	}
}
