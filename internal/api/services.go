package api

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/app"
	iauth "github.com/kidslab/kidsmove/internal/auth"
	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/mail"
)

// Services bundles the domain services shared by the HTTP layer and background jobs.
type Services struct {
	Profiles    *services.ProfileService
	Children    *services.ChildService
	Assessments *services.AssessmentService
	Invitations *services.InvitationService
	Shares      *services.ShareService
	MagicLinks  *iauth.MagicLinkService
}

// NewServices wires every domain service from configuration. mailer may be nil, which
// disables invitation and sign-in emails. clock may be nil to use the wall clock.
func NewServices(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, mailer mail.Mailer, clock func() time.Time) (*Services, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	profiles, err := services.NewProfileService(db, services.WithBootstrapAdmins(cfg.Auth.BootstrapAdmins...))
	if err != nil {
		return nil, err
	}
	children, err := services.NewChildService(db, services.WithChildClock(clock))
	if err != nil {
		return nil, err
	}
	assessments, err := services.NewAssessmentService(db, services.WithAssessmentClock(clock))
	if err != nil {
		return nil, err
	}
	invitations, err := services.NewInvitationService(db, mailer,
		services.WithInvitationBaseURL(cfg.App.BaseURL),
		services.WithInvitationExpiryDays(cfg.Invitations.ExpiryDays),
		services.WithInvitationClock(clock),
	)
	if err != nil {
		return nil, err
	}
	shares, err := services.NewShareService(db,
		services.WithShareBaseURL(cfg.App.BaseURL),
		services.WithShareDefaultExpiryDays(cfg.Shares.DefaultExpiryDays),
		services.WithShareClock(clock),
	)
	if err != nil {
		return nil, err
	}

	magicCfg := cfg.Auth.MagicLinkServiceConfig(cfg.App.BaseURL)
	magicCfg.Clock = clock
	magicLinks, err := iauth.NewMagicLinkService(db, jwt, profiles, mailer, magicCfg)
	if err != nil {
		return nil, err
	}

	return &Services{
		Profiles:    profiles,
		Children:    children,
		Assessments: assessments,
		Invitations: invitations,
		Shares:      shares,
		MagicLinks:  magicLinks,
	}, nil
}
