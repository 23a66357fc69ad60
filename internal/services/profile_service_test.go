package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/models"
)

func TestProfileMe(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)

	coach := seedProfile(t, db, models.RoleCoach, "coach@example.com")
	profile, err := svc.Me(context.Background(), coach)
	require.NoError(t, err)
	require.Equal(t, models.RoleCoach, profile.Role)

	_, err = svc.Me(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Me(context.Background(), &Identity{ID: uuid.NewString(), Email: "x@example.com"})
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileCreateByAdmin(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)
	ctx := context.Background()

	admin := seedProfile(t, db, models.RoleAdmin, "admin@example.com")
	profile, err := svc.Create(ctx, admin, CreateProfileInput{
		Email:    " New.Coach@Example.com ",
		FullName: "田中 一郎",
		Role:     models.RoleCoach,
	})
	require.NoError(t, err)
	require.Equal(t, "new.coach@example.com", profile.Email)

	var identity models.Identity
	require.NoError(t, db.First(&identity, "email = ?", "new.coach@example.com").Error)
	require.Equal(t, identity.ID, profile.ID)

	_, err = svc.Create(ctx, admin, CreateProfileInput{Email: "new.coach@example.com", FullName: "x", Role: models.RoleCoach})
	require.ErrorIs(t, err, ErrProfileExists)

	_, err = svc.Create(ctx, admin, CreateProfileInput{Email: "a@example.com", FullName: "x", Role: "owner"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "role", verr.Field)

	_, err = svc.Create(ctx, admin, CreateProfileInput{Email: "a@example.com", FullName: " ", Role: models.RoleCoach})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "full_name", verr.Field)

	coach := seedProfile(t, db, models.RoleCoach, "coach@example.com")
	_, err = svc.Create(ctx, coach, CreateProfileInput{Email: "b@example.com", FullName: "x", Role: models.RoleCoach})
	require.ErrorIs(t, err, ErrAdminRequired)
}

func TestProfileEnsureBootstrap(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewProfileService(db, WithBootstrapAdmins("Owner@Example.com", ""))
	require.NoError(t, err)
	ctx := context.Background()

	owner := &Identity{ID: uuid.NewString(), Email: "owner@example.com"}
	require.NoError(t, svc.EnsureBootstrap(ctx, owner))
	require.NoError(t, svc.EnsureBootstrap(ctx, owner))

	profile, err := svc.Me(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, profile.Role)
	require.Equal(t, "owner", profile.FullName)

	stranger := &Identity{ID: uuid.NewString(), Email: "stranger@example.com"}
	require.NoError(t, svc.EnsureBootstrap(ctx, stranger))
	_, err = svc.Me(ctx, stranger)
	require.ErrorIs(t, err, ErrProfileNotFound)

	require.ErrorIs(t, svc.EnsureBootstrap(ctx, nil), ErrUnauthenticated)
}

func TestProfileSignInIsStablePerEmail(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewProfileService(db, WithBootstrapAdmins("owner@example.com"))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.SignIn(ctx, "Owner@Example.com", testNow)
	require.NoError(t, err)
	second, err := svc.SignIn(ctx, "owner@example.com", testNow.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "owner@example.com", second.Email)

	var identity models.Identity
	require.NoError(t, db.First(&identity, "id = ?", first.ID).Error)
	require.NotNil(t, identity.LastLoginAt)
	require.True(t, identity.LastLoginAt.Equal(testNow.Add(time.Hour)))

	profile, err := svc.Me(ctx, first)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, profile.Role)

	_, err = svc.SignIn(ctx, "nope", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
