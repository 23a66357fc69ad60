package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
)

type shareFixture struct {
	db         *gorm.DB
	svc        *ShareService
	coach      *Identity
	assessment *models.Assessment
	current    time.Time
}

func newShareFixture(t *testing.T) *shareFixture {
	t.Helper()

	f := &shareFixture{db: openServiceTestDB(t), current: testNow}
	f.coach = seedProfile(t, f.db, models.RoleCoach, "coach@example.com")
	child := seedChild(t, f.db, f.coach)
	f.assessment = seedAssessment(t, f.db, f.coach, child, testNow.AddDate(0, 0, -1), 3)

	svc, err := NewShareService(f.db,
		WithShareBaseURL("https://kids.example.com"),
		WithShareClock(fixedClock(&f.current)),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func days(n int) *int { return &n }

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestShareCreateDefaults(t *testing.T) {
	f := newShareFixture(t)

	link, err := f.svc.Create(context.Background(), f.coach, CreateShareInput{AssessmentID: f.assessment.ID})
	require.NoError(t, err)
	require.Regexp(t, hexToken, link.Token)
	require.False(t, link.OneTime)
	require.Nil(t, link.AccessedAt)
	require.Equal(t, testNow.AddDate(0, 0, 7), link.ExpiresAt)
	require.Equal(t, "https://kids.example.com/share/"+link.Token, link.ShareURL)
}

func TestShareCreateGuards(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, nil, CreateShareInput{AssessmentID: f.assessment.ID})
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: "not-a-uuid"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: uuid.NewString()})
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	// A parent not linked to the child cannot see the assessment.
	stranger := seedProfile(t, f.db, models.RoleParent, "stranger@example.com")
	_, err = f.svc.Create(ctx, stranger, CreateShareInput{AssessmentID: f.assessment.ID})
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestShareResolveReusableLink(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	link, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID})
	require.NoError(t, err)

	first, err := f.svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	second, err := f.svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, f.assessment.ID, first.AssessmentID)
	require.Equal(t, 21, first.FMSTotal)

	var stored models.SharedLink
	require.NoError(t, f.db.First(&stored, "id = ?", link.ID).Error)
	require.Nil(t, stored.AccessedAt)
}

func TestShareResolveOneTimeLink(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	link, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID, OneTime: true})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, link.Token)
	require.NoError(t, err)

	var stored models.SharedLink
	require.NoError(t, f.db.First(&stored, "id = ?", link.ID).Error)
	require.NotNil(t, stored.AccessedAt)

	_, err = f.svc.Resolve(ctx, link.Token)
	require.ErrorIs(t, err, ErrShareAlreadyUsed)
}

func TestShareResolveExpired(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	past, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID, ExpiresInDays: days(-1), OneTime: true})
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, past.Token)
	require.ErrorIs(t, err, ErrShareExpired)

	var stored models.SharedLink
	require.NoError(t, f.db.First(&stored, "id = ?", past.ID).Error)
	require.Nil(t, stored.AccessedAt)

	link, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID, ExpiresInDays: days(7)})
	require.NoError(t, err)
	f.current = link.ExpiresAt.Add(time.Second)
	_, err = f.svc.Resolve(ctx, link.Token)
	require.ErrorIs(t, err, ErrShareExpired)
}

func TestShareResolveUnknownToken(t *testing.T) {
	f := newShareFixture(t)

	_, err := f.svc.Resolve(context.Background(), "0123456789abcdef0123456789abcdef")
	require.ErrorIs(t, err, ErrShareNotFound)
	_, err = f.svc.Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, ErrShareNotFound)
}

func TestShareResolveIsCaseInsensitive(t *testing.T) {
	f := newShareFixture(t)

	link, err := f.svc.Create(context.Background(), f.coach, CreateShareInput{AssessmentID: f.assessment.ID})
	require.NoError(t, err)

	_, err = f.svc.Resolve(context.Background(), " "+strings.ToUpper(link.Token)+" ")
	require.NoError(t, err)
}

func TestShareListNewestFirst(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	older, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID, OneTime: true})
	require.NoError(t, err)
	newer, err := f.svc.Create(ctx, f.coach, CreateShareInput{AssessmentID: f.assessment.ID, ExpiresInDays: days(-1)})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.SharedLink{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	links, err := f.svc.List(ctx, f.coach, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, newer.ID, links[0].ID)
	require.Equal(t, older.ID, links[1].ID)
	require.Equal(t, "https://kids.example.com/share/"+older.Token, links[1].ShareURL)
}

func TestShareLinkedParentMayShare(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	var child models.Child
	require.NoError(t, f.db.First(&child, "id = ?", f.assessment.ChildID).Error)
	parent := seedProfile(t, f.db, models.RoleParent, "parent@example.com")
	linkParent(t, f.db, parent, &child)

	_, err := f.svc.Create(ctx, parent, CreateShareInput{AssessmentID: f.assessment.ID})
	require.NoError(t, err)
}
