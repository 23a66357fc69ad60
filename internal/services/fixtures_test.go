package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/database/testutil"
	"github.com/kidslab/kidsmove/internal/models"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedProfile(t *testing.T, db *gorm.DB, role models.Role, email string) *Identity {
	t.Helper()

	profile := models.Profile{
		BaseModel: models.BaseModel{ID: uuid.NewString()},
		Role:      role,
		FullName:  string(role) + " " + email,
		Email:     email,
	}
	require.NoError(t, db.Create(&profile).Error)
	return &Identity{ID: profile.ID, Email: profile.Email}
}

func seedChild(t *testing.T, db *gorm.DB, owner *Identity) *models.Child {
	t.Helper()

	child := models.Child{
		OwnerProfileID: owner.ID,
		FirstName:      "太郎",
		LastName:       "山田",
		Birthdate:      datatypes.Date(time.Date(2017, 4, 10, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, db.Create(&child).Error)
	return &child
}

func seedAssessment(t *testing.T, db *gorm.DB, coach *Identity, child *models.Child, assessedAt time.Time, score int) *models.Assessment {
	t.Helper()

	assessment := models.Assessment{ChildID: child.ID, CoachID: coach.ID, AssessedAt: assessedAt}
	require.NoError(t, db.Create(&assessment).Error)
	require.NoError(t, db.Create(&models.FMSScore{
		AssessmentID: assessment.ID,
		Run:          score, BalanceBeam: score, Jump: score, Throw: score,
		Catch: score, Dribble: score, Roll: score,
	}).Error)
	return &assessment
}

func linkParent(t *testing.T, db *gorm.DB, parent *Identity, child *models.Child) {
	t.Helper()
	require.NoError(t, db.Create(&models.ParentChildRelationship{ParentProfileID: parent.ID, ChildID: child.ID}).Error)
}

func fullScores(score int) FMSInput {
	return FMSInput{Run: score, BalanceBeam: score, Jump: score, Throw: score, Catch: score, Dribble: score, Roll: score}
}
