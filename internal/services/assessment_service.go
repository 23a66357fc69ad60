package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/fms"
	"github.com/kidslab/kidsmove/internal/models"
)

// AssessmentOption customises AssessmentService behaviour.
type AssessmentOption func(*AssessmentService)

// WithAssessmentClock injects a custom clock used as the default assessment time.
func WithAssessmentClock(clock func() time.Time) AssessmentOption {
	return func(s *AssessmentService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AssessmentService records and reads movement assessments.
type AssessmentService struct {
	db  *gorm.DB
	now func() time.Time
}

// FMSInput carries the seven movement scores.
type FMSInput struct {
	Run         int
	BalanceBeam int
	Jump        int
	Throw       int
	Catch       int
	Dribble     int
	Roll        int
}

func (in FMSInput) byKey() map[string]int {
	return models.FMSScore{
		Run: in.Run, BalanceBeam: in.BalanceBeam, Jump: in.Jump, Throw: in.Throw,
		Catch: in.Catch, Dribble: in.Dribble, Roll: in.Roll,
	}.ByKey()
}

// SMCInput carries the optional supplementary measures.
type SMCInput struct {
	ShuttleRunSec   *float64
	PaperBallThrowM *float64
}

// AssessmentInput describes a new assessment.
type AssessmentInput struct {
	ChildID    string
	AssessedAt *time.Time
	Memo       *string
	FMS        FMSInput
	SMC        SMCInput
}

// AssessmentSummary is a list row of an assessment.
type AssessmentSummary struct {
	ID         string     `json:"id"`
	ChildID    string     `json:"child_id"`
	ChildName  string     `json:"child_name"`
	CoachName  string     `json:"coach_name"`
	AssessedAt time.Time  `json:"assessed_at"`
	Memo       *string    `json:"memo,omitempty"`
	Scores     fms.Scores `json:"fms_scores"`
	FMSTotal   int        `json:"fms_total"`
}

// History lists a child's assessments newest first and compares two of them.
type History struct {
	Assessments []AssessmentSummary `json:"assessments"`
	// Comparison is nil when fewer than two assessments exist.
	Comparison *HistoryComparison `json:"comparison,omitempty"`
}

// HistoryComparison is the score delta from an older to a newer assessment.
type HistoryComparison struct {
	FromID     string         `json:"from_id"`
	ToID       string         `json:"to_id"`
	FromDate   time.Time      `json:"from_date"`
	ToDate     time.Time      `json:"to_date"`
	Comparison fms.Comparison `json:"comparison"`
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(db *gorm.DB, opts ...AssessmentOption) (*AssessmentService, error) {
	if db == nil {
		return nil, errors.New("assessment service: db is required")
	}
	s := &AssessmentService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create records an assessment for a child. Coach or admin only; the caller becomes the coach.
func (s *AssessmentService) Create(ctx context.Context, id *Identity, in AssessmentInput) (*Report, error) {
	caller, err := requireElevated(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	childID := strings.TrimSpace(in.ChildID)
	if !validUUID(childID) {
		return nil, invalid("child_id", "child_id must be a UUID")
	}
	if err := validateScores(in.FMS, in.SMC); err != nil {
		return nil, err
	}

	var child models.Child
	if err := s.db.WithContext(ctx).First(&child, "id = ?", childID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("assessment service: load child: %w", err)
	}

	assessedAt := s.now().UTC()
	if in.AssessedAt != nil && !in.AssessedAt.IsZero() {
		assessedAt = in.AssessedAt.UTC()
	}

	assessment := models.Assessment{
		ChildID:    child.ID,
		CoachID:    caller.ID,
		AssessedAt: assessedAt,
		Memo:       optionalString(in.Memo),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assessment).Error; err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
		score := models.FMSScore{
			AssessmentID: assessment.ID,
			Run:          in.FMS.Run,
			BalanceBeam:  in.FMS.BalanceBeam,
			Jump:         in.FMS.Jump,
			Throw:        in.FMS.Throw,
			Catch:        in.FMS.Catch,
			Dribble:      in.FMS.Dribble,
			Roll:         in.FMS.Roll,
		}
		if err := tx.Create(&score).Error; err != nil {
			return fmt.Errorf("create fms scores: %w", err)
		}

		smc := models.SMCScore{
			AssessmentID:    assessment.ID,
			ShuttleRunSec:   in.SMC.ShuttleRunSec,
			PaperBallThrowM: in.SMC.PaperBallThrowM,
		}
		if smc.Empty() {
			return nil
		}
		if err := tx.Create(&smc).Error; err != nil {
			return fmt.Errorf("create smc scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assessment service: %w", err)
	}

	return loadReport(ctx, s.db, assessment.ID)
}

// List returns visible assessments newest first, optionally for one child.
func (s *AssessmentService) List(ctx context.Context, id *Identity, childID string) ([]AssessmentSummary, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Assessment{}).
		Joins("JOIN children ON children.id = assessments.child_id")
	query = visibleChildren(query, caller)
	if childID = strings.TrimSpace(childID); childID != "" {
		if !validUUID(childID) {
			return nil, invalid("child_id", "child_id must be a UUID")
		}
		query = query.Where("assessments.child_id = ?", childID)
	}

	var assessments []models.Assessment
	err = query.
		Preload("Child").
		Preload("Coach").
		Preload("FMS").
		Order("assessments.assessed_at DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("assessment service: list: %w", err)
	}

	summaries := make([]AssessmentSummary, 0, len(assessments))
	for _, a := range assessments {
		summaries = append(summaries, summarize(a))
	}
	return summaries, nil
}

// Report returns the full report of a visible assessment.
func (s *AssessmentService) Report(ctx context.Context, id *Identity, assessmentID string) (*Report, error) {
	caller, err := callerProfile(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, caller, assessmentID); err != nil {
		return nil, err
	}
	return loadReport(ctx, s.db, strings.TrimSpace(assessmentID))
}

// Delete removes an assessment with its scores and shared links. Coach or admin only.
func (s *AssessmentService) Delete(ctx context.Context, id *Identity, assessmentID string) error {
	if _, err := requireElevated(ctx, s.db, id); err != nil {
		return err
	}
	assessmentID = strings.TrimSpace(assessmentID)
	if !validUUID(assessmentID) {
		return ErrAssessmentNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.SharedLink{}, &models.FMSScore{}, &models.SMCScore{}} {
			if err := tx.Where("assessment_id = ?", assessmentID).Delete(model).Error; err != nil {
				return fmt.Errorf("assessment service: delete dependents: %w", err)
			}
		}
		result := tx.Delete(&models.Assessment{}, "id = ?", assessmentID)
		if result.Error != nil {
			return fmt.Errorf("assessment service: delete: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAssessmentNotFound
		}
		return nil
	})
}

// History lists the child's assessments newest first and compares fromID to toID. When both
// are empty the two most recent assessments are compared.
func (s *AssessmentService) History(ctx context.Context, id *Identity, childID, fromID, toID string) (*History, error) {
	summaries, err := s.List(ctx, id, childID)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrAssessmentNotFound
	}

	history := &History{Assessments: summaries}
	from, to, err := pickComparison(summaries, strings.TrimSpace(fromID), strings.TrimSpace(toID))
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil {
		history.Comparison = &HistoryComparison{
			FromID:     from.ID,
			ToID:       to.ID,
			FromDate:   from.AssessedAt,
			ToDate:     to.AssessedAt,
			Comparison: fms.Compare(from.Scores, to.Scores),
		}
	}
	return history, nil
}

func pickComparison(summaries []AssessmentSummary, fromID, toID string) (*AssessmentSummary, *AssessmentSummary, error) {
	if fromID == "" && toID == "" {
		if len(summaries) < 2 {
			return nil, nil, nil
		}
		return &summaries[1], &summaries[0], nil
	}

	find := func(id string) *AssessmentSummary {
		for i := range summaries {
			if summaries[i].ID == id {
				return &summaries[i]
			}
		}
		return nil
	}
	from, to := find(fromID), find(toID)
	if from == nil || to == nil {
		return nil, nil, ErrAssessmentNotFound
	}
	return from, to, nil
}

func (s *AssessmentService) checkVisible(ctx context.Context, caller *models.Profile, assessmentID string) error {
	assessmentID = strings.TrimSpace(assessmentID)
	if !validUUID(assessmentID) {
		return ErrAssessmentNotFound
	}

	var assessment models.Assessment
	err := s.db.WithContext(ctx).Select("id", "child_id").First(&assessment, "id = ?", assessmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssessmentNotFound
	}
	if err != nil {
		return fmt.Errorf("assessment service: load: %w", err)
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

func summarize(a models.Assessment) AssessmentSummary {
	summary := AssessmentSummary{
		ID:         a.ID,
		ChildID:    a.ChildID,
		AssessedAt: a.AssessedAt,
		Memo:       a.Memo,
		Scores:     fms.Scores{},
	}
	if a.Child != nil {
		summary.ChildName = a.Child.DisplayName()
	}
	if a.Coach != nil {
		summary.CoachName = a.Coach.FullName
	}
	if a.FMS != nil {
		summary.Scores = fms.Scores(a.FMS.ByKey())
		summary.FMSTotal = summary.Scores.Total()
	}
	return summary
}

func validateScores(scores FMSInput, smc SMCInput) error {
	values := scores.byKey()
	for _, c := range fms.Categories {
		if v := values[c.Key]; v < fms.MinScore || v > fms.MaxScore {
			return invalid("fms_scores."+c.Key, "score must be between %d and %d", fms.MinScore, fms.MaxScore)
		}
	}
	if smc.ShuttleRunSec != nil {
		if err := fms.CheckMeasure(fms.ShuttleRun, *smc.ShuttleRunSec); err != nil {
			return invalid("smc_scores."+fms.ShuttleRun, "%s", err.Error())
		}
	}
	if smc.PaperBallThrowM != nil {
		if err := fms.CheckMeasure(fms.PaperBallThrow, *smc.PaperBallThrowM); err != nil {
			return invalid("smc_scores."+fms.PaperBallThrow, "%s", err.Error())
		}
	}
	return nil
}
