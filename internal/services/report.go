package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/fms"
	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/pkg/age"
)

// Report is the full payload of one assessment as shown to coaches, parents and share viewers.
type Report struct {
	AssessmentID string          `json:"assessment_id"`
	Child        ReportChild     `json:"child"`
	CoachName    string          `json:"coach_name"`
	AssessedAt   time.Time       `json:"assessed_at"`
	Movements    []MovementScore `json:"movements"`
	Measures     []MeasureValue  `json:"measures"`
	Memo         *string         `json:"memo,omitempty"`
	FMSTotal     int             `json:"fms_total"`
}

// ReportChild is the child section of a report. Age is computed at the assessment date.
type ReportChild struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Birthdate   string  `json:"birthdate"`
	Grade       *string `json:"grade,omitempty"`
	Age         age.Age `json:"age"`
	AgeLabel    string  `json:"age_label"`
}

// MovementScore is one FMS row of a report.
type MovementScore struct {
	fms.Category
	Score        int    `json:"score"`
	Stage        string `json:"stage"`
	EnglishStage string `json:"english_stage"`
}

// MeasureValue is one SMC row of a report; Value is nil when not measured.
type MeasureValue struct {
	fms.Measure
	Value *float64 `json:"value"`
}

// Scores returns the movement scores keyed by movement key.
func (r Report) Scores() fms.Scores {
	scores := make(fms.Scores, len(r.Movements))
	for _, m := range r.Movements {
		scores[m.Key] = m.Score
	}
	return scores
}

// loadReport reads an assessment with its child, coach and scores. Access control is the
// caller's responsibility.
func loadReport(ctx context.Context, db *gorm.DB, assessmentID string) (*Report, error) {
	var assessment models.Assessment
	err := db.WithContext(ctx).
		Preload("Child").
		Preload("Coach").
		Preload("FMS").
		Preload("SMC").
		First(&assessment, "id = ?", assessmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	return buildReport(assessment), nil
}

func buildReport(a models.Assessment) *Report {
	r := &Report{
		AssessmentID: a.ID,
		AssessedAt:   a.AssessedAt,
		Memo:         a.Memo,
	}

	if a.Child != nil {
		born := a.Child.BirthdateTime()
		childAge := age.Calculate(born, a.AssessedAt)
		r.Child = ReportChild{
			ID:          a.Child.ID,
			DisplayName: a.Child.DisplayName(),
			Birthdate:   born.Format(age.DateLayout),
			Grade:       a.Child.Grade,
			Age:         childAge,
			AgeLabel:    childAge.String(),
		}
	}
	if a.Coach != nil {
		r.CoachName = a.Coach.FullName
	}

	var scores map[string]int
	if a.FMS != nil {
		scores = a.FMS.ByKey()
	}
	for _, c := range fms.Categories {
		row := MovementScore{Category: c, Score: scores[c.Key]}
		if stage, ok := fms.StageFor(row.Score); ok {
			row.Stage = stage.Description
			row.EnglishStage = stage.EnglishDescription
		}
		r.Movements = append(r.Movements, row)
		r.FMSTotal += row.Score
	}

	for _, m := range fms.Measures {
		value := MeasureValue{Measure: m}
		if a.SMC != nil {
			switch m.Key {
			case fms.ShuttleRun:
				value.Value = a.SMC.ShuttleRunSec
			case fms.PaperBallThrow:
				value.Value = a.SMC.PaperBallThrowM
			}
		}
		r.Measures = append(r.Measures, value)
	}
	return r
}
