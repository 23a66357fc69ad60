package models

import "time"

// Assessment is one scoring session of a child by a coach.
type Assessment struct {
	BaseModel

	ChildID    string    `gorm:"size:36;not null;index" json:"child_id"`
	CoachID    string    `gorm:"size:36;not null;index" json:"coach_id"`
	AssessedAt time.Time `gorm:"not null;index" json:"assessed_at"`
	Memo       *string   `gorm:"type:text" json:"memo,omitempty"`

	Child *Child    `gorm:"constraint:OnDelete:CASCADE" json:"child,omitempty"`
	Coach *Profile  `gorm:"foreignKey:CoachID" json:"coach,omitempty"`
	FMS   *FMSScore `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"fms,omitempty"`
	SMC   *SMCScore `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"smc,omitempty"`
}

// FMSScore holds the seven fundamental movement scores (1-5) of an assessment.
type FMSScore struct {
	BaseModel

	AssessmentID string `gorm:"size:36;not null;uniqueIndex" json:"assessment_id"`
	Run          int    `gorm:"not null" json:"run"`
	BalanceBeam  int    `gorm:"not null" json:"balance_beam"`
	Jump         int    `gorm:"not null" json:"jump"`
	Throw        int    `gorm:"not null" json:"throw"`
	Catch        int    `gorm:"not null" json:"catch"`
	Dribble      int    `gorm:"not null" json:"dribble"`
	Roll         int    `gorm:"not null" json:"roll"`
}

// ByKey returns the scores keyed by movement key.
func (s FMSScore) ByKey() map[string]int {
	return map[string]int{
		"run":          s.Run,
		"balance_beam": s.BalanceBeam,
		"jump":         s.Jump,
		"throw":        s.Throw,
		"catch":        s.Catch,
		"dribble":      s.Dribble,
		"roll":         s.Roll,
	}
}

// SMCScore holds the optional supplementary measures of an assessment.
type SMCScore struct {
	BaseModel

	AssessmentID    string   `gorm:"size:36;not null;uniqueIndex" json:"assessment_id"`
	ShuttleRunSec   *float64 `json:"shuttle_run_sec,omitempty"`
	PaperBallThrowM *float64 `json:"paper_ball_throw_m,omitempty"`
}

// Empty reports whether no measure was recorded.
func (s SMCScore) Empty() bool {
	return s.ShuttleRunSec == nil && s.PaperBallThrowM == nil
}
