package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/response"
)

type AssessmentHandler struct {
	assessments *services.AssessmentService
	renderer    ReportRenderer
}

// NewAssessmentHandler builds the handler. renderer may be nil, which disables PDF export.
func NewAssessmentHandler(assessments *services.AssessmentService, renderer ReportRenderer) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, renderer: renderer}
}

type fmsScoresRequest struct {
	Run         int `json:"run" validate:"min=1,max=5"`
	BalanceBeam int `json:"balance_beam" validate:"min=1,max=5"`
	Jump        int `json:"jump" validate:"min=1,max=5"`
	Throw       int `json:"throw" validate:"min=1,max=5"`
	Catch       int `json:"catch" validate:"min=1,max=5"`
	Dribble     int `json:"dribble" validate:"min=1,max=5"`
	Roll        int `json:"roll" validate:"min=1,max=5"`
}

type smcScoresRequest struct {
	ShuttleRunSec   *float64 `json:"shuttle_run_sec"`
	PaperBallThrowM *float64 `json:"paper_ball_throw_m"`
}

type createAssessmentRequest struct {
	ChildID    string           `json:"child_id" validate:"required"`
	AssessedAt *time.Time       `json:"assessed_at"`
	Memo       *string          `json:"memo" validate:"omitempty,max=2000"`
	FMSScores  fmsScoresRequest `json:"fms_scores"`
	SMCScores  smcScoresRequest `json:"smc_scores"`
}

func (h *AssessmentHandler) Create(c *gin.Context) {
	var req createAssessmentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.assessments.Create(requestContext(c), currentIdentity(c), services.AssessmentInput{
		ChildID:    req.ChildID,
		AssessedAt: req.AssessedAt,
		Memo:       req.Memo,
		FMS: services.FMSInput{
			Run:         req.FMSScores.Run,
			BalanceBeam: req.FMSScores.BalanceBeam,
			Jump:        req.FMSScores.Jump,
			Throw:       req.FMSScores.Throw,
			Catch:       req.FMSScores.Catch,
			Dribble:     req.FMSScores.Dribble,
			Roll:        req.FMSScores.Roll,
		},
		SMC: services.SMCInput{
			ShuttleRunSec:   req.SMCScores.ShuttleRunSec,
			PaperBallThrowM: req.SMCScores.PaperBallThrowM,
		},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, report)
}

// List handles GET /api/assessments with an optional child_id filter.
func (h *AssessmentHandler) List(c *gin.Context) {
	items, err := h.assessments.List(requestContext(c), currentIdentity(c), c.Query("child_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.List(c, items)
}

func (h *AssessmentHandler) Get(c *gin.Context) {
	report, err := h.assessments.Report(requestContext(c), currentIdentity(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.assessments.Delete(requestContext(c), currentIdentity(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// PDF handles GET /api/assessments/:id/pdf.
func (h *AssessmentHandler) PDF(c *gin.Context) {
	report, err := h.assessments.Report(requestContext(c), currentIdentity(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeReportPDF(c, h.renderer, report, "coach")
}

// Compare handles GET /api/assessments/compare?child_id=&from=&to=.
func (h *AssessmentHandler) Compare(c *gin.Context) {
	history, err := h.assessments.History(requestContext(c), currentIdentity(c), c.Query("child_id"), c.Query("from"), c.Query("to"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, history)
}
