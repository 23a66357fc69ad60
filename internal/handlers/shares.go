package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	appErrors "github.com/kidslab/kidsmove/pkg/errors"
	"github.com/kidslab/kidsmove/pkg/response"
)

// ShareHandler issues shared links and serves their public views.
type ShareHandler struct {
	shares   *services.ShareService
	renderer ReportRenderer
}

// NewShareHandler builds the handler. renderer may be nil, which disables PDF export.
func NewShareHandler(shares *services.ShareService, renderer ReportRenderer) *ShareHandler {
	return &ShareHandler{shares: shares, renderer: renderer}
}

type createShareRequest struct {
	AssessmentID  string `json:"assessment_id" validate:"required"`
	ExpiresInDays *int   `json:"expires_in_days" validate:"omitempty,min=1,max=365"`
	OneTime       bool   `json:"one_time"`
}

// Create handles POST /api/shares.
func (h *ShareHandler) Create(c *gin.Context) {
	var req createShareRequest
	if !bindAndValidate(c, &req) {
		return
	}

	link, err := h.shares.Create(requestContext(c), currentIdentity(c), services.CreateShareInput{
		AssessmentID:  req.AssessmentID,
		ExpiresInDays: req.ExpiresInDays,
		OneTime:       req.OneTime,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, link)
}

// List handles GET /api/shares?assessment_id=.
func (h *ShareHandler) List(c *gin.Context) {
	links, err := h.shares.List(requestContext(c), currentIdentity(c), c.Query("assessment_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.List(c, links)
}

// Resolve handles the public GET /api/share/:token.
func (h *ShareHandler) Resolve(c *gin.Context) {
	report, err := h.shares.Resolve(requestContext(c), c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ResolvePDF handles GET /api/share/:token/pdf. A one-time link is consumed by this call.
func (h *ShareHandler) ResolvePDF(c *gin.Context) {
	// Checked before resolving so a one-time link is not burned on a request that cannot succeed.
	if h.renderer == nil {
		response.Error(c, appErrors.ErrNotFound.WithMessage("pdf export is not available"))
		return
	}
	report, err := h.shares.Resolve(requestContext(c), c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeReportPDF(c, h.renderer, report, "share")
}
