package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	appErrors "github.com/kidslab/kidsmove/pkg/errors"
	"github.com/kidslab/kidsmove/pkg/metrics"
	"github.com/kidslab/kidsmove/pkg/response"
)

// ReportRenderer writes a report as a PDF document.
type ReportRenderer interface {
	Render(w io.Writer, report *services.Report) error
}

// writeReportPDF renders report into the response. origin labels the rendered-report metric.
func writeReportPDF(c *gin.Context, renderer ReportRenderer, report *services.Report, origin string) {
	if renderer == nil {
		response.Error(c, appErrors.ErrNotFound.WithMessage("pdf export is not available"))
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		response.Error(c, appErrors.Wrap(err, "failed to render report"))
		return
	}
	metrics.ReportsRendered.WithLabelValues(origin).Inc()

	filename := fmt.Sprintf("kidsmove-report-%s.pdf", report.AssessedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
