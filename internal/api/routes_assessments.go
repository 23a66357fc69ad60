package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/handlers"
)

func registerAssessmentRoutes(protected *gin.RouterGroup, h *handlers.AssessmentHandler) {
	assessments := protected.Group("/assessments")
	{
		assessments.POST("", h.Create)
		assessments.GET("", h.List)
		assessments.GET("/compare", h.Compare)
		assessments.GET("/:id", h.Get)
		assessments.DELETE("/:id", h.Delete)
		assessments.GET("/:id/pdf", h.PDF)
	}
}
