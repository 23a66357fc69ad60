package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/handlers"
)

func registerInvitationRoutes(public, protected *gin.RouterGroup, h *handlers.InvitationHandler) {
	public.GET("/invitations/validate", h.Validate)

	invitations := protected.Group("/invitations")
	{
		invitations.POST("", h.Create)
		invitations.GET("", h.List)
		invitations.POST("/accept", h.Accept)
		invitations.POST("/:id/revoke", h.Revoke)
	}
}
