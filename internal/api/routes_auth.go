package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/handlers"
)

func registerAuthRoutes(public, protected *gin.RouterGroup, auth *handlers.AuthHandler, profiles *handlers.ProfileHandler) {
	magic := public.Group("/auth/magic-link")
	{
		magic.POST("", auth.RequestMagicLink)
		magic.POST("/verify", auth.VerifyMagicLink)
	}

	protected.GET("/me", profiles.Me)
	protected.POST("/profiles", profiles.Create)
}
