package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/handlers"
)

func registerShareRoutes(public, protected *gin.RouterGroup, h *handlers.ShareHandler) {
	share := public.Group("/share/:token")
	{
		share.GET("", h.Resolve)
		share.GET("/pdf", h.ResolvePDF)
	}

	shares := protected.Group("/shares")
	{
		shares.POST("", h.Create)
		shares.GET("", h.List)
	}
}
