package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/handlers"
)

func registerChildRoutes(protected *gin.RouterGroup, h *handlers.ChildHandler) {
	children := protected.Group("/children")
	{
		children.POST("", h.Create)
		children.GET("", h.List)
		children.GET("/:id", h.Get)
		children.PATCH("/:id", h.Update)
		children.DELETE("/:id", h.Delete)
	}
}
