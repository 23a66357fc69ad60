package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/middleware"
	"github.com/kidslab/kidsmove/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentIdentity returns the authenticated caller, or nil for anonymous requests.
func currentIdentity(c *gin.Context) *services.Identity {
	if c == nil {
		return nil
	}
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		return nil
	}
	return &services.Identity{ID: userID, Email: c.GetString(middleware.CtxEmailKey)}
}
