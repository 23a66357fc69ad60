package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/pkg/response"
)

const healthPingTimeout = 2 * time.Second

// Health reports service status. When db is provided the database is pinged and a failure
// answers 503.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := gin.H{"status": "ok", "checked_at": time.Now().UTC()}
		if db == nil {
			response.Success(c, http.StatusOK, payload)
			return
		}

		ctx, cancel := context.WithTimeout(requestContext(c), healthPingTimeout)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			payload["status"] = "degraded"
			payload["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, response.Response{Success: false, Data: payload})
			return
		}

		payload["database"] = "ok"
		response.Success(c, http.StatusOK, payload)
	}
}
