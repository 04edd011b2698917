package api

import (
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's X-Request-ID or mints one, and stores it
// on the request context for downstream timing logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(obs.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog logs end-to-end request duration and response size.
func accessLog(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Info("request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.RequestURI()),
			logger.Int("status", c.Writer.Status()),
			logger.Int("bytes", c.Writer.Size()),
			logger.Duration("dur", time.Since(start)),
			logger.String("request_id", obs.RequestID(c.Request.Context())),
		)
	}
}

func recovery(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					logger.Any("panic", r),
					logger.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
