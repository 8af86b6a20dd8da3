package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/logging"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

func loggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(requestIDKey)
		reqLogger := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		logging.LogRequest(logger, requestID, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
