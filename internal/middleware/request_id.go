package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader заголовок з ідентифікатором запиту
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID присвоює кожному запиту X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger повертає logrus entry з request id поточного запиту
func Logger(c *gin.Context) *logrus.Entry {
	return logrus.WithField(requestIDKey, c.GetString(requestIDKey))
}
